// Command test-hotkey is a manual check for the global hotkey listener.
// It tracks the recording toggle the way the main loop does and prints
// how long each simulated recording lasted.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--mode hold|toggle] [--keys ctrl,shift,r]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/scribeapp/scribe/internal/hotkey"
)

func main() {
	mode := flag.String("mode", "toggle", "hotkey mode: hold or toggle")
	keysFlag := flag.String("keys", "ctrl,shift,r", "comma-separated key combo")
	flag.Parse()

	keys := strings.Split(*keysFlag, ",")
	fmt.Printf("Listening for %s in %q mode. Ctrl+C to exit.\n", strings.Join(keys, "+"), *mode)

	listener := hotkey.NewListener(keys, *mode)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	go func() {
		session := 0
		var startedAt time.Time
		for ev := range listener.Events() {
			switch ev.Action {
			case hotkey.StartRecording:
				session++
				startedAt = time.Now()
				fmt.Printf("[%d] recording started\n", session)
			case hotkey.StopRecording:
				fmt.Printf("[%d] recording stopped after %s\n",
					session, time.Since(startedAt).Round(time.Millisecond))
			}
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}
