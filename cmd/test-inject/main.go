// Command test-inject is a manual check for note injection. The method
// defaults to "off", like the application config, so running it bare
// only reports that injection is disabled. With --method type or paste
// it waits 3 seconds and then injects the text at the cursor.
//
// Usage:
//
//	go run ./cmd/test-inject [--method off|type|paste] [--text "..."]
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/scribeapp/scribe/internal/inject"
)

func main() {
	method := flag.String("method", "off", "inject method: off, type or paste")
	text := flag.String("text", "- Photosynthesis converts light into chemical energy.\n- Chlorophyll absorbs red and blue light.", "note text to inject")
	flag.Parse()

	inj := inject.NewInjector(*method)
	if !inj.Enabled() {
		fmt.Printf("Injection is disabled (method %q). Re-run with --method type or --method paste.\n", *method)
		return
	}

	fmt.Printf("Will inject %d characters using %q in 3 seconds...\n", len(*text), *method)
	fmt.Println("Focus a text editor now!")
	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	if err := inj.Inject(*text); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Done!")
}
