package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/scribeapp/scribe/internal/audio"
	"github.com/scribeapp/scribe/internal/capture"
	"github.com/scribeapp/scribe/internal/config"
	"github.com/scribeapp/scribe/internal/export"
	"github.com/scribeapp/scribe/internal/hotkey"
	"github.com/scribeapp/scribe/internal/inject"
	"github.com/scribeapp/scribe/internal/notes"
	"github.com/scribeapp/scribe/internal/session"
	"github.com/scribeapp/scribe/internal/store"
	"github.com/scribeapp/scribe/internal/transcribe"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/scribe/config.yaml)")
	lang := flag.String("lang", "", "set the session language (en or es) and persist it")
	list := flag.Bool("list", false, "print stored conversations and exit")
	exportID := flag.String("export", "", "export the notes of a conversation (id or \"latest\") and exit")
	exportFormat := flag.String("format", "", "export format: txt or md (default: config export.format or txt)")
	clearAll := flag.Bool("clear", false, "delete all stored conversations and exit")
	flag.Parse()

	// A .env next to the binary may carry OPENAI_API_KEY.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	setupLogging(cfg.LogLevel)

	// Open the conversation database
	st, err := store.Open(filepath.Join(cfg.DataDir, "scribe.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("opening conversation store")
	}
	defer st.Close()

	// One-shot maintenance modes that only need the store.
	switch {
	case *list:
		printConversations(st)
		return
	case *exportID != "":
		if err := exportNotes(st, cfg, *exportID, *exportFormat); err != nil {
			log.Fatal().Err(err).Msg("export")
		}
		return
	case *clearAll:
		st.Clear()
		fmt.Println("All conversations deleted.")
		return
	}

	if *lang != "" {
		if *lang != "en" && *lang != "es" {
			log.Fatal().Str("lang", *lang).Msg("language must be en or es")
		}
		st.SetLanguage(*lang)
	}
	language := st.Language()
	if language == "" {
		language = "en"
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		log.Fatal().Msg("no API key: set model.api_key in the config or the OPENAI_API_KEY environment variable")
	}

	printBanner(cfg, language)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hosted model clients
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.Model.BaseURL != "" {
		clientCfg.BaseURL = cfg.Model.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	model := notes.NewOpenAIModel(client, cfg.Model.Chat)
	pipeline := notes.NewPipeline(model)
	topics := notes.NewTopicService(model)

	// Speech capture chain: microphone frames -> chunked hosted
	// transcription -> cumulative transcript events.
	transcriber := transcribe.NewOpenAITranscriber(client, cfg.Model.Transcribe, language, int(cfg.Audio.SampleRate))
	recognizer := transcribe.NewChunkRecognizer(ctx, transcriber, int(cfg.Audio.SampleRate), time.Duration(cfg.Audio.ChunkSeconds)*time.Second)
	mic := audio.NewMicrophone(cfg.Audio.SampleRate, cfg.Audio.Channels)
	capSession := capture.NewSession(mic, recognizer)

	// Initialize text injector
	injector := inject.NewInjector(cfg.Inject.Method)
	log.Info().Str("method", cfg.Inject.Method).Msg("Text injector ready")

	recordingsDir := filepath.Join(cfg.DataDir, "recordings")
	if err := os.MkdirAll(recordingsDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("creating recordings dir")
	}

	var ctrl *session.Controller
	ctrl = session.New(ctx, session.Config{
		Store:         st,
		Capture:       capSession,
		Pipeline:      pipeline,
		Topics:        topics,
		Notifier:      consoleNotifier{},
		RecordingsDir: recordingsDir,
		SampleRate:    int(cfg.Audio.SampleRate),
		OnSummary: func(conv store.Conversation) {
			onSummary(cfg, injector, conv)
			printTopics(ctrl.SuggestedTopics())
		},
	})
	defer ctrl.Close()

	conv := ctrl.NewConversation()
	log.Info().Str("id", conv.ID).Str("title", conv.Title).Msg("Conversation started")

	// Initialize hotkey listener
	listener := hotkey.NewListener(cfg.Hotkey.Keys, cfg.Hotkey.Mode)
	log.Info().
		Str("keys", strings.Join(cfg.Hotkey.Keys, "+")).
		Str("mode", cfg.Hotkey.Mode).
		Msg("Hotkey listener ready")

	// Signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start hotkey listener in background
	go listener.Start()

	log.Info().Msgf("Ready! Press %s to record. Ctrl+C to quit.", strings.Join(cfg.Hotkey.Keys, "+"))

	// Main event loop
	events := listener.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				log.Info().Msg("Hotkey listener stopped")
				return
			}

			switch ev.Action {
			case hotkey.StartRecording:
				if err := ctrl.StartRecording(); err != nil {
					log.Error().Err(err).Msg("failed to start recording")
					continue
				}
				log.Info().Msg("Recording...")

			case hotkey.StopRecording:
				ctrl.StopRecording()
				if active, ok := ctrl.Active(); ok {
					log.Info().Int("chars", len(active.Transcript)).Msg("Recording stopped")
				}
			}

		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("Shutting down...")
			ctrl.Close()
			st.Close()
			// Exit directly to avoid gohook's C cleanup crash.
			// The OS reclaims the event hook on process exit.
			os.Exit(0)
		}
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Info().Str("path", defaultPath).Msg("Config loaded")
		return cfg, nil
	}

	// No config file, use defaults
	log.Info().Msg("No config file found, using defaults")
	return config.Default(), nil
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(lvl)
}

// onSummary handles a freshly generated summary: prints it, optionally
// types it at the cursor and optionally exports it to a file.
func onSummary(cfg *config.Config, injector *inject.Injector, conv store.Conversation) {
	fmt.Printf("\n--- %s ---\n%s\n\n", conv.Title, conv.Summary)

	if injector.Enabled() {
		if err := injector.Inject(conv.Summary); err != nil {
			log.Error().Err(err).Msg("note injection failed")
		}
	}

	if cfg.Export.Format != "" {
		format, err := export.ParseFormat(cfg.Export.Format)
		if err != nil {
			log.Error().Err(err).Msg("export")
			return
		}
		path, err := export.Write(cfg.ExportDir(), conv.Title, conv.Summary, format)
		if err != nil {
			log.Error().Err(err).Msg("export")
			return
		}
		log.Info().Str("path", path).Msg("Notes exported")
	}
}

func printTopics(topics []string) {
	if len(topics) == 0 {
		return
	}
	fmt.Println("Suggested topics:")
	for _, t := range topics {
		fmt.Printf("  - %s\n", t)
	}
}

// printConversations lists the stored collection, newest first.
func printConversations(st *store.Store) {
	convs := st.Load()
	if len(convs) == 0 {
		fmt.Println("No conversations stored.")
		return
	}
	for _, c := range convs {
		summary := "no"
		if c.Summary != "" {
			summary = "yes"
		}
		fmt.Printf("%s  %-12s  %s  transcript: %d chars, notes: %s\n",
			c.ID, c.Title, c.CreatedAt, len(c.Transcript), summary)
	}
}

// exportNotes writes one conversation's summary to a file. The id
// "latest" selects the newest conversation.
func exportNotes(st *store.Store, cfg *config.Config, id, formatFlag string) error {
	convs := st.Load()
	if len(convs) == 0 {
		return fmt.Errorf("no conversations stored")
	}

	var conv *store.Conversation
	if id == "latest" {
		conv = &convs[0]
	} else {
		for i := range convs {
			if convs[i].ID == id {
				conv = &convs[i]
				break
			}
		}
	}
	if conv == nil {
		return fmt.Errorf("no conversation with id %s", id)
	}

	name := formatFlag
	if name == "" {
		name = cfg.Export.Format
	}
	if name == "" {
		name = "txt"
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}

	path, err := export.Write(cfg.ExportDir(), conv.Title, conv.Summary, format)
	if err != nil {
		return err
	}
	fmt.Printf("Notes written to %s\n", path)
	return nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config, language string) {
	fmt.Println("=== scribe ===")
	fmt.Printf("  Models:   %s / %s\n", cfg.Model.Chat, cfg.Model.Transcribe)
	fmt.Printf("  Language: %s\n", language)
	fmt.Printf("  Hotkey:   %s (%s mode)\n", strings.Join(cfg.Hotkey.Keys, "+"), cfg.Hotkey.Mode)
	fmt.Printf("  Audio:    %dHz, %dch, %ds chunks\n", cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.ChunkSeconds)
	fmt.Printf("  Inject:   %s\n", cfg.Inject.Method)
	fmt.Printf("  Data:     %s\n", cfg.DataDir)
	fmt.Println("==============")
}

// consoleNotifier surfaces user-facing problems on the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Notify(title, message string) {
	fmt.Printf("!! %s: %s\n", title, message)
}
