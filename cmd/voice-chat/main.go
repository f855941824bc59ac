// Command voice-chat runs a realtime voice conversation from the terminal.
//
// Speak into the microphone; the assistant answers with audio and can drive
// host commands (section navigation, theme toggle, admin panel), which this
// client simply prints.
//
// Usage:
//
//	go run ./cmd/voice-chat
//
// Environment variables (a .env file is loaded when present):
//
//	VOICELIVE_API_KEY   - Required. API key for the realtime channel.
//	VOICELIVE_ENDPOINT  - Optional. Override the websocket endpoint.
//	VOICELIVE_MODEL     - Optional. Override the assistant model.
//	VOICELIVE_VOICE     - Optional. Override the voice identity.
//
// Controls:
//
//	q - Quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/foliokit/voicelive/pkg/audio"
	"github.com/foliokit/voicelive/pkg/live"
)

// meteredInput wraps the microphone and reports input level while speaking.
type meteredInput struct {
	dev    audio.InputDevice
	logger *slog.Logger
}

func (m *meteredInput) Start(onData func(pcm []byte)) error {
	return m.dev.Start(func(pcm []byte) {
		if level := audio.RMSEnergy(pcm); level > 0.05 {
			m.logger.Debug("mic level", "rms", fmt.Sprintf("%.2f", level))
		}
		onData(pcm)
	})
}

func (m *meteredInput) Stop() error {
	return m.dev.Stop()
}

func main() {
	_ = godotenv.Load()

	endpoint := flag.String("endpoint", os.Getenv("VOICELIVE_ENDPOINT"), "websocket endpoint (default: hosted realtime channel)")
	model := flag.String("model", os.Getenv("VOICELIVE_MODEL"), "assistant model")
	voice := flag.String("voice", os.Getenv("VOICELIVE_VOICE"), "voice identity")
	system := flag.String("system", "You are a helpful voice guide for a personal portfolio site. Keep replies short and conversational.", "system instruction")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	apiKey := os.Getenv("VOICELIVE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "VOICELIVE_API_KEY required")
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := live.DefaultSessionConfig()
	cfg.APIKey = apiKey
	cfg.SystemInstruction = *system
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *voice != "" {
		cfg.Voice = *voice
	}

	session := live.NewSession(cfg,
		live.WithLogger(logger),
		live.WithInputDevice(&meteredInput{
			dev:    audio.NewMalgoInput(audio.CaptureConfig()),
			logger: logger,
		}),
		live.WithCommandHandler(func(name string, args map[string]any) {
			switch name {
			case live.CommandNavigateTo:
				fmt.Printf("\n[COMMAND] navigate to %v\n", args["section"])
			case live.CommandToggleTheme:
				fmt.Printf("\n[COMMAND] toggle theme\n")
			case live.CommandOpenAdmin:
				fmt.Printf("\n[COMMAND] open admin panel\n")
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		session.Close()
		cancel()
	}()

	fmt.Println("Connecting...")
	if err := session.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "could not start voice session: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	fmt.Println("Listening. Speak naturally; type 'q' to quit.")

	go func() {
		for event := range session.Events() {
			switch e := event.(type) {
			case live.TranscriptEvent:
				fmt.Printf("\r[YOU] %s", e.Transcript)
			case live.TurnCompleteEvent:
				fmt.Println()
			case live.InterruptedEvent:
				fmt.Println("\n[...]")
			case live.ToolInvokedEvent:
				logger.Debug("tool invoked", "id", e.ID, "name", e.Name)
			}
		}
	}()

	inputDone := make(chan struct{})
	go func() {
		defer close(inputDone)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if strings.ToLower(strings.TrimSpace(scanner.Text())) == "q" {
				return
			}
		}
	}()

	select {
	case <-inputDone:
		session.Close()
	case <-session.Done():
	}

	if err := session.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "session ended with error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Session closed.")
}
