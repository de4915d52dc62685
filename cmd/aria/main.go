// Aria — a voice assistant that answers quick questions instantly and
// narrates long-running research while a specialist crew works.
//
// Usage:
//
//	aria [-no-audio] [-no-speech] [-verbosity verbose]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	orchestration "github.com/aria-voice/aria-core/core"
	"github.com/aria-voice/aria-core/core/config"
	"github.com/aria-voice/aria-core/core/reasoners/groq"
	"github.com/aria-voice/aria-core/core/research/hive"
	speechdeepgram "github.com/aria-voice/aria-core/core/speechoutput/deepgram"
	sttdeepgram "github.com/aria-voice/aria-core/core/speechtotext/deepgram"

	"github.com/aria-voice/aria-core/core/audio/miniaudio"
	"github.com/aria-voice/aria-core/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	noAudio := flag.Bool("no-audio", false, "disable microphone capture and speech-to-text")
	noSpeech := flag.Bool("no-speech", false, "disable speech synthesis even if Deepgram keys are set")
	voiceName := flag.String("voice", "", "Deepgram voice to speak with (defaults to Asteria)")
	verbosity := flag.String("verbosity", "", "progress verbosity: silent, minimal or verbose (overrides the environment)")
	logFile := flag.String("log-file", ".aria-logs/aria.log", "file to write logs to (use \"stderr\" to log to console)")
	flag.Parse()

	// Direct stdlib logs to a file by default so the terminal stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	if *verbosity != "" {
		cfg.UpdateVerbosity = *verbosity
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui := tui.NewUI()

	opts := []orchestration.OrchestratorOption{
		orchestration.WithProgressThrottle(cfg.ProgressThrottle),
		orchestration.WithFirstProgressThreshold(cfg.FirstProgressThreshold),
		orchestration.WithHardTimeout(cfg.HardTimeout),
		orchestration.WithMaxToolRounds(cfg.MaxToolRounds),
		orchestration.WithVerbosity(orchestration.Verbosity(cfg.UpdateVerbosity)),
		orchestration.WithWeatherAPIKey(cfg.OpenWeatherAPIKey),
	}

	if cfg.GroqAPIKey != "" {
		opts = append(opts, orchestration.WithReasoningBackend(groq.NewClient(cfg.GroqAPIKey)))
	} else {
		ui.PrintHint("reasoning disabled: set GROQ_API_KEY to enable tool routing")
	}

	if cfg.HiveHost != "" {
		crew, err := hive.NewClient(hive.WithHost(cfg.HiveHost), hive.WithAPIKey(cfg.HiveAPIKey))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: research backend: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, orchestration.WithResearchBackend(crew))
	} else {
		ui.PrintHint("research disabled: set HIVE_HOST to delegate complex queries")
	}

	if cfg.DeepgramAPIKey != "" && !*noSpeech {
		voice := speechdeepgram.VoiceAsteria
		for _, available := range speechdeepgram.GetAvailableVoices() {
			if strings.EqualFold(string(available), *voiceName) {
				voice = available
			}
		}
		speech, err := speechdeepgram.NewSpeechClient(ctx, voice)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: speech synthesis: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, orchestration.WithSpeechOutput(speech))
	} else if !*noSpeech {
		ui.PrintHint("speech disabled: set DEEPGRAM_API_KEY to enable synthesis")
	}

	if !*noAudio {
		device, err := miniaudio.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: audio device unavailable, running text-only: %v\n", err)
		} else {
			defer device.Close()
			opts = append(opts,
				orchestration.WithAudioInput(device),
				orchestration.WithAudioOutput(device),
			)
			if cfg.DeepgramAPIKey != "" {
				opts = append(opts, orchestration.WithSpeechToTextClient(sttdeepgram.NewTranscriptionClient()))
			}
		}
	}

	orchestrator := orchestration.NewOrchestrator(opts...)
	defer orchestrator.Close()

	orchestrator.Orchestrate(ctx,
		orchestration.WithEventCallback(ui.HandleEvent),
	)

	go func() {
		ui.WaitReady()
		ui.PrintHint("Type a question, or 'quit' to exit.")
		for {
			select {
			case <-ctx.Done():
				return
			case line := <-ui.InputChan():
				switch strings.ToLower(strings.TrimSpace(line)) {
				case "quit", "exit":
					ui.Quit()
					return
				default:
					orchestrator.SendQuery(line)
				}
			}
		}
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		stdlog.Printf("display: %v", err)
	}
	cancel()
}
