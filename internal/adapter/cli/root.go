// Package cli defines the command tree and wires the application together.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bkyoung/ideaminer/internal/adapter/httpapi"
	"github.com/bkyoung/ideaminer/internal/adapter/llm/anthropic"
	"github.com/bkyoung/ideaminer/internal/adapter/observability"
	"github.com/bkyoung/ideaminer/internal/adapter/ratelimit"
	"github.com/bkyoung/ideaminer/internal/adapter/record"
	"github.com/bkyoung/ideaminer/internal/adapter/store/sqlite"
	transcribe "github.com/bkyoung/ideaminer/internal/adapter/transcribe/openai"
	"github.com/bkyoung/ideaminer/internal/capture"
	"github.com/bkyoung/ideaminer/internal/config"
	"github.com/bkyoung/ideaminer/internal/extract"
	"github.com/bkyoung/ideaminer/internal/llm"
	"github.com/bkyoung/ideaminer/internal/sanitize"
	"github.com/bkyoung/ideaminer/internal/usecase/evaluate"
	"github.com/bkyoung/ideaminer/internal/usecase/followup"
	"github.com/bkyoung/ideaminer/internal/usecase/generate"
	"github.com/bkyoung/ideaminer/internal/usecase/questionnaire"
	"github.com/bkyoung/ideaminer/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "im",
		Short:         "Turn rough notes, surveys and voice memos into evaluated automation ideas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config directory")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCaptureCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		},
	}
}

func loadConfig(configPath string) (config.Config, error) {
	paths := []string{".", os.ExpandEnv("$HOME/.config/im")}
	if configPath != "" {
		paths = append([]string{configPath}, paths...)
	}
	return config.Load(config.LoaderOptions{ConfigPaths: paths})
}

// lazyModel defers client construction to the first invocation, so a missing
// API key surfaces as ErrNotConfigured on use rather than killing startup.
type lazyModel struct {
	cfg anthropic.Config
}

func (l lazyModel) Invoke(ctx context.Context, req llm.Request) (*llm.Reply, error) {
	client, err := anthropic.Default(l.cfg)
	if err != nil {
		return nil, err
	}
	return client.Invoke(ctx, req)
}

// lazyTranscriber mirrors lazyModel for the speech-to-text client.
type lazyTranscriber struct {
	cfg transcribe.Config
}

func (l lazyTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	client, err := transcribe.New(l.cfg)
	if err != nil {
		return "", err
	}
	return client.Transcribe(ctx, filename, audio)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()

			st, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			model := lazyModel{cfg: anthropic.Config{
				APIKey:    cfg.Anthropic.APIKey,
				Model:     cfg.Anthropic.Model,
				MaxTokens: cfg.Anthropic.MaxTokens,
				Timeout:   parseDuration(cfg.Anthropic.Timeout, 60*time.Second),
				Logger:    logger,
			}}
			transcriber := lazyTranscriber{cfg: transcribe.Config{
				APIKey:  cfg.Transcription.APIKey,
				Model:   cfg.Transcription.Model,
				Timeout: parseDuration(cfg.Transcription.Timeout, 120*time.Second),
				Logger:  logger,
			}}

			scanner := sanitize.NewScanner(logger)

			var limiter ratelimit.Limiter
			if cfg.RateLimit.Enabled {
				redisLimiter := ratelimit.New(ratelimit.Config{
					Addr:   cfg.RateLimit.RedisAddr,
					DB:     cfg.RateLimit.RedisDB,
					Window: parseDuration(cfg.RateLimit.Window, time.Minute),
					Limit:  cfg.RateLimit.MaxRequests,
					Logger: logger,
				})
				defer redisLimiter.Close()
				limiter = redisLimiter
			}

			server := httpapi.NewServer(httpapi.Deps{
				Logger:    logger,
				Evaluator: evaluate.New(st, model, scanner, logger),
				FollowUp: followup.New(model, scanner, logger,
					followup.WithMinAnswerChars(cfg.Limits.MinAnswerChars),
					followup.WithMinNotesChars(cfg.Limits.MinNotesChars),
				),
				Extractor: extract.NewExtractor(st, model, scanner, logger,
					extract.WithThreshold(cfg.Limits.ConfidenceThreshold),
				),
				Generator: generate.New(model, scanner, logger,
					generate.WithMinTranscriptChars(cfg.Limits.MinTranscriptChars),
					generate.WithMaxTranscriptChars(cfg.Limits.MaxTranscriptChars),
				),
				Submitter:      questionnaire.New(st, logger),
				Transcriber:    transcriber,
				Ideas:          st,
				Limiter:        limiter,
				Questionnaires: st,
				AuthToken:      cfg.Auth.Token,
				AdminToken:     cfg.Auth.AdminToken,
				MinAudioBytes:  cfg.Limits.MinAudioBytes,
				MaxAudioBytes:  cfg.Limits.MaxAudioBytes,
			})

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", zap.String("addr", cfg.Server.Addr))
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer shutdownCancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}
}

func newCaptureCmd(configPath *string) *cobra.Command {
	var audioFile string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Turn a voice recording into an idea, interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("capture needs an interactive terminal")
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := observability.NewLogger(cfg.Logging.Level, "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			st, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			model := lazyModel{cfg: anthropic.Config{
				APIKey:    cfg.Anthropic.APIKey,
				Model:     cfg.Anthropic.Model,
				MaxTokens: cfg.Anthropic.MaxTokens,
				Timeout:   parseDuration(cfg.Anthropic.Timeout, 60*time.Second),
				Logger:    logger,
			}}
			transcriber := lazyTranscriber{cfg: transcribe.Config{
				APIKey:  cfg.Transcription.APIKey,
				Model:   cfg.Transcription.Model,
				Timeout: parseDuration(cfg.Transcription.Timeout, 120*time.Second),
				Logger:  logger,
			}}

			drafter := generate.New(model, sanitize.NewScanner(logger), logger,
				generate.WithMinTranscriptChars(cfg.Limits.MinTranscriptChars),
				generate.WithMaxTranscriptChars(cfg.Limits.MaxTranscriptChars),
			)

			machine := capture.NewMachine(
				record.NewFileRecorder(audioFile),
				transcriber,
				drafter,
				st,
				logger,
				capture.WithMaxRecordDuration(time.Duration(cfg.Limits.MaxRecordSeconds)*time.Second),
				capture.WithMinAudioBytes(int(cfg.Limits.MinAudioBytes)),
			)

			return runCaptureFlow(cmd, machine)
		},
	}
	cmd.Flags().StringVar(&audioFile, "file", "", "pre-recorded audio file to process")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// runCaptureFlow drives the machine through one capture and leaves the
// accept/discard decision to the user.
func runCaptureFlow(cmd *cobra.Command, machine *capture.Machine) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := machine.Start(ctx); err != nil {
		return err
	}
	if err := machine.StopRecording(); err != nil {
		return err
	}

	fmt.Fprintln(out, "processing...")
	for {
		switch state := machine.State().(type) {
		case capture.Review:
			fmt.Fprintf(out, "\nTitle: %s\n%s\n\nAccept? [y/N] ", state.Draft.Title, state.Draft.Description)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if answer == "y\n" || answer == "Y\n" {
				id, err := machine.Accept(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "saved idea %s\n", id)
				return nil
			}
			fmt.Fprintln(out, "discarded")
			return machine.Discard()
		case capture.Failed:
			machine.Reset()
			return fmt.Errorf("%s", state.Reason)
		case capture.PermissionDenied:
			machine.Reset()
			return fmt.Errorf("%s", state.Reason)
		default:
			time.Sleep(100 * time.Millisecond)
		}
	}
}
