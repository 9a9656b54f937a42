package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/storyforge/internal/config"
	"github.com/csheth/storyforge/internal/llm"
	"github.com/csheth/storyforge/internal/logging"
	"github.com/csheth/storyforge/internal/seed"
	"github.com/csheth/storyforge/internal/session"
	"github.com/csheth/storyforge/internal/tui"
)

type options struct {
	configPath  string
	provider    string
	model       string
	endpoint    string
	logLevel    string
	logFile     string
	seedPath    string
	noAltScreen bool
}

// app is everything a command needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client llm.Client
	ctrl   *session.Controller
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "storyforge",
		Short: "Brainstorm, draft and refine stories with an AI co-writer",
		Long: `StoryForge is a terminal writing assistant. Brainstorm premises, turn a
prompt into the next paragraph of your story, and ask for an edit pass over
the whole draft. Gemini, OpenAI, Ollama and an offline canned provider are
supported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.provider, "provider", "", "llm provider: gemini, openai, ollama or offline")
	flags.StringVar(&opts.model, "model", "", "model name for the selected provider")
	flags.StringVar(&opts.endpoint, "endpoint", "", "custom API base URL or Ollama host")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&opts.logFile, "log-file", "", "log destination; - for stderr")
	flags.StringVar(&opts.seedPath, "seed", "", "start from the story in this .txt, .md or .pdf file (- for stdin)")
	root.Flags().BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	root.AddCommand(
		newIdeasCmd(opts),
		newDraftCmd(opts),
		newRefineCmd(opts),
	)
	return root
}

// setup loads config, opens the logger and builds the controller. TUI runs
// log to a file by default because the terminal belongs to the program.
func (o *options) setup(ctx context.Context, stdin io.Reader, interactive bool) (*app, error) {
	cfg, err := config.LoadWithOverrides(o.configPath, config.Overrides{
		Provider: o.provider,
		Model:    o.model,
		BaseURL:  o.endpoint,
		LogLevel: o.logLevel,
		LogFile:  o.logFile,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logFile := cfg.Logging.File
	if logFile == "" && interactive {
		logFile = logging.DefaultFile()
	}
	logger, err := logging.New(cfg.Logging.Level, logFile)
	if err != nil {
		return nil, err
	}

	client, err := llm.New(ctx, cfg.LLMSettings())
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("llm unavailable: %w", err)
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if o.seedPath != "" {
		story, err := loadSeed(o.seedPath, stdin)
		if err != nil {
			_ = logger.Sync()
			return nil, fmt.Errorf("failed to load seed %s: %w", o.seedPath, err)
		}
		sessionOpts = append(sessionOpts, session.WithStory(story))
	}
	ctrl := session.New(client, sessionOpts...)
	logger.Info("session started",
		zap.String("session", ctrl.ID()),
		zap.String("provider", client.Name()),
		zap.Bool("interactive", interactive),
	)
	return &app{cfg: cfg, logger: logger, client: client, ctrl: ctrl}, nil
}

func loadSeed(path string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(path) == "-" {
		return seed.Read(stdin)
	}
	return seed.Load(path)
}

func runTUI(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	a, err := opts.setup(ctx, cmd.InOrStdin(), true)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if a.cfg.UI.AltScreen && !opts.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Controller: a.ctrl,
			Provider:   a.client.Name(),
			Logger:     a.logger,
			Context:    ctx,
		}),
		programOpts...,
	)

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
