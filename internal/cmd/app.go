package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/config"
	"github.com/harrison/attune/internal/display"
	"github.com/harrison/attune/internal/logger"
	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/questionnaire"
	"github.com/harrison/attune/internal/scoring"
	"github.com/harrison/attune/internal/session"
)

// app is the resolved environment a command runs in.
type app struct {
	home     string
	cfg      *config.Config
	q        *questionnaire.Questionnaire
	log      *logger.ConsoleLogger
	out      io.Writer
	colorize bool
}

// newApp resolves home and configuration (file, environment, flags) and
// loads the questionnaire.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	home, err := resolveHome(opts.home)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(home)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	cfg.MergeWithFlags(
		nil,
		changed(flags.Changed("db-driver"), opts.dbDriver),
		changed(flags.Changed("db-url"), opts.dbURL),
		changed(flags.Changed("log-level"), opts.logLevel),
		changed(flags.Changed("questionnaire"), opts.questionnaire),
	)
	cfg.ResolvePaths(home)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	q, err := questionnaire.Resolve(cfg.Questionnaire)
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	return &app{
		home:     home,
		cfg:      cfg,
		q:        q,
		log:      logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
		out:      out,
		colorize: !opts.noColor && display.ShouldColor(out),
	}, nil
}

func resolveHome(flagValue string) (string, error) {
	if flagValue == "" {
		return config.GetAttuneHome()
	}
	if err := os.MkdirAll(flagValue, 0755); err != nil {
		return "", fmt.Errorf("create attune home directory: %w", err)
	}
	return flagValue, nil
}

func changed(isSet bool, v string) *string {
	if !isSet {
		return nil
	}
	return &v
}

func (a *app) engine() *scoring.Engine {
	return scoring.NewEngine(a.q)
}

// openService opens the configured store. The returned close func must be
// called when the command finishes.
func (a *app) openService(ctx context.Context, l logger.Logger) (*session.Service, func(), error) {
	store, err := session.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	if l == nil {
		l = a.log
	}
	svc := session.NewService(store, a.engine(), session.WithLogger(l))
	return svc, func() { store.Close() }, nil
}

// warnUnusedSettings shows advisories about definition fields that do not
// affect scoring.
func (a *app) warnUnusedSettings(w io.Writer, q *questionnaire.Questionnaire) {
	if v := q.Thresholds().DefensiveResponding; v != nil {
		display.UnusedDefensiveThreshold(q.Name(), *v).Display(w, a.colorize)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readResponses decodes a JSON object of question id to rating from path, or
// from stdin when path is "-".
func readResponses(cmd *cobra.Command, path string) (models.Responses, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}

	var responses models.Responses
	if err := json.Unmarshal(data, &responses); err != nil {
		return nil, fmt.Errorf("parse responses %s: %w", path, err)
	}
	return responses, nil
}
