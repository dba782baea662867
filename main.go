// aurora - terminal client for the Aurora record service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aurora-tui/internal/api"
	"github.com/jeranaias/aurora-tui/internal/auth"
	"github.com/jeranaias/aurora-tui/internal/cli"
	"github.com/jeranaias/aurora-tui/internal/config"
	"github.com/jeranaias/aurora-tui/internal/credstore"
	"github.com/jeranaias/aurora-tui/internal/idle"
	"github.com/jeranaias/aurora-tui/internal/session"
	"github.com/jeranaias/aurora-tui/internal/ui/app"
	"github.com/jeranaias/aurora-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// storeWatchDebounce coalesces the write+rename pair of an atomic save.
const storeWatchDebounce = 150 * time.Millisecond

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		os.Exit(cli.DisplayError(os.Stderr, err, args.JSON))
	}

	switch cmd {
	case cli.CmdHelp:
		cli.Usage(os.Stdout)
		return
	case cli.CmdVersion:
		if err := cli.HandleVersion(os.Stdout, args); err != nil {
			os.Exit(cli.DisplayError(os.Stderr, err, args.JSON))
		}
		return
	}

	if err := run(cmd, args); err != nil {
		os.Exit(cli.DisplayError(os.Stderr, err, args.JSON))
	}
}

// =============================================================================
// WIRING
// =============================================================================

// services holds everything built from the global config.
type services struct {
	store   credstore.Store
	client  *api.Client
	auth    *auth.Manager
	session *session.Manager
}

// loadConfig installs the config every later step reads through
// config.Global.
func loadConfig(args cli.Args) error {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if args.Ephemeral {
		cfg.Store.Backend = credstore.BackendMemory
	}
	config.SetGlobal(cfg)
	return nil
}

func newServices() (*services, error) {
	cfg := config.Global()
	if cfg.Store.Backend != credstore.BackendMemory {
		if err := config.EnsureConfigDir(); err != nil {
			return nil, err
		}
	}

	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	keyPath, err := cfg.KeyPath()
	if err != nil {
		return nil, err
	}

	store, err := credstore.Open(credstore.Options{
		Backend: cfg.Store.Backend,
		Path:    path,
		Encrypt: cfg.Store.Encrypt,
		KeyPath: keyPath,
	})
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.APITimeout())
	return &services{
		store:  store,
		client: client,
		auth: auth.NewManager(store, client, auth.Options{
			RefreshTimeout:        cfg.RefreshTimeout(),
			ClearOnRefreshFailure: cfg.Session.ClearOnRefreshFailure,
		}),
		session: session.NewManager(store, client),
	}, nil
}

func run(cmd cli.Command, args cli.Args) error {
	if err := loadConfig(args); err != nil {
		return err
	}
	svc, err := newServices()
	if err != nil {
		return err
	}
	defer svc.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := &cli.Env{
		Store:    svc.store,
		Decider:  svc.auth,
		Session:  svc.session,
		Profiles: svc.client.Authorized(svc.store),
	}

	switch cmd {
	case cli.CmdLogin:
		return cli.HandleLogin(ctx, env, args)
	case cli.CmdLogout:
		return cli.HandleLogout(env, args)
	case cli.CmdStatus:
		return cli.HandleStatus(ctx, env, args)
	default:
		return runTUI(ctx, svc, args)
	}
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(ctx context.Context, svc *services, args cli.Args) error {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		return &cli.TTYRequiredError{Operation: "the interactive client"}
	}

	cfg := config.Global()
	lipgloss.SetColorProfile(cli.GetColorProfile())
	if err := styles.ApplyTheme(cfg.UI.Theme); err != nil {
		return err
	}

	// The TUI owns the terminal; event lines go to the log file instead.
	log.SetOutput(io.Discard)
	if cfg.Store.Backend != credstore.BackendMemory {
		if logPath, err := config.LogPath(); err == nil {
			if f, err := tea.LogToFile(logPath, "aurora"); err == nil {
				defer f.Close()
			}
		}
	}

	kinds, err := idle.ParseEvents(cfg.Session.ActivityEvents)
	if err != nil {
		return err
	}
	classifier := idle.NewClassifier(kinds...)

	var changes <-chan struct{}
	if cfg.Store.Backend != credstore.BackendMemory {
		path, _ := cfg.StorePath()
		changes, err = credstore.Watch(ctx, path, storeWatchDebounce)
		if err != nil {
			log.Printf("store watcher disabled: %v", err)
		}
	}

	model := app.New(app.Options{
		Store:        svc.store,
		Decider:      svc.auth,
		Session:      svc.session,
		IdleTimeout:  cfg.IdleTimeout(),
		Classifier:   &classifier,
		StoreChanges: changes,
		Email:        args.Email,
		Context:      ctx,
		Theme:        styles.NewTheme(),
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		if classifier.Enabled(idle.EventMouseMotion) {
			opts = append(opts, tea.WithMouseAllMotion())
		} else {
			opts = append(opts, tea.WithMouseCellMotion())
		}
	}

	_, err = tea.NewProgram(model, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
