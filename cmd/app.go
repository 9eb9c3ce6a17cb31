// Package cmd implements the podsh command line: one-shot command execution
// and the interactive shell.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"podsh/internal/command"
	"podsh/internal/config"
	"podsh/internal/feed"
	"podsh/internal/gate"
	"podsh/internal/logging"
	"podsh/internal/model"
	"podsh/internal/mygpo"
	"podsh/internal/task"
	"podsh/internal/ui"
)

// App holds the application state shared by every command handler.
type App struct {
	cfg        *config.Config
	store      *model.Store
	console    *ui.Console
	registry   *command.Registry
	dispatcher *command.Dispatcher
	fetcher    *feed.Fetcher
	runner     *task.Runner
	gate       *gate.Gate
	directory  *mygpo.Client

	verbose  bool
	oneShot  bool
	exitCode int
}

// NewApp creates an App; Init wires it up.
func NewApp() *App {
	return &App{}
}

// Init loads the configuration, opens the subscription database, and wires
// the console, command registry, and dispatcher.
func (app *App) Init() error {
	cfg, err := config.Load(filepath.Join(config.ConfigDir(), config.ConfigFileName))
	if err != nil {
		return err
	}
	app.cfg = cfg

	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return err
	}
	store, err := model.Open(filepath.Join(config.DataDir(), "podsh.db"))
	if err != nil {
		return err
	}
	app.store = store

	stdinTTY := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	stdoutTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	width := ui.DefaultWidth
	if stdoutTTY {
		width, _ = ui.TerminalSize()
	}
	app.console = ui.NewConsole(ui.Options{
		Colors:      cfg.UI.Colors && stdoutTTY,
		Interactive: stdinTTY && stdoutTTY,
		Width:       width,
	})

	app.fetcher = feed.NewFetcher()
	app.directory = mygpo.New(cfg)
	app.runner = task.NewRunner(app.console)
	app.gate = gate.NewGate(app.console, app.directory)

	app.registry = command.NewRegistry()
	app.registerCommands()
	app.dispatcher = command.NewDispatcher(app.registry, app.console)
	return nil
}

// Shutdown commits the subscription database and flushes queued status
// uploads. Both are best-effort on the way out.
func (app *App) Shutdown() {
	if app.directory != nil {
		if err := app.directory.Flush(); err != nil {
			logging.Warn("status flush on shutdown failed", logging.Fields{"error": err.Error()})
		}
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			logging.Error("closing database failed", err)
			app.console.Errorf("Could not save subscriptions: %v", err)
		}
	}
}

// commit persists the working set now, surfacing failures to the user. Batch
// handlers call it once after their mutations, never mid-batch.
func (app *App) commit() bool {
	if err := app.store.Commit(); err != nil {
		logging.Error("commit failed", err)
		app.console.Errorf("Could not save subscriptions: %v", err)
		return false
	}
	return true
}

// podcasts returns the working set or reports the error.
func (app *App) podcasts() ([]*model.Podcast, bool) {
	podcasts, err := app.store.Podcasts()
	if err != nil {
		logging.Error("loading subscriptions failed", err)
		app.console.Errorf("Could not load subscriptions: %v", err)
		return nil, false
	}
	return podcasts, true
}

// podcastByURL resolves a user-supplied podcast URL against the
// subscriptions, reporting the standard diagnostic when it does not match.
func (app *App) podcastByURL(raw string) (*model.Podcast, bool) {
	url := model.NormalizeFeedURL(raw)
	if url == "" {
		app.console.Errorf("The URL %s is invalid.", raw)
		return nil, false
	}
	p, err := app.store.PodcastByURL(url)
	if err != nil {
		logging.Error("loading subscriptions failed", err)
		app.console.Errorf("Could not load subscriptions: %v", err)
		return nil, false
	}
	if p == nil {
		app.console.Errorf("You are not subscribed to %s.", raw)
		return nil, false
	}
	return p, true
}

// registerCommands declares every command with its argument arity. The
// dispatcher rejects calls outside these bounds before the handler runs.
func (app *App) registerCommands() {
	for _, cmd := range []*command.Command{
		{Name: "subscribe", Run: app.cmdSubscribe, MinArgs: 1, MaxArgs: 2},
		{Name: "unsubscribe", Run: app.cmdUnsubscribe, MinArgs: 1, MaxArgs: 1, PodcastURL: true},
		{Name: "search", Run: app.cmdSearch, MinArgs: 1, Variadic: true},
		{Name: "toplist", Run: app.cmdToplist},
		{Name: "import", Run: app.cmdImport, MinArgs: 1, MaxArgs: 1},
		{Name: "export", Run: app.cmdExport, MinArgs: 1, MaxArgs: 1},
		{Name: "rename", Run: app.cmdRename, MinArgs: 2, MaxArgs: 2, PodcastURL: true},
		{Name: "enable", Run: app.cmdEnable, MinArgs: 1, MaxArgs: 1, PodcastURL: true},
		{Name: "disable", Run: app.cmdDisable, MinArgs: 1, MaxArgs: 1, PodcastURL: true},
		{Name: "info", Run: app.cmdInfo, MinArgs: 1, MaxArgs: 1, PodcastURL: true},
		{Name: "list", Run: app.cmdList},
		{Name: "update", Run: app.cmdUpdate, MaxArgs: 1, PodcastURL: true},
		{Name: "pending", Run: app.cmdPending, MaxArgs: 1, PodcastURL: true},
		{Name: "episodes", Run: app.cmdEpisodes, MaxArgs: 2, PodcastURL: true},
		{Name: "download", Run: app.cmdDownload, MaxArgs: 2, PodcastURL: true},
		{Name: "delete", Run: app.cmdDelete, MinArgs: 2, MaxArgs: 2, PodcastURL: true},
		{Name: "partial", Run: app.cmdPartial, MaxArgs: 2, PodcastURL: true},
		{Name: "resume", Run: app.cmdResume, MaxArgs: 1},
		{Name: "sync", Run: app.cmdSync},
		{Name: "set", Run: app.cmdSet, MaxArgs: 2},
		{Name: "rewrite", Run: app.cmdRewrite, MinArgs: 2, MaxArgs: 2, PodcastURL: true},
		{Name: "help", Run: app.cmdHelp},
	} {
		app.registry.Register(cmd)
	}
}
