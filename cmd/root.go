package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"podsh/internal/logging"
)

// Execute runs the root command and exits with the command's status: 0 on
// success, 1 on a failed one-shot command, 2 when invoked without a command
// on a non-terminal stdin.
func Execute() {
	app := NewApp()

	rootCmd := &cobra.Command{
		Use:   "podsh [command [argument...]]",
		Short: "A command-line podcast client",
		Long: `podsh is a command-line podcast client: subscribe to feeds, fetch
new episodes, download and delete them, and keep a device folder in sync.

Given a command it runs once and exits; started from a terminal without
arguments it opens an interactive shell where commands can be abbreviated
to any unique prefix ("dow" for download).`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			app.run(cmd, args)
		},
	}

	rootCmd.Flags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().SetInterspersed(false)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(app.exitCode)
}

func (app *App) run(cmd *cobra.Command, args []string) {
	logging.SetVerbose(app.verbose)

	if err := app.Init(); err != nil {
		logging.Error("startup failed", err)
		os.Stderr.WriteString("podsh: " + err.Error() + "\n")
		app.exitCode = 1
		return
	}
	defer app.Shutdown()

	// Downloads past their expiry are removed before any command runs, in
	// one-shot and shell mode alike.
	app.cleanupExpired()

	// One-shot mode: the arguments are one command line.
	if len(args) > 0 {
		app.oneShot = true
		if !app.dispatcher.Dispatch(args) {
			app.exitCode = 1
		}
		return
	}

	// No command: a terminal gets the shell, anything else the usage text.
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		app.runShell()
		return
	}

	os.Stderr.WriteString(app.usage())
	app.exitCode = 2
}
