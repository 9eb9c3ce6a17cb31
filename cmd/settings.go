package cmd

import (
	"errors"

	"podsh/internal/config"
)

// cmdSet shows or changes configuration values by dotted key. Without
// arguments every key is listed; with a key its value is printed; with a key
// and value the option is changed and persisted.
func (app *App) cmdSet(args []string) bool {
	switch len(args) {
	case 0:
		for _, key := range app.cfg.AllKeys() {
			value, err := app.cfg.Get(key)
			if err != nil {
				continue
			}
			app.console.Infof("%s = %s", key, value)
		}
		return true
	case 1:
		value, err := app.cfg.Get(args[0])
		if err != nil {
			app.console.Errorf("%s", configError(err))
			return false
		}
		app.console.Infof("%s = %s", args[0], value)
		return true
	default:
		if err := app.cfg.Set(args[0], args[1]); err != nil {
			app.console.Errorf("%s", configError(err))
			return false
		}
		value, _ := app.cfg.Get(args[0])
		app.console.Infof("%s = %s", args[0], value)
		return true
	}
}

func configError(err error) string {
	switch {
	case errors.Is(err, config.ErrUnknownKey):
		return "This configuration option does not exist."
	case errors.Is(err, config.ErrNotLeaf):
		return "Can only set leaf configuration nodes."
	default:
		return err.Error()
	}
}

func (app *App) cmdHelp(args []string) bool {
	app.console.Pager(app.usage())
	return true
}
