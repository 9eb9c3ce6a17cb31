package cmd

import (
	"fmt"

	"github.com/elk-language/go-prompt"
	"github.com/google/shlex"

	"podsh/internal/command"
)

// shellSession holds the state of one interactive shell run.
type shellSession struct {
	app      *App
	exitFlag bool
}

var exitCommands = func() map[string]bool {
	m := make(map[string]bool, len(command.ExitAliases))
	for _, name := range command.ExitAliases {
		m[name] = true
	}
	return m
}()

// runShell starts the interactive shell: a prompt loop where each line is
// tokenized and dispatched, with tab completion and prefix abbreviation.
func (app *App) runShell() {
	app.console.Infof("Welcome to podsh. Type 'help' for a list of commands; commands")
	app.console.Infof("may be abbreviated to any unique prefix. Ctrl+D or 'quit' exits.")

	session := &shellSession{app: app}

	p := prompt.New(
		session.execute,
		prompt.WithCompleter(session.completer),
		prompt.WithPrefix("podsh> "),
		prompt.WithTitle("podsh"),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return session.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			// A stray interrupt abandons the current line, not the shell.
			Fn: func(p *prompt.Prompt) bool {
				fmt.Println()
				return false
			},
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					fmt.Println("Goodbye.")
					session.exitFlag = true
				}
				return false
			},
		}),
	)

	p.Run()
}

// execute handles one shell line: tokenize, check for an exit command, and
// hand the rest to the dispatcher.
func (s *shellSession) execute(input string) {
	if s.exitFlag {
		return
	}

	tokens, err := shlex.Split(input)
	if err != nil {
		s.app.console.Errorf("Syntax error: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if exitCommands[s.app.dispatcher.Table().Expand(tokens[0])] {
		fmt.Println("Goodbye.")
		s.exitFlag = true
		return
	}

	s.app.dispatcher.Dispatch(tokens)
}
