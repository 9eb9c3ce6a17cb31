package command

import (
	"fmt"

	"podsh/internal/logging"
)

// Diagnostics receives the dispatcher's user-facing error and hint output.
// *ui.Console satisfies it.
type Diagnostics interface {
	Errorf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Hintf(format string, args ...interface{})
}

// Dispatcher resolves a tokenized command line against the registry and its
// prefix table, checks arity, and invokes the handler.
type Dispatcher struct {
	registry *Registry
	table    *Table
	diag     Diagnostics
}

// NewDispatcher wires a dispatcher to a registry and diagnostics sink. The
// prefix table is built once, here.
func NewDispatcher(registry *Registry, diag Diagnostics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		table:    registry.Table(),
		diag:     diag,
	}
}

// Table exposes the prefix table for the shell (exit-alias matching) and the
// tab completer.
func (d *Dispatcher) Table() *Table {
	return d.table
}

// Dispatch resolves the first token as the command word and runs the command
// with the remaining tokens. It reports false without invoking anything for
// empty input, unknown or ambiguous commands, and arity mismatches.
func (d *Dispatcher) Dispatch(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}

	word := tokens[0]
	name := d.table.Expand(word)

	if cmd, ok := d.registry.Get(name); ok {
		return d.checkAndInvoke(cmd, tokens[1:])
	}

	if candidates, ok := d.table.Candidates(word); ok {
		d.diag.Infof("Ambiguous command. Did you mean..")
		for _, c := range candidates {
			d.diag.Hintf("    %s", c)
		}
	} else {
		d.diag.Errorf("The requested function is not available.")
	}
	return false
}

// checkAndInvoke validates the argument count against the command's declared
// arity and invokes the handler positionally. The handler is never partially
// invoked: on a mismatch the dispatcher only emits a diagnostic.
func (d *Dispatcher) checkAndInvoke(cmd *Command, args []string) (ok bool) {
	n := len(args)
	if n < cmd.MinArgs || (n > cmd.MaxArgs && !cmd.Variadic) {
		d.diag.Errorf("Wrong argument count for %s.", cmd.Name)
		return false
	}

	// A handler that blows up must not take the shell down with it.
	defer func() {
		if r := recover(); r != nil {
			logging.Error("command handler failed", fmt.Errorf("%v", r),
				logging.Fields{"command": cmd.Name})
			d.diag.Errorf("Command %s failed: %v", cmd.Name, r)
			ok = false
		}
	}()

	return cmd.Run(args)
}
