package command

import (
	"fmt"
	"sort"
)

// Handler runs a command with its positional arguments and reports whether
// the command succeeded. Side effects (printing, state mutation, store
// commits) are entirely the handler's business.
type Handler func(args []string) bool

// Command is an immutable registry entry: a name, the handler, and the
// declared argument arity. Commands are registered once at startup; there is
// no runtime introspection of handler signatures.
type Command struct {
	Name string
	Run  Handler

	// MinArgs and MaxArgs bound the positional argument count. MaxArgs is
	// ignored when Variadic is set (the handler accepts a variable tail).
	MinArgs  int
	MaxArgs  int
	Variadic bool

	// PodcastURL marks commands whose first argument is a podcast URL.
	// Tab completion and help formatting read this.
	PodcastURL bool
}

// Registry is the static set of registered commands.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command. Registering a duplicate or nil-handler command is
// a programming error and panics at startup.
func (r *Registry) Register(cmd *Command) {
	if cmd.Name == "" || cmd.Run == nil {
		panic(fmt.Sprintf("command: invalid registration %+v", cmd))
	}
	if _, exists := r.commands[cmd.Name]; exists {
		panic(fmt.Sprintf("command: duplicate registration of %q", cmd.Name))
	}
	r.commands[cmd.Name] = cmd
}

// Get returns the command registered under the exact name.
func (r *Registry) Get(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table builds the prefix-resolution table for the registered names plus the
// exit aliases.
func (r *Registry) Table() *Table {
	return BuildTable(r.Names())
}
