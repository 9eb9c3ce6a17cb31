// Package command implements the static command registry, the
// shortest-unique-prefix resolution table, and the dispatcher that validates
// argument arity before invoking a handler.
package command

import (
	"fmt"
	"sort"
	"strings"
)

// ExitAliases are the commands that terminate the shell. They take part in
// prefix resolution like every registered command ("q" expands to "quit").
var ExitAliases = []string{"quit", "exit", "bye"}

// Table maps command abbreviations to exact command names.
//
// An abbreviation is recorded for every prefix of a name that no other name
// shares; the exact name always maps to itself. Prefixes shared by several
// names are recorded in an ambiguity map instead, listing each candidate by
// its shortest unique abbreviation (rendered "[pre]fix") so lookups of an
// ambiguous token can report what it might have meant.
type Table struct {
	aliases   map[string]string
	ambiguous map[string][]string
}

// BuildTable constructs the alias and ambiguity maps for the given command
// names plus the exit aliases. The fixed "?" alias for help is merged in.
func BuildTable(names []string) *Table {
	all := make([]string, len(names))
	copy(all, names)
	sort.Strings(all)
	all = append(all, ExitAliases...)

	isUnique := func(p string) bool {
		n := 0
		for _, name := range all {
			if strings.HasPrefix(name, p) {
				n++
			}
		}
		return n == 1
	}

	t := &Table{
		aliases:   make(map[string]string),
		ambiguous: make(map[string][]string),
	}

	for _, name := range all {
		// Walk prefixes longest-first. The full name always aliases to
		// itself; shorter prefixes alias only while they stay unique.
		// Once a prefix turns ambiguous, every shorter one is too, and
		// each collects this name's shortest unique abbreviation.
		label := abbreviate(name, name)
		t.aliases[name] = name
		for i := len(name) - 1; i >= 1; i-- {
			p := name[:i]
			if isUnique(p) {
				t.aliases[p] = name
				label = abbreviate(p, name)
				continue
			}
			t.ambiguous[p] = append(t.ambiguous[p], label)
		}
	}

	t.aliases["?"] = "help"
	return t
}

// abbreviate renders a name with its unique prefix bracketed, e.g. "[dow]nload".
func abbreviate(prefix, name string) string {
	return fmt.Sprintf("[%s]%s", prefix, name[len(prefix):])
}

// Resolve returns the exact command name a token abbreviates, or false if the
// token is not a recorded unique prefix.
func (t *Table) Resolve(token string) (string, bool) {
	name, ok := t.aliases[token]
	return name, ok
}

// Expand returns the exact name for a token, or the token itself when it does
// not resolve. This mirrors how the shell matches exit aliases.
func (t *Table) Expand(token string) string {
	if name, ok := t.aliases[token]; ok {
		return name
	}
	return token
}

// Candidates returns the abbreviation labels a shared prefix could have
// meant, in registration (sorted name) order.
func (t *Table) Candidates(token string) ([]string, bool) {
	c, ok := t.ambiguous[token]
	return c, ok
}
