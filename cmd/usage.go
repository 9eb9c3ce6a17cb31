package cmd

import (
	"fmt"
	"strings"
)

// synopsis and oneliner per command, shown by help and the usage text. The
// argument names here are documentation only; the registry holds the
// authoritative arity.
var commandUsage = map[string][2]string{
	"subscribe":   {"subscribe URL [TITLE]", "Subscribe to a podcast feed"},
	"unsubscribe": {"unsubscribe URL", "Remove a subscription"},
	"search":      {"search QUERY...", "Search the podcast directory"},
	"toplist":     {"toplist", "Show the most-subscribed podcasts"},
	"import":      {"import FILE_OR_URL", "Subscribe to all feeds of an OPML file"},
	"export":      {"export FILE", "Write the subscriptions as OPML"},
	"rename":      {"rename URL TITLE", "Change a podcast's title"},
	"enable":      {"enable URL", "Resume updating a subscription"},
	"disable":     {"disable URL", "Stop updating a subscription"},
	"info":        {"info URL", "Show details of a subscription"},
	"list":        {"list", "List all subscriptions"},
	"update":      {"update [URL]", "Check feeds for new episodes"},
	"pending":     {"pending [URL]", "List new episodes"},
	"episodes":    {"episodes [--guid] [URL]", "List all episodes and their state"},
	"download":    {"download [URL [GUID]]", "Download new episodes"},
	"delete":      {"delete URL GUID", "Delete a downloaded episode"},
	"partial":     {"partial [--guid] [URL]", "List incomplete downloads"},
	"resume":      {"resume [GUID]", "Restart incomplete downloads"},
	"sync":        {"sync", "Copy downloads to the device folder"},
	"set":         {"set [KEY [VALUE]]", "Show or change configuration"},
	"rewrite":     {"rewrite OLDURL NEWURL", "Change a subscription's feed URL"},
	"help":        {"help", "Show this list"},
}

// usage renders the command list. In the shell, commands may be abbreviated
// to any unique prefix.
func (app *App) usage() string {
	var sb strings.Builder
	sb.WriteString("Usage: podsh [--verbose] [COMMAND [ARGS...]]\n\n")
	sb.WriteString("Commands:\n")
	for _, name := range app.registry.Names() {
		u, ok := commandUsage[name]
		if !ok {
			u = [2]string{name, ""}
		}
		fmt.Fprintf(&sb, "  %-24s %s\n", u[0], u[1])
	}
	sb.WriteString("\nWithout a command, podsh starts an interactive shell.\n")
	sb.WriteString("Shell commands may be abbreviated to any unique prefix.\n")
	return sb.String()
}
