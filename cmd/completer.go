package cmd

import (
	"strings"

	"github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"

	"podsh/internal/command"
)

// completer suggests command names for the first word and subscribed podcast
// URLs for the first argument of URL-taking commands.
func (s *shellSession) completer(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	text := d.TextBeforeCursor()
	endIndex := d.CurrentRuneIndex()
	w := d.GetWordBeforeCursor()
	startIndex := endIndex - istrings.RuneCountInString(w)

	words := strings.Fields(text)
	completingFirst := len(words) == 0 || (len(words) == 1 && !strings.HasSuffix(text, " "))

	if completingFirst {
		var suggestions []prompt.Suggest
		for _, name := range s.app.registry.Names() {
			desc := ""
			if u, ok := commandUsage[name]; ok {
				desc = u[1]
			}
			suggestions = append(suggestions, prompt.Suggest{Text: name, Description: desc})
		}
		for _, name := range command.ExitAliases {
			suggestions = append(suggestions, prompt.Suggest{Text: name, Description: "Exit the shell"})
		}
		return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
	}

	// Beyond the command word: complete podcast URLs where the command takes
	// one as its first argument. Substring matching, since URLs are mostly
	// typed from the middle.
	name := s.app.dispatcher.Table().Expand(words[0])
	cmd, ok := s.app.registry.Get(name)
	if !ok || !cmd.PodcastURL {
		return []prompt.Suggest{}, startIndex, endIndex
	}
	completingArg := len(words) == 1 || (len(words) == 2 && !strings.HasSuffix(text, " "))
	if !completingArg {
		return []prompt.Suggest{}, startIndex, endIndex
	}

	podcasts, loaded := s.app.podcasts()
	if !loaded {
		return []prompt.Suggest{}, startIndex, endIndex
	}
	var suggestions []prompt.Suggest
	for _, p := range podcasts {
		suggestions = append(suggestions, prompt.Suggest{Text: p.URL, Description: p.Title})
	}
	return prompt.FilterContains(suggestions, w, true), startIndex, endIndex
}
