package game

import (
	"strings"
)

// ChatFilter masks denylisted words before a message is stored or
// broadcast. Matching is case-insensitive on whole words.
type ChatFilter struct {
	denylist map[string]struct{}
}

var defaultDenylist = []string{
	"noob", "idiot", "stupid", "trash", "loser", "cheater",
}

func NewChatFilter(words []string) *ChatFilter {
	if len(words) == 0 {
		words = defaultDenylist
	}
	denylist := make(map[string]struct{}, len(words))
	for _, w := range words {
		denylist[strings.ToLower(w)] = struct{}{}
	}
	return &ChatFilter{denylist: denylist}
}

// Clean replaces each denylisted word with asterisks of equal length.
func (f *ChatFilter) Clean(text string) string {
	fields := strings.Fields(text)
	changed := false

	for i, field := range fields {
		stripped := strings.ToLower(strings.Trim(field, ".,!?;:\"'"))
		if _, blocked := f.denylist[stripped]; blocked {
			fields[i] = strings.Repeat("*", len(field))
			changed = true
		}
	}

	if !changed {
		return text
	}
	return strings.Join(fields, " ")
}
