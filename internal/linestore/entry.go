// Package linestore reads and rewrites the recording targets file.
//
// The file holds one entry per line in the form
//
//	[#]target[, note]
//
// A leading # disables the entry without removing it. Entries are addressed
// by their 1-based line position, which shifts whenever a line is removed.
package linestore

import "strings"

// Entry is one decoded line of the targets file.
type Entry struct {
	// Position is the 1-based line number. Not stable across removals.
	Position int `json:"position"`

	// Commented is true when the trimmed line starts with '#'.
	Commented bool `json:"commented"`

	// Target is the URL part before the first comma.
	Target string `json:"target"`

	// Note is the trimmed text after the first comma, or "".
	Note string `json:"note"`
}

// Stats summarizes the entries in the file.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Commented int `json:"commented"`
}

// Decode parses a raw line into an Entry at the given position.
func Decode(position int, line string) Entry {
	s := strings.TrimSpace(line)
	commented := strings.HasPrefix(s, "#")
	if commented {
		s = strings.TrimSpace(s[1:])
	}
	target, note, _ := strings.Cut(s, ",")
	return Entry{
		Position:  position,
		Commented: commented,
		Target:    strings.TrimSpace(target),
		Note:      strings.TrimSpace(note),
	}
}

// Encode renders target and note as a raw line. The note and its separator
// are omitted when note is empty.
func Encode(target, note string, commented bool) string {
	var b strings.Builder
	if commented {
		b.WriteByte('#')
	}
	b.WriteString(target)
	if note != "" {
		b.WriteString(", ")
		b.WriteString(note)
	}
	return b.String()
}

// Line returns the entry's canonical raw form.
func (e Entry) Line() string {
	return Encode(e.Target, e.Note, e.Commented)
}

// Matches reports whether query is a case-insensitive substring of the
// entry's target or note.
func (e Entry) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(e.Target), q) ||
		strings.Contains(strings.ToLower(e.Note), q)
}

// Filter returns the entries matching query. An empty query matches all.
func Filter(entries []Entry, query string) []Entry {
	if query == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	return out
}

// uncomment removes the first '#' if it is the first non-blank character,
// keeping any whitespace in front of it.
func uncomment(line string) string {
	i := len(line) - len(strings.TrimLeft(line, " \t"))
	if i < len(line) && line[i] == '#' {
		return line[:i] + line[i+1:]
	}
	return line
}

// setCommented returns line with exactly one leading '#' when commented is
// true and none when false.
func setCommented(line string, commented bool) string {
	line = uncomment(line)
	if commented {
		return "#" + line
	}
	return line
}

// rewriteLine builds the replacement for a modified line. The previous
// comment state is discarded, so a modified entry always comes back enabled.
func rewriteLine(_ Entry, target, note string) string {
	return Encode(target, note, false)
}
