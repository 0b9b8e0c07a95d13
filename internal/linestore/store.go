package linestore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ErrNotFound is returned when a position or target does not address a line.
var ErrNotFound = errors.New("entry not found")

// ErrInvalidEntry is returned when a target or note would not fit on one line.
var ErrInvalidEntry = errors.New("target and note must not contain line breaks")

// Store manages the targets file at a fixed path.
//
// Every call reads the file from disk and every mutation writes the whole
// file back. Mutations are serialized within this process only; another
// process editing the same file can still lose updates, and writes are not
// atomic.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a Store backed by the file at path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// List returns all entries in file order. A missing or unreadable file
// yields no entries.
func (s *Store) List() []Entry {
	lines, err := s.readLines()
	if err != nil {
		s.logger.Warn("entries file unreadable, treating as empty", "path", s.path, "error", err)
	}
	return decodeAll(lines)
}

// Stats counts active and commented entries.
func (s *Store) Stats() Stats {
	var st Stats
	for _, e := range s.List() {
		st.Total++
		if e.Commented {
			st.Commented++
		} else {
			st.Active++
		}
	}
	return st
}

// Toggle sets the commented state of the line at position.
func (s *Store) Toggle(position int, commented bool) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return Entry{}, err
	}
	i, ok := index(lines, position)
	if !ok {
		return Entry{}, ErrNotFound
	}
	lines[i] = setCommented(lines[i], commented)
	if err := s.writeLines(lines); err != nil {
		return Entry{}, err
	}
	return Decode(position, lines[i]), nil
}

// ToggleTarget sets the commented state of the first entry whose target
// equals target.
func (s *Store) ToggleTarget(target string, commented bool) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target = strings.TrimSpace(target)
	lines, err := s.readLines()
	if err != nil {
		return Entry{}, err
	}
	for i, line := range lines {
		if Decode(i+1, line).Target != target {
			continue
		}
		lines[i] = setCommented(line, commented)
		if err := s.writeLines(lines); err != nil {
			return Entry{}, err
		}
		return Decode(i+1, lines[i]), nil
	}
	return Entry{}, ErrNotFound
}

// Add appends a new enabled entry and returns it.
func (s *Store) Add(target, note string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkLine(target, note); err != nil {
		return Entry{}, err
	}
	lines, err := s.readLines()
	if err != nil {
		return Entry{}, err
	}
	lines = append(lines, Encode(strings.TrimSpace(target), strings.TrimSpace(note), false))
	if err := s.writeLines(lines); err != nil {
		return Entry{}, err
	}
	return Decode(len(lines), lines[len(lines)-1]), nil
}

// Remove deletes the line at position. Later entries move up by one.
func (s *Store) Remove(position int) error {
	_, err := s.RemoveEntry(position)
	return err
}

// RemoveEntry is Remove, returning the entry as it was just before removal.
func (s *Store) RemoveEntry(position int) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return Entry{}, err
	}
	i, ok := index(lines, position)
	if !ok {
		return Entry{}, ErrNotFound
	}
	removed := Decode(position, lines[i])
	lines = append(lines[:i], lines[i+1:]...)
	if err := s.writeLines(lines); err != nil {
		return Entry{}, err
	}
	return removed, nil
}

// Modify replaces the line at position with target and note. The result is
// always an enabled entry, whatever the line's previous state.
func (s *Store) Modify(position int, target, note string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkLine(target, note); err != nil {
		return Entry{}, err
	}
	lines, err := s.readLines()
	if err != nil {
		return Entry{}, err
	}
	i, ok := index(lines, position)
	if !ok {
		return Entry{}, ErrNotFound
	}
	lines[i] = rewriteLine(Decode(position, lines[i]), strings.TrimSpace(target), strings.TrimSpace(note))
	if err := s.writeLines(lines); err != nil {
		return Entry{}, err
	}
	return Decode(position, lines[i]), nil
}

// readLines loads the file. A missing file has no lines; any other read
// failure is returned so a mutation never rewrites a file it could not read.
func (s *Store) readLines() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read entries file: %w", err)
	}
	return splitLines(string(data)), nil
}

func (s *Store) writeLines(lines []string) error {
	if err := os.WriteFile(s.path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("write entries file: %w", err)
	}
	return nil
}

// splitLines trims the content and splits it on newlines. Blank content has
// no lines.
func splitLines(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// checkLine rejects line breaks that would survive trimming.
func checkLine(target, note string) error {
	if strings.ContainsAny(strings.TrimSpace(target), "\r\n") || strings.ContainsAny(strings.TrimSpace(note), "\r\n") {
		return ErrInvalidEntry
	}
	return nil
}

func decodeAll(lines []string) []Entry {
	entries := make([]Entry, len(lines))
	for i, line := range lines {
		entries[i] = Decode(i+1, line)
	}
	return entries
}

func index(lines []string, position int) (int, bool) {
	if position < 1 || position > len(lines) {
		return 0, false
	}
	return position - 1, true
}
