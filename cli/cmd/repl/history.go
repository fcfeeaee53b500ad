package repl

import (
	"bufio"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// HistoryEntry is a single input line and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// History is the input history of the REPL, persisted one entry per line.
//
// Lines are stored quoted so that the leading indentation of block bodies
// survives a round trip through the file.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns a history backed by the file at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with those read from the history file. A missing
// file yields an empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if entry, ok := decodeEntry(scanner.Text()); ok {
			h.entries = append(h.entries, entry)
		}
	}

	return scanner.Err()
}

// Write appends line to the history. Blank lines and repeats of the previous
// entry are dropped. An older duplicate is moved to the end.
func (h *History) Write(line string, mode inputMode) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	entry := HistoryEntry{Line: line, Mode: mode}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}

	if i := slices.Index(h.entries, entry); i >= 0 {
		h.entries = append(slices.Delete(h.entries, i, i+1), entry)

		return h.rewrite()
	}

	h.entries = append(h.entries, entry)

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(encodeEntry(entry) + "\n")

	return err
}

// Entry returns the entry at index i. Index 0 is the oldest entry.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all entries.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// rewrite writes every entry to the history file. h.mu must be held.
func (h *History) rewrite() error {
	var b strings.Builder

	for _, entry := range h.entries {
		b.WriteString(encodeEntry(entry))
		b.WriteByte('\n')
	}

	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}

// encodeEntry formats entry as a mode prefix (E: for eval, C: for commands)
// followed by the quoted line.
func encodeEntry(entry HistoryEntry) string {
	prefix := "E:"
	if entry.Mode == modeCtrl {
		prefix = "C:"
	}

	return prefix + strconv.Quote(entry.Line)
}

func decodeEntry(text string) (HistoryEntry, bool) {
	var entry HistoryEntry

	switch {
	case strings.HasPrefix(text, "E:"):
		entry.Mode = modeEval
	case strings.HasPrefix(text, "C:"):
		entry.Mode = modeCtrl
	default:
		return entry, false
	}

	line, err := strconv.Unquote(text[2:])
	if err != nil || strings.TrimSpace(line) == "" {
		return entry, false
	}

	entry.Line = line

	return entry, true
}
