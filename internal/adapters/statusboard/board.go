// Package statusboard maintains the markdown dashboard. The board is a
// best-effort, display-only projection of outcomes; the action ledger
// stays authoritative.
package statusboard

import (
	"fmt"
	"os"
	"regexp"
	"time"
)

var (
	tableHeaderRe = regexp.MustCompile(`(\| Date \| Post Topic \| Status \| Likes \| Comments \|\r?\n\|[-| ]+\|)\r?\n`)
	lastUpdatedRe = regexp.MustCompile(`- \*\*Last Updated:\*\* .*`)
	systemStateRe = regexp.MustCompile(`- \*\*System:\*\* .*`)
)

// Board implements ports.StatusBoard over a single markdown document.
type Board struct {
	path string
}

// New returns a Board for the given document path. The document is not
// created: a missing board makes every update a no-op.
func New(path string) *Board {
	return &Board{path: path}
}

// AppendRow inserts one activity row directly beneath the table header
// and refreshes the last-updated marker. postURN is accepted for the
// contract's sake; the activity table has no column for it.
func (b *Board) AppendRow(topic, status, postURN string) error {
	return b.rewrite(func(text string) string {
		now := time.Now().Format("2006-01-02 15:04")
		row := fmt.Sprintf("| %s | %s | %s | — | — |", now, truncate(topic, 40), status)
		text = tableHeaderRe.ReplaceAllString(text, "${1}\n"+row+"\n")
		return lastUpdatedRe.ReplaceAllString(text, "- **Last Updated:** "+now)
	})
}

// SetSystemState rewrites the system state and last-updated markers.
func (b *Board) SetSystemState(state string) error {
	return b.rewrite(func(text string) string {
		now := time.Now().Format("2006-01-02 15:04")
		text = systemStateRe.ReplaceAllString(text, "- **System:** "+state)
		return lastUpdatedRe.ReplaceAllString(text, "- **Last Updated:** "+now)
	})
}

func (b *Board) rewrite(transform func(string) string) error {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read status board: %w", err)
	}
	updated := transform(string(data))
	if updated == string(data) {
		return nil
	}
	if err := os.WriteFile(b.path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to write status board: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
