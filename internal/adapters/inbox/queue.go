// Package inbox models the vault directories as a single-consumer job
// queue: approved submissions are claimed from the inbox and completed
// by a terminal move to the published or needs-action area.
//
// The notification mechanism (fsnotify create events plus a one-time
// startup scan) stays behind the ports.SubmissionQueue interface, so the
// watcher state machine can be tested against MemoryQueue instead.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"postpilot/internal/core/domain"
	"postpilot/internal/core/ports"
)

// errorPrefix marks failed submissions moved to the needs-action area.
const errorPrefix = "ERROR_"

// Queue implements ports.SubmissionQueue over the vault directories.
// Single-consumer: exactly one watcher claims from it at a time.
type Queue struct {
	inboxDir       string
	publishedDir   string
	needsActionDir string

	watcher *fsnotify.Watcher
	pending chan string
	log     zerolog.Logger

	mu      sync.Mutex
	claimed map[string]bool
}

// Open creates the vault directories, starts watching the inbox for
// create events, and enqueues submissions already present. The startup
// scan runs exactly once, so a file processed and moved out can never
// re-trigger.
func Open(inboxDir, publishedDir, needsActionDir string, log zerolog.Logger) (*Queue, error) {
	for _, dir := range []string{inboxDir, publishedDir, needsActionDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create inbox watcher: %w", err)
	}
	if err := watcher.Add(inboxDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", inboxDir, err)
	}

	q := &Queue{
		inboxDir:       inboxDir,
		publishedDir:   publishedDir,
		needsActionDir: needsActionDir,
		watcher:        watcher,
		pending:        make(chan string, 64),
		log:            log,
		claimed:        make(map[string]bool),
	}

	// Re-enqueue whatever is still pending from a previous run,
	// rate-limited leftovers included.
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to scan inbox: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && isSubmission(e.Name()) {
			q.enqueue(filepath.Join(inboxDir, e.Name()))
		}
	}

	go q.forwardEvents()
	return q, nil
}

// Close stops the filesystem watcher.
func (q *Queue) Close() error {
	return q.watcher.Close()
}

func (q *Queue) forwardEvents() {
	for {
		select {
		case event, ok := <-q.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) && isSubmission(filepath.Base(event.Name)) {
				q.enqueue(event.Name)
			}
		case err, ok := <-q.watcher.Errors:
			if !ok {
				return
			}
			q.log.Warn().Err(err).Msg("inbox watcher error")
		}
	}
}

func (q *Queue) enqueue(path string) {
	select {
	case q.pending <- path:
	default:
		q.log.Warn().Str("file", path).Msg("inbox backlog full, dropping notification")
	}
}

// ClaimNext blocks until a submission is available or ctx is done. Files
// that vanished or were already claimed are skipped.
func (q *Queue) ClaimNext(ctx context.Context) (*ports.Claim, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case path := <-q.pending:
			name := filepath.Base(path)

			q.mu.Lock()
			if q.claimed[name] {
				q.mu.Unlock()
				continue
			}
			q.claimed[name] = true
			q.mu.Unlock()

			content, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				q.release(name)
				continue
			}
			if err != nil {
				q.release(name)
				return nil, fmt.Errorf("failed to read submission %s: %w", name, err)
			}
			return &ports.Claim{ID: uuid.New().String(), Name: name, Content: content}, nil
		}
	}
}

// Complete performs the terminal filesystem transition for a claim.
func (q *Queue) Complete(claim *ports.Claim, state domain.SubmissionStatus, note string) error {
	defer q.release(claim.Name)

	src := filepath.Join(q.inboxDir, claim.Name)
	switch state {
	case domain.StatusPublished:
		dest := filepath.Join(q.publishedDir, claim.Name)
		if err := os.Rename(src, dest); err != nil {
			return fmt.Errorf("failed to move %s to published: %w", claim.Name, err)
		}
		return nil

	case domain.StatusFailed:
		annotated := append([]byte(nil), claim.Content...)
		annotated = append(annotated, []byte("\n\n## Error\n"+note+"\n")...)
		dest := filepath.Join(q.needsActionDir, errorPrefix+claim.Name)
		if err := os.WriteFile(dest, annotated, 0o644); err != nil {
			return fmt.Errorf("failed to write %s to needs-action: %w", claim.Name, err)
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("failed to remove %s from inbox: %w", claim.Name, err)
		}
		return nil

	default:
		return fmt.Errorf("%s is not a terminal state", state)
	}
}

// Release leaves the submission in the inbox. A released file is only
// retried after a restart (the startup scan) or when re-dropped.
func (q *Queue) Release(claim *ports.Claim) error {
	q.release(claim.Name)
	return nil
}

// ArchiveMedia moves a published submission's media file into the
// published area alongside the post file.
func (q *Queue) ArchiveMedia(localPath string) error {
	dest := filepath.Join(q.publishedDir, filepath.Base(localPath))
	if err := os.Rename(localPath, dest); err != nil {
		return fmt.Errorf("failed to archive media %s: %w", localPath, err)
	}
	return nil
}

func (q *Queue) release(name string) {
	q.mu.Lock()
	delete(q.claimed, name)
	q.mu.Unlock()
}

func isSubmission(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, errorPrefix)
}
