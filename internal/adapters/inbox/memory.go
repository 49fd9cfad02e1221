package inbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"postpilot/internal/core/domain"
	"postpilot/internal/core/ports"
)

// MemoryQueue is an in-process ports.SubmissionQueue used by tests. It
// records terminal transitions instead of moving files.
type MemoryQueue struct {
	pending chan *ports.Claim

	mu       sync.Mutex
	statuses map[string]domain.SubmissionStatus
	notes    map[string]string
	released []string
	archived []string
}

// NewMemoryQueue returns an empty queue with room for buffer pending
// submissions.
func NewMemoryQueue(buffer int) *MemoryQueue {
	return &MemoryQueue{
		pending:  make(chan *ports.Claim, buffer),
		statuses: make(map[string]domain.SubmissionStatus),
		notes:    make(map[string]string),
	}
}

// Enqueue adds a submission to the queue.
func (q *MemoryQueue) Enqueue(name string, content []byte) {
	q.pending <- &ports.Claim{ID: uuid.New().String(), Name: name, Content: content}
}

// ClaimNext blocks until a submission is available or ctx is done.
func (q *MemoryQueue) ClaimNext(ctx context.Context) (*ports.Claim, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case claim := <-q.pending:
		return claim, nil
	}
}

// Complete records the terminal state and note for the claim.
func (q *MemoryQueue) Complete(claim *ports.Claim, state domain.SubmissionStatus, note string) error {
	if state != domain.StatusPublished && state != domain.StatusFailed {
		return fmt.Errorf("%s is not a terminal state", state)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[claim.Name] = state
	q.notes[claim.Name] = note
	return nil
}

// Release records that the claim was parked back as pending.
func (q *MemoryQueue) Release(claim *ports.Claim) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.released = append(q.released, claim.Name)
	return nil
}

// ArchiveMedia records the archived media path.
func (q *MemoryQueue) ArchiveMedia(localPath string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.archived = append(q.archived, localPath)
	return nil
}

// Status returns the recorded terminal state for a submission name.
func (q *MemoryQueue) Status(name string) (domain.SubmissionStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.statuses[name]
	return s, ok
}

// Note returns the failure note recorded for a submission name.
func (q *MemoryQueue) Note(name string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.notes[name]
}

// Released returns the names parked back as pending, in order.
func (q *MemoryQueue) Released() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.released...)
}

// Archived returns the media paths archived alongside published posts.
func (q *MemoryQueue) Archived() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.archived...)
}
