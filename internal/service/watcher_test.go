package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpilot/internal/adapters/inbox"
	"postpilot/internal/core/domain"
)

type fakeBoard struct {
	rows   []string
	states []string
}

func (b *fakeBoard) AppendRow(topic, status, _ string) error {
	b.rows = append(b.rows, topic+" | "+status)
	return nil
}

func (b *fakeBoard) SetSystemState(state string) error {
	b.states = append(b.states, state)
	return nil
}

func textSubmission(body string) []byte {
	return []byte("---\ntype: text\ntopic: Test topic\nhashtags: AI, Go\n---\n\n## Post Content\n\n" + body + "\n")
}

func carouselSubmission(pdfPath string) []byte {
	return []byte("---\ntype: carousel\ntopic: Carousel topic\npdf_path: " + pdfPath + "\n---\n\n## Post Caption\n\nSwipe through.\n")
}

func claimOne(t *testing.T, q *inbox.MemoryQueue, name string, content []byte) (*Watcher, *fakeBoard, *fakeLedger, *fakeUploader, func()) {
	t.Helper()
	ledger := &fakeLedger{}
	uploader := &fakeUploader{asset: "urn:li:digitalmediaAsset:1"}
	poster := NewPoster(&fakeAPI{urn: "urn:li:share:1"}, uploader, ledger, true, 3, zerolog.Nop())
	board := &fakeBoard{}
	w := NewWatcher(q, poster, board, zerolog.Nop())

	q.Enqueue(name, content)
	run := func() {
		claim, err := q.ClaimNext(context.Background())
		require.NoError(t, err)
		w.process(context.Background(), claim)
	}
	return w, board, ledger, uploader, run
}

func TestWatcher_DryRunTextPublishes(t *testing.T) {
	q := inbox.NewMemoryQueue(1)
	_, board, ledger, _, run := claimOne(t, q, "POST_hello.md", textSubmission("Hello world"))

	run()

	status, ok := q.Status("POST_hello.md")
	require.True(t, ok, "submission must reach a terminal state")
	assert.Equal(t, domain.StatusPublished, status)
	require.Len(t, board.rows, 1)
	assert.Contains(t, board.rows[0], "Published")
	assert.Equal(t, domain.ResultDryRun, ledger.last(t).Result)
}

func TestWatcher_MalformedSubmissionFails(t *testing.T) {
	q := inbox.NewMemoryQueue(1)
	_, board, _, _, run := claimOne(t, q, "POST_bad.md", []byte("no frontmatter at all"))

	run()

	status, ok := q.Status("POST_bad.md")
	require.True(t, ok)
	assert.Equal(t, domain.StatusFailed, status)
	assert.Contains(t, q.Note("POST_bad.md"), "malformed submission")
	require.Len(t, board.rows, 1)
	assert.Contains(t, board.rows[0], "❌ Failed")
}

func TestWatcher_MissingCarouselPDFFailsBeforeUpload(t *testing.T) {
	q := inbox.NewMemoryQueue(1)
	_, _, _, uploader, run := claimOne(t, q, "POST_missing.md", carouselSubmission("/nonexistent/deck.pdf"))

	run()

	status, ok := q.Status("POST_missing.md")
	require.True(t, ok)
	assert.Equal(t, domain.StatusFailed, status)
	assert.Contains(t, q.Note("POST_missing.md"), "missing media")
	assert.Zero(t, uploader.calls, "no upload may be attempted for missing media")
}

func TestWatcher_CarouselSuccessArchivesPDF(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "deck.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	q := inbox.NewMemoryQueue(1)
	_, _, _, _, run := claimOne(t, q, "POST_deck.md", carouselSubmission(pdf))

	run()

	status, ok := q.Status("POST_deck.md")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPublished, status)
	assert.Equal(t, []string{pdf}, q.Archived())
}

func TestWatcher_RateLimitedStaysPending(t *testing.T) {
	q := inbox.NewMemoryQueue(1)
	ledger := &fakeLedger{entries: successEntries(3)}
	api := &fakeAPI{}
	poster := NewPoster(api, &fakeUploader{}, ledger, false, 3, zerolog.Nop())
	board := &fakeBoard{}
	w := NewWatcher(q, poster, board, zerolog.Nop())

	q.Enqueue("POST_parked.md", textSubmission("Hello again"))
	claim, err := q.ClaimNext(context.Background())
	require.NoError(t, err)
	w.process(context.Background(), claim)

	_, terminal := q.Status("POST_parked.md")
	assert.False(t, terminal, "rate limited submissions must not reach a terminal state")
	assert.Equal(t, []string{"POST_parked.md"}, q.Released())
	assert.Empty(t, board.rows)
	assert.Zero(t, api.calls)
}

func TestWatcher_ServeStopsOnContextCancel(t *testing.T) {
	q := inbox.NewMemoryQueue(1)
	poster := NewPoster(&fakeAPI{}, &fakeUploader{}, &fakeLedger{}, true, 3, zerolog.Nop())
	w := NewWatcher(q, poster, &fakeBoard{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}
