package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpilot/internal/core/domain"
)

type fakeLedger struct {
	entries    []domain.ActionEntry
	failAppend bool
}

func (l *fakeLedger) Append(_ context.Context, entry domain.ActionEntry) error {
	if l.failAppend {
		return errors.New("disk full")
	}
	l.entries = append(l.entries, entry)
	return nil
}

func (l *fakeLedger) CountToday(_ context.Context, pred func(domain.ActionEntry) bool) (int, error) {
	count := 0
	for _, e := range l.entries {
		if pred(e) {
			count++
		}
	}
	return count, nil
}

func (l *fakeLedger) EntriesSince(_ context.Context, _ int) ([]domain.ActionEntry, error) {
	return l.entries, nil
}

func (l *fakeLedger) last(t *testing.T) domain.ActionEntry {
	t.Helper()
	require.NotEmpty(t, l.entries)
	return l.entries[len(l.entries)-1]
}

type fakeAPI struct {
	urn   string
	err   error
	calls int
}

func (a *fakeAPI) Publish(_ context.Context, _ domain.Share) (string, error) {
	a.calls++
	return a.urn, a.err
}

type fakeUploader struct {
	asset domain.AssetHandle
	err   error
	calls int
}

func (u *fakeUploader) Upload(_ context.Context, _ string, _ domain.PostKind) (domain.AssetHandle, error) {
	u.calls++
	return u.asset, u.err
}

func successEntries(n int) []domain.ActionEntry {
	entries := make([]domain.ActionEntry, n)
	for i := range entries {
		entries[i] = domain.ActionEntry{
			ActionType: domain.ActionPublish,
			Result:     domain.ResultSuccess,
			PostURN:    fmt.Sprintf("urn:li:share:%d", i),
		}
	}
	return entries
}

func TestComposeText(t *testing.T) {
	tests := []struct {
		name string
		body string
		tags []string
		want string
	}{
		{
			name: "tags appended with markers",
			body: "Hello world",
			tags: []string{"AI", "Go"},
			want: "Hello world\n\n#AI #Go",
		},
		{
			name: "empty tag set yields body only",
			body: "Hello world",
			tags: nil,
			want: "Hello world",
		},
		{
			name: "body whitespace trimmed",
			body: "  Hello world \n",
			tags: []string{"AI"},
			want: "Hello world\n\n#AI",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeText(tt.body, tt.tags))
		})
	}
}

func TestPoster_QuotaDeniesWithoutRemoteCall(t *testing.T) {
	ledger := &fakeLedger{entries: successEntries(3)}
	api := &fakeAPI{urn: "urn:li:share:new"}
	poster := NewPoster(api, &fakeUploader{}, ledger, false, 3, zerolog.Nop())

	outcome := poster.Publish(context.Background(), domain.PostRequest{Kind: domain.KindText, Body: "hi"}, "POST_a.md")

	assert.Equal(t, domain.OutcomeRateLimited, outcome.Code)
	assert.Zero(t, api.calls, "rate limited attempts must not reach the platform")
	assert.Equal(t, domain.ResultRateLimited, ledger.last(t).Result)
}

func TestPoster_DryRunSkipsNetworkAndLogs(t *testing.T) {
	ledger := &fakeLedger{}
	api := &fakeAPI{}
	uploader := &fakeUploader{}
	poster := NewPoster(api, uploader, ledger, true, 3, zerolog.Nop())

	req := domain.PostRequest{Kind: domain.KindImage, Body: "hi", Tags: []string{"AI"}, MediaPath: "pic.png"}
	outcome := poster.Publish(context.Background(), req, "POST_b.md")

	require.True(t, outcome.OK())
	assert.Equal(t, domain.DryRunURN, outcome.PostURN)
	assert.Zero(t, api.calls)
	assert.Zero(t, uploader.calls, "dry run never uploads")

	entry := ledger.last(t)
	assert.Equal(t, domain.ResultDryRun, entry.Result)
	assert.True(t, entry.DryRun)
	assert.False(t, entry.IsSuccessfulPublish(), "dry run entries must not consume quota")
}

func TestPoster_LiveSuccess(t *testing.T) {
	ledger := &fakeLedger{}
	api := &fakeAPI{urn: "urn:li:share:123"}
	poster := NewPoster(api, &fakeUploader{}, ledger, false, 3, zerolog.Nop())

	outcome := poster.Publish(context.Background(), domain.PostRequest{Kind: domain.KindText, Body: "hi", Tags: []string{"Go"}}, "POST_c.md")

	require.True(t, outcome.OK())
	assert.Equal(t, "urn:li:share:123", outcome.PostURN)
	assert.Equal(t, 1, api.calls)

	entry := ledger.last(t)
	assert.Equal(t, domain.ResultSuccess, entry.Result)
	assert.Equal(t, "urn:li:share:123", entry.PostURN)
	assert.Equal(t, "POST_c.md", entry.Parameters["source_file"])
}

func TestPoster_UploadFailureIsRemoteAndLogged(t *testing.T) {
	ledger := &fakeLedger{}
	api := &fakeAPI{}
	uploader := &fakeUploader{err: &domain.UploadError{Phase: domain.UploadPhaseTransfer, Err: errors.New("connection reset")}}
	poster := NewPoster(api, uploader, ledger, false, 3, zerolog.Nop())

	req := domain.PostRequest{Kind: domain.KindImage, Body: "hi", MediaPath: "pic.png"}
	outcome := poster.Publish(context.Background(), req, "POST_d.md")

	assert.Equal(t, domain.OutcomeRemoteError, outcome.Code)
	assert.Zero(t, api.calls, "failed upload must stop before the publish call")
	assert.Contains(t, ledger.last(t).Result, "error: ")
}

func TestPoster_UnsupportedMediaIsValidationError(t *testing.T) {
	uploader := &fakeUploader{err: fmt.Errorf("%w: .txt", domain.ErrUnsupportedMediaType)}
	poster := NewPoster(&fakeAPI{}, uploader, &fakeLedger{}, false, 3, zerolog.Nop())

	req := domain.PostRequest{Kind: domain.KindImage, Body: "hi", MediaPath: "notes.txt"}
	outcome := poster.Publish(context.Background(), req, "POST_e.md")

	assert.Equal(t, domain.OutcomeValidationError, outcome.Code)
}

func TestPoster_LedgerWriteFailureIsFatalForSubmission(t *testing.T) {
	ledger := &fakeLedger{failAppend: true}
	poster := NewPoster(&fakeAPI{urn: "urn:li:share:9"}, &fakeUploader{}, ledger, true, 3, zerolog.Nop())

	outcome := poster.Publish(context.Background(), domain.PostRequest{Kind: domain.KindText, Body: "hi"}, "POST_f.md")

	assert.Equal(t, domain.OutcomeRemoteError, outcome.Code)
}
