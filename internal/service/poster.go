// Package service holds the publishing pipeline: the poster turns a
// parsed request into an idempotent, rate-limited platform call, and the
// watcher drives submissions from the inbox to a terminal location.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"postpilot/internal/core/domain"
	"postpilot/internal/core/ports"
)

// Poster enforces the daily quota, handles simulated mode, uploads media
// and performs the publish call. Every attempt is recorded in the ledger
// before control returns, rate-limited and simulated outcomes included.
type Poster struct {
	api       ports.PublishAPI
	uploader  ports.MediaUploader
	ledger    ports.ActionLedger
	dryRun    bool
	maxPerDay int
	log       zerolog.Logger
}

// NewPoster wires a Poster. maxPerDay is the daily publish quota; dryRun
// selects simulated mode, which never touches the network.
func NewPoster(api ports.PublishAPI, uploader ports.MediaUploader, ledger ports.ActionLedger, dryRun bool, maxPerDay int, log zerolog.Logger) *Poster {
	return &Poster{
		api:       api,
		uploader:  uploader,
		ledger:    ledger,
		dryRun:    dryRun,
		maxPerDay: maxPerDay,
		log:       log,
	}
}

// ComposeText joins the body and marker-prefixed tags into the final
// post text. An empty tag set yields the body alone, with no trailing
// separator.
func ComposeText(body string, tags []string) string {
	body = strings.TrimSpace(body)
	if len(tags) == 0 {
		return body
	}
	marked := make([]string, len(tags))
	for i, tag := range tags {
		marked[i] = "#" + tag
	}
	return body + "\n\n" + strings.Join(marked, " ")
}

// CountPublishedToday replays today's ledger and counts successful
// publishes. This is the quota consumption for the day; dry-run entries
// never count.
func (p *Poster) CountPublishedToday(ctx context.Context) (int, error) {
	return p.ledger.CountToday(ctx, func(e domain.ActionEntry) bool {
		return e.IsSuccessfulPublish()
	})
}

// Publish runs the full attempt for one submission. The returned outcome
// is always preceded by a ledger append; a ledger write failure is fatal
// for the submission and wins over the attempt's own result.
func (p *Poster) Publish(ctx context.Context, req domain.PostRequest, sourceFile string) domain.Outcome {
	text := ComposeText(req.Body, req.Tags)
	params := map[string]any{
		"source_file": sourceFile,
		"hashtags":    req.Tags,
		"char_count":  len(text),
	}

	count, err := p.CountPublishedToday(ctx)
	if err != nil {
		return domain.RemoteFailure(fmt.Errorf("quota ledger unavailable: %w", err))
	}
	if count >= p.maxPerDay {
		msg := fmt.Sprintf("Rate limit reached: %d/%d posts today.", count, p.maxPerDay)
		p.log.Warn().Str("source_file", sourceFile).Msg(msg)
		if err := p.record(ctx, params, domain.ResultRateLimited, ""); err != nil {
			return domain.RemoteFailure(err)
		}
		return domain.RateLimited(msg)
	}

	if p.dryRun {
		p.log.Info().Str("source_file", sourceFile).Str("text", text).Msg("dry run, would publish")
		if err := p.record(ctx, params, domain.ResultDryRun, ""); err != nil {
			return domain.RemoteFailure(err)
		}
		return domain.Success(domain.DryRunURN, "Dry run, no real post made.")
	}

	share := domain.Share{Kind: req.Kind, Text: text, Title: req.Topic}
	if req.NeedsMedia() {
		asset, err := p.uploader.Upload(ctx, req.MediaPath, req.Kind)
		if err != nil {
			return p.fail(ctx, params, err)
		}
		share.Asset = asset
	}

	postURN, err := p.api.Publish(ctx, share)
	if err != nil {
		return p.fail(ctx, params, err)
	}

	p.log.Info().Str("post_urn", postURN).Str("source_file", sourceFile).Msg("post published")
	if err := p.record(ctx, params, domain.ResultSuccess, postURN); err != nil {
		return domain.RemoteFailure(fmt.Errorf("post published as %s but ledger write failed: %w", postURN, err))
	}
	return domain.Success(postURN, "Post published successfully!")
}

// fail records the error in the ledger and maps it to an outcome variant.
func (p *Poster) fail(ctx context.Context, params map[string]any, cause error) domain.Outcome {
	p.log.Error().Err(cause).Msg("publish attempt failed")
	if err := p.record(ctx, params, "error: "+cause.Error(), ""); err != nil {
		return domain.RemoteFailure(err)
	}
	if errors.Is(cause, domain.ErrMalformedSubmission) ||
		errors.Is(cause, domain.ErrMissingMedia) ||
		errors.Is(cause, domain.ErrUnsupportedMediaType) {
		return domain.ValidationFailure(cause)
	}
	return domain.RemoteFailure(cause)
}

func (p *Poster) record(ctx context.Context, params map[string]any, result, postURN string) error {
	return p.ledger.Append(ctx, domain.ActionEntry{
		ActionType: domain.ActionPublish,
		Parameters: params,
		PostURN:    postURN,
		DryRun:     p.dryRun,
		Result:     result,
	})
}
