package service

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"postpilot/internal/core/domain"
	"postpilot/internal/core/ports"
	"postpilot/internal/parser"
)

var kindLabels = map[domain.PostKind]string{
	domain.KindText:     "📝 Text",
	domain.KindImage:    "🖼️ Image",
	domain.KindCarousel: "📊 Carousel",
}

// Watcher drives submissions through parse, media validation, publish
// and the terminal filesystem transition. Each submission is handled
// synchronously, start to terminal move, before the next claim.
//
// It implements suture.Service: ClaimNext blocks until the queue yields
// a submission or the context is canceled.
type Watcher struct {
	queue  ports.SubmissionQueue
	poster *Poster
	board  ports.StatusBoard
	log    zerolog.Logger
}

// NewWatcher wires a Watcher.
func NewWatcher(queue ports.SubmissionQueue, poster *Poster, board ports.StatusBoard, log zerolog.Logger) *Watcher {
	return &Watcher{queue: queue, poster: poster, board: board, log: log}
}

// Serve claims and processes submissions until ctx is done. Failures in
// a single submission are converted to its failed transition and never
// escape the per-submission boundary.
func (w *Watcher) Serve(ctx context.Context) error {
	w.log.Info().Msg("watching inbox for approved submissions")
	for {
		claim, err := w.queue.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("claim failed: %w", err)
		}
		w.process(ctx, claim)
	}
}

// String implements fmt.Stringer for supervisor logs.
func (w *Watcher) String() string { return "submission-watcher" }

func (w *Watcher) process(ctx context.Context, claim *ports.Claim) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Str("file", claim.Name).Any("panic", r).Msg("submission handler panicked")
			w.fail(claim, claim.Name, fmt.Sprintf("internal error: %v", r))
		}
	}()

	w.log.Info().Str("file", claim.Name).Msg("approved submission detected")

	req, err := parser.Parse(string(claim.Content))
	if err != nil {
		w.fail(claim, claim.Name, err.Error())
		return
	}

	// The poster must never see a dangling media reference.
	if req.NeedsMedia() {
		if req.MediaPath == "" {
			w.fail(claim, req.Topic, domain.ErrMissingMedia.Error()+": no media path declared")
			return
		}
		if _, err := os.Stat(req.MediaPath); err != nil {
			w.fail(claim, req.Topic, fmt.Sprintf("%v: %s", domain.ErrMissingMedia, req.MediaPath))
			return
		}
	}

	outcome := w.poster.Publish(ctx, req, claim.Name)
	switch outcome.Code {
	case domain.OutcomeSuccess:
		if req.Kind == domain.KindCarousel {
			if err := w.queue.ArchiveMedia(req.MediaPath); err != nil {
				w.log.Warn().Err(err).Str("file", claim.Name).Msg("could not archive carousel PDF")
			}
		}
		if err := w.queue.Complete(claim, domain.StatusPublished, ""); err != nil {
			w.log.Error().Err(err).Str("file", claim.Name).Msg("terminal move to published failed")
			return
		}
		w.log.Info().Str("file", claim.Name).Msg("moved to published")
		w.updateBoard(req.Topic, "✅ "+kindLabels[req.Kind]+" Published", outcome.PostURN)

	case domain.OutcomeRateLimited:
		// Parked: the file stays pending and is retried after a restart.
		w.log.Warn().Str("file", claim.Name).Msg(outcome.Message)
		if err := w.queue.Release(claim); err != nil {
			w.log.Error().Err(err).Str("file", claim.Name).Msg("release failed")
		}

	default:
		w.fail(claim, req.Topic, outcome.Message)
	}
}

func (w *Watcher) fail(claim *ports.Claim, topic, note string) {
	if err := w.queue.Complete(claim, domain.StatusFailed, note); err != nil {
		w.log.Error().Err(err).Str("file", claim.Name).Msg("terminal move to needs-action failed")
	} else {
		w.log.Error().Str("file", claim.Name).Str("reason", note).Msg("moved to needs-action")
	}
	w.updateBoard(topic, "❌ Failed", "")
}

func (w *Watcher) updateBoard(topic, status, postURN string) {
	if err := w.board.AppendRow(topic, status, postURN); err != nil {
		w.log.Warn().Err(err).Msg("status board update failed")
	}
}
