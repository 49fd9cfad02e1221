// Package supervisor assembles the suture tree that keeps the pipeline
// and reporting services running, restarting them on failure.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Tree is a two-layer supervisor: the pipeline layer owns the submission
// watcher, the reporting layer owns the scheduled analytics job. A crash
// in one layer never takes down the other.
type Tree struct {
	root      *suture.Supervisor
	pipeline  *suture.Supervisor
	reporting *suture.Supervisor
}

// NewTree builds the tree with suture's default failure policy and the
// given slog logger as the event hook.
func NewTree(logger *slog.Logger) *Tree {
	handler := &sutureslog.Handler{Logger: logger}
	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	}

	root := suture.New("postpilot", rootSpec)
	pipeline := suture.New("pipeline", suture.Spec{EventHook: handler.MustHook()})
	reporting := suture.New("reporting", suture.Spec{EventHook: handler.MustHook()})
	root.Add(pipeline)
	root.Add(reporting)

	return &Tree{root: root, pipeline: pipeline, reporting: reporting}
}

// AddPipelineService adds a service to the pipeline layer.
func (t *Tree) AddPipelineService(svc suture.Service) suture.ServiceToken {
	return t.pipeline.Add(svc)
}

// AddReportingService adds a service to the reporting layer.
func (t *Tree) AddReportingService(svc suture.Service) suture.ServiceToken {
	return t.reporting.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
