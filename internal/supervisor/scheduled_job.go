package supervisor

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ScheduledJob runs a function on a cron schedule as a supervised
// service. The job receives the service context, so an in-flight run is
// canceled on shutdown.
type ScheduledJob struct {
	name string
	spec string
	job  func(ctx context.Context)
	log  zerolog.Logger
}

// NewScheduledJob builds a job. spec is a standard 5-field cron
// expression (for the weekly report: "0 20 * * 0", Sunday 20:00).
func NewScheduledJob(name, spec string, job func(ctx context.Context), log zerolog.Logger) *ScheduledJob {
	return &ScheduledJob{name: name, spec: spec, job: job, log: log}
}

// Serve implements suture.Service.
func (s *ScheduledJob) Serve(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() {
		s.log.Info().Str("job", s.name).Msg("scheduled job triggered")
		s.job(ctx)
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	c.Start()
	<-ctx.Done()

	// Stop returns a context that is done once running jobs finish.
	<-c.Stop().Done()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *ScheduledJob) String() string { return s.name }
