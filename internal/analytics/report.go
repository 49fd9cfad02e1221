// Package analytics aggregates a week of ledger entries into a
// human-readable markdown report with per-post engagement numbers.
package analytics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"postpilot/internal/core/domain"
	"postpilot/internal/core/ports"
)

// Reporter generates the weekly analytics report. In dry-run mode it
// emits a sample-data report without any network I/O.
type Reporter struct {
	ledger  ports.ActionLedger
	metrics ports.MetricsAPI
	auth    ports.AuthProvider
	dir     string
	dryRun  bool
	log     zerolog.Logger
}

// NewReporter wires a Reporter writing reports into dir.
func NewReporter(ledger ports.ActionLedger, metrics ports.MetricsAPI, auth ports.AuthProvider, dir string, dryRun bool, log zerolog.Logger) *Reporter {
	return &Reporter{
		ledger:  ledger,
		metrics: metrics,
		auth:    auth,
		dir:     dir,
		dryRun:  dryRun,
		log:     log,
	}
}

// GenerateWeekly collects the last 7 days of successful publishes,
// fetches their metrics, renders the report and returns its path.
// Metric fetch failures degrade to zeros; they never abort the report.
func (r *Reporter) GenerateWeekly(ctx context.Context) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create analytics dir: %w", err)
	}

	today := time.Now()
	reportPath := filepath.Join(r.dir, "Weekly_Report_"+today.Format("2006-01-02")+".md")

	var posts []domain.PostMetrics
	followers := "—"

	if r.dryRun {
		r.log.Info().Msg("dry run, generating sample analytics report")
		posts = []domain.PostMetrics{
			{SourceFile: "POST_sample_1.md", Likes: 42, Comments: 8, Shares: 5},
			{SourceFile: "POST_sample_2.md", Likes: 28, Comments: 3, Shares: 2},
			{SourceFile: "POST_sample_3.md", Likes: 67, Comments: 15, Shares: 9},
		}
	} else {
		published, err := r.publishedThisWeek(ctx)
		if err != nil {
			return "", err
		}
		for _, entry := range published {
			metrics, err := r.metrics.PostMetrics(ctx, entry.PostURN)
			if err != nil {
				r.log.Warn().Err(err).Str("post_urn", entry.PostURN).Msg("could not fetch post metrics")
			}
			metrics.SourceFile = sourceFile(entry)
			posts = append(posts, metrics)
		}
		followers = r.followerCount(ctx)
	}

	report := render(today, posts, followers)
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	r.log.Info().Str("report", reportPath).Msg("weekly analytics report saved")
	return reportPath, nil
}

// publishedThisWeek filters the ledger for real published posts: the
// dry-run placeholder id and urn-less entries are excluded.
func (r *Reporter) publishedThisWeek(ctx context.Context) ([]domain.ActionEntry, error) {
	entries, err := r.ledger.EntriesSince(ctx, 7)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	var published []domain.ActionEntry
	for _, e := range entries {
		if e.IsSuccessfulPublish() && e.PostURN != "" && e.PostURN != domain.DryRunURN {
			published = append(published, e)
		}
	}
	return published, nil
}

func (r *Reporter) followerCount(ctx context.Context) string {
	author, err := r.auth.AuthorURN(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("could not resolve author for follower count")
		return "—"
	}
	count, err := r.metrics.FollowerCount(ctx, author)
	if err != nil {
		r.log.Warn().Err(err).Msg("could not fetch follower count")
		return "—"
	}
	return fmt.Sprintf("%d", count)
}

func sourceFile(entry domain.ActionEntry) string {
	if v, ok := entry.Parameters["source_file"].(string); ok {
		return v
	}
	return ""
}

func render(today time.Time, posts []domain.PostMetrics, followers string) string {
	weekStart := today.AddDate(0, 0, -7)

	totalLikes, totalComments, totalShares := 0, 0, 0
	var best domain.PostMetrics
	for _, p := range posts {
		totalLikes += p.Likes
		totalComments += p.Comments
		totalShares += p.Shares
		if p.Likes >= best.Likes {
			best = p
		}
	}

	engagement := "0"
	if len(posts) > 0 {
		engagement = fmt.Sprintf("%.1f", float64(totalLikes+totalComments)/float64(len(posts)))
	}

	var rows strings.Builder
	for _, p := range posts {
		name := p.SourceFile
		if len(name) > 45 {
			name = name[:45]
		}
		fmt.Fprintf(&rows, "| %s | %d | %d | %d |\n", name, p.Likes, p.Comments, p.Shares)
	}
	if rows.Len() == 0 {
		rows.WriteString("| No posts this week | — | — | — |\n")
	}

	contentTip := "Keep current content mix — engagement is healthy."
	if totalShares < 5 {
		contentTip = "Increase how-to / tutorial posts — they tend to get more shares."
	}

	bestFile := best.SourceFile
	if bestFile == "" {
		bestFile = "N/A"
	}

	return fmt.Sprintf(`# Weekly LinkedIn Analytics Report
**Period:** %s → %s
**Generated:** %s

---

## Summary
| Metric | Value |
|--------|-------|
| Posts Published | %d |
| Total Likes | %d |
| Total Comments | %d |
| Total Shares | %d |
| Avg. Engagement/Post | %s |
| Current Followers | %s |

---

## Post Performance
| Post | Likes | Comments | Shares |
|------|-------|----------|--------|
%s
---

## Best Performing Post
- **File:** %s
- **Likes:** %d
- **Comments:** %d

---

## Recommendations for Next Week
- **Best days to post:** Tuesday, Wednesday, Thursday
- **Best times:** 8:00–10:00 AM, 12:00 PM, 5:00–6:00 PM
- **Content suggestion:** %s
- **Hashtag tip:** Continue using anchor tags that performed before.
`,
		weekStart.Format("2006-01-02"), today.Format("2006-01-02"),
		today.Format("2006-01-02 15:04"),
		len(posts), totalLikes, totalComments, totalShares, engagement, followers,
		rows.String(),
		bestFile, best.Likes, best.Comments,
		contentTip,
	)
}
