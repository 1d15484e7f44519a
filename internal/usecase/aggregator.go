// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sbidwaibing/readme-stats/internal/domain"
	"github.com/sbidwaibing/readme-stats/internal/gateway"
	"go.uber.org/zap"
)

// lastYear is the look-back window of the "last year" commit total.
const lastYear = 365 * 24 * time.Hour

// Aggregator is the use case for aggregating GitHub stats.
// It orchestrates the fetching and combining of data.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock replaces the clock used to compute the "last year" window.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate performs the main business logic.
// Every request is made sequentially. A failure to list the repositories is
// fatal, while failures while counting the commits of a single repository or
// while searching pull requests are downgraded to warnings and zero counts.
func (a *Aggregator) Aggregate(ctx context.Context, owner string) (*domain.Summary, error) {
	a.logger.Info("Generating stats", zap.String("owner", owner))

	repos, err := a.fetcher.ListRepositories(ctx, owner)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		Owner: owner,
		Repos: make([]*domain.RepoStats, 0, len(repos)),
	}
	for _, repo := range repos {
		summary.Counts.TotalStars += repo.GetStargazersCount()
	}
	a.logger.Info("Found repositories", zap.Int("repos", len(repos)), zap.Int("total_stars", summary.Counts.TotalStars))

	since := a.now().UTC().Add(-lastYear)
	for _, repo := range repos {
		stat := &domain.RepoStats{Name: repo.GetName(), Stars: repo.GetStargazersCount()}
		summary.Repos = append(summary.Repos, stat)

		recent, all, err := a.countRepoCommits(ctx, owner, stat.Name, since)
		if err != nil {
			var failure *gateway.RequestFailure
			if !errors.As(err, &failure) {
				return nil, fmt.Errorf("failed to count commits for %s: %w", stat.Name, err)
			}
			stat.CommitsFailed = true
			a.warn(summary, fmt.Sprintf("failed to count commits for %s: %v", stat.Name, err),
				zap.String("repo", stat.Name), zap.Int("status", failure.Status))
			continue
		}
		stat.CommitsLastYear = recent
		stat.CommitsAllTime = all
		summary.Counts.TotalCommitsLastYear += recent
		summary.Counts.TotalCommitsAllTime += all
	}

	sort.Slice(summary.Repos, func(i, j int) bool {
		return summary.Repos[i].Name < summary.Repos[j].Name
	})
	summary.CommitDistribution = commitDistribution(summary.Repos)
	if d := summary.CommitDistribution; d != nil {
		a.logger.Debug("Commit distribution per repository",
			zap.Int("repos", d.Repos),
			zap.Float64("mean", d.Mean),
			zap.Float64("median", d.Median),
			zap.Float64("max", d.Max),
		)
	}

	authored, merged, err := a.countPullRequests(ctx, owner)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.warn(summary, fmt.Sprintf("search API failed: %v", err))
		authored, merged = 0, 0
	}
	summary.Counts.TotalPRsAuthored = authored
	summary.Counts.TotalPRsMerged = merged

	a.logger.Info("Aggregation complete",
		zap.Int("total_commits_all_time", summary.Counts.TotalCommitsAllTime),
		zap.Int("total_commits_last_year", summary.Counts.TotalCommitsLastYear),
		zap.Int("total_prs_authored", authored),
		zap.Int("total_prs_merged", merged),
	)
	return summary, nil
}

// countRepoCommits returns the commits authored by owner in repo since the
// given time and over the whole history. Both counts succeed or neither is used.
func (a *Aggregator) countRepoCommits(ctx context.Context, owner, repo string, since time.Time) (int, int, error) {
	recent, err := a.fetcher.CountCommits(ctx, owner, repo, gateway.CommitFilter{Author: owner, Since: since})
	if err != nil {
		return 0, 0, err
	}
	all, err := a.fetcher.CountCommits(ctx, owner, repo, gateway.CommitFilter{Author: owner})
	if err != nil {
		return 0, 0, err
	}
	a.logger.Debug("Counted commits", zap.String("repo", repo), zap.Int("last_year", recent), zap.Int("all_time", all))
	return recent, all, nil
}

func (a *Aggregator) countPullRequests(ctx context.Context, owner string) (int, int, error) {
	authored, err := a.fetcher.CountIssues(ctx, fmt.Sprintf("type:pr author:%s", owner))
	if err != nil {
		return 0, 0, err
	}
	merged, err := a.fetcher.CountIssues(ctx, fmt.Sprintf("type:pr author:%s is:merged", owner))
	if err != nil {
		return 0, 0, err
	}
	return authored, merged, nil
}

func (a *Aggregator) warn(summary *domain.Summary, msg string, fields ...zap.Field) {
	summary.Warnings = append(summary.Warnings, msg)
	a.logger.Warn(msg, fields...)
}

// commitDistribution summarises all-time commits over the repositories whose
// history could be read. It returns nil when there are none.
func commitDistribution(repos []*domain.RepoStats) *domain.CommitDistribution {
	counts := make([]int, 0, len(repos))
	for _, repo := range repos {
		if !repo.CommitsFailed {
			counts = append(counts, repo.CommitsAllTime)
		}
	}
	if len(counts) == 0 {
		return nil
	}
	data := stats.LoadRawData(counts)
	mean, _ := data.Mean()
	median, _ := data.Median()
	maximum, _ := data.Max()
	return &domain.CommitDistribution{
		Repos:  len(counts),
		Mean:   mean,
		Median: median,
		Max:    maximum,
	}
}
