// Package domain contains the core data structures and domain logic for the application.
package domain

// SummaryCounts holds the five account-wide activity totals rendered into the README.
// Each value is computed independently of the others.
type SummaryCounts struct {
	TotalStars           int `json:"total_stars"`
	TotalCommitsAllTime  int `json:"total_commits_all_time"`
	TotalCommitsLastYear int `json:"total_commits_last_year"`
	TotalPRsAuthored     int `json:"total_prs_authored"`
	TotalPRsMerged       int `json:"total_prs_merged"`
}

// RepoStats holds the activity counts for a single repository owned by the user.
type RepoStats struct {
	Name            string `json:"name"`
	Stars           int    `json:"stars"`
	CommitsAllTime  int    `json:"commits_all_time"`
	CommitsLastYear int    `json:"commits_last_year"`
	// CommitsFailed is set when the commit history could not be fetched;
	// both commit counts are zero in that case.
	CommitsFailed bool `json:"commits_failed,omitempty"`
}

// CommitDistribution describes how all-time commits spread over the
// repositories whose history could be read.
type CommitDistribution struct {
	Repos  int     `json:"repos"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summary is the result of one aggregation run.
type Summary struct {
	Owner  string        `json:"owner"`
	Counts SummaryCounts `json:"counts"`
	Repos  []*RepoStats  `json:"repos"`
	// CommitDistribution is nil when no repository history could be read.
	CommitDistribution *CommitDistribution `json:"commit_distribution,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
}
