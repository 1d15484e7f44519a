// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/sbidwaibing/readme-stats/internal/config"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const acceptHeader = "application/vnd.github+json"

// CommitFilter narrows a commit history listing.
// A zero Since lists the whole history.
type CommitFilter struct {
	Author string
	Since  time.Time
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	ListRepositories(ctx context.Context, owner string) ([]*github.Repository, error)
	CountCommits(ctx context.Context, owner, repo string, filter CommitFilter) (int, error)
	CountIssues(ctx context.Context, query string) (int, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
// It also serves as the PageSource for every paginated REST listing.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	searchAPI     config.SearchAPI
	logger        *zap.Logger
}

var (
	_ Fetcher    = (*GitHubGateway)(nil)
	_ PageSource = (*GitHubGateway)(nil)
)

// issueCountQuery asks GraphQL search for the number of matching issues and PRs only.
type issueCountQuery struct {
	Search struct {
		IssueCount int
	} `graphql:"search(query: $query, type: ISSUE, first: 1)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// Requests are authenticated with a bearer token only when cfg.Token is set.
func NewGitHubGateway(cfg config.Config, logger *zap.Logger) (*GitHubGateway, error) {
	httpClient := &http.Client{}
	if cfg.Token != "" {
		httpClient.Transport = &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
		}
	}

	baseURL, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API base URL: %w", err)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}

	restClient := github.NewClient(httpClient)
	restClient.BaseURL = baseURL

	searchAPI := cfg.SearchAPI
	if searchAPI == "" {
		searchAPI = config.SearchREST
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(graphqlURL(baseURL), httpClient),
		searchAPI:     searchAPI,
		logger:        logger,
	}, nil
}

// graphqlURL derives the GraphQL endpoint from the REST base URL.
// GitHub Enterprise serves REST under /api/v3/ and GraphQL at /api/graphql.
func graphqlURL(restBase *url.URL) string {
	u := *restBase
	if strings.HasSuffix(u.Path, "/api/v3/") {
		u.Path = strings.TrimSuffix(u.Path, "v3/") + "graphql"
		u.RawPath = ""
		return u.String()
	}
	return u.JoinPath("graphql").String()
}

// FetchPage performs one GET against path and returns the undecoded body.
func (g *GitHubGateway) FetchPage(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := g.restClient.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", acceptHeader)

	g.logger.Debug("GET", zap.String("url", req.URL.String()))
	var body json.RawMessage
	resp, err := g.restClient.Do(ctx, req, &body)
	if err != nil {
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
			return nil, &RequestFailure{Status: resp.StatusCode, URL: req.URL.String(), Err: err}
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}
	return body, nil
}

// ListRepositories returns every repository owned by owner.
func (g *GitHubGateway) ListRepositories(ctx context.Context, owner string) ([]*github.Repository, error) {
	path := fmt.Sprintf("users/%s/repos", url.PathEscape(owner))
	repos, err := Collect(Paginate[*github.Repository](ctx, g, path, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories of %s: %w", owner, err)
	}
	for i, repo := range repos {
		if repo.GetName() == "" {
			return nil, fmt.Errorf("repository record %d of %s has no name", i, owner)
		}
	}
	return repos, nil
}

// CountCommits counts the commits of owner/repo that match filter.
func (g *GitHubGateway) CountCommits(ctx context.Context, owner, repo string, filter CommitFilter) (int, error) {
	params := url.Values{}
	if filter.Author != "" {
		params.Set("author", filter.Author)
	}
	if !filter.Since.IsZero() {
		params.Set("since", filter.Since.UTC().Format(time.RFC3339))
	}
	path := fmt.Sprintf("repos/%s/%s/commits", url.PathEscape(owner), url.PathEscape(repo))
	return Count(Paginate[*github.RepositoryCommit](ctx, g, path, params))
}

// CountIssues returns the total number of issues and pull requests matching query.
func (g *GitHubGateway) CountIssues(ctx context.Context, query string) (int, error) {
	if g.searchAPI == config.SearchGraphQL {
		return g.countIssuesGraphQL(ctx, query)
	}
	params := url.Values{"q": {query}}
	for result, err := range Paginate[*github.IssuesSearchResult](ctx, g, "search/issues", params) {
		if err != nil {
			return 0, err
		}
		return result.GetTotal(), nil
	}
	return 0, nil
}

func (g *GitHubGateway) countIssuesGraphQL(ctx context.Context, query string) (int, error) {
	var q issueCountQuery
	variables := map[string]interface{}{"query": githubv4.String(query)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, fmt.Errorf("failed to execute GraphQL search query: %w", err)
	}
	return q.Search.IssueCount, nil
}
