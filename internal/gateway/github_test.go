package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sbidwaibing/readme-stats/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler, mutate func(*config.Config)) *GitHubGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Config{
		Owner:        "octocat",
		DocumentPath: "README.md",
		APIBaseURL:   server.URL,
		SearchAPI:    config.SearchREST,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	gateway, err := NewGitHubGateway(cfg, zap.NewNop())
	require.NoError(t, err)
	return gateway
}

func repoPage(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"name":"repo-%d","stargazers_count":%d}`, start+i, 1)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestGitHubGateway_ListRepositories(t *testing.T) {
	var pages []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/repos", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			fmt.Fprint(w, repoPage(0, 100))
		case "2":
			fmt.Fprint(w, repoPage(100, 2))
		default:
			t.Errorf("unexpected page %q", page)
		}
	}
	gateway := setupTestGateway(t, http.HandlerFunc(handler), nil)

	repos, err := gateway.ListRepositories(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Len(t, repos, 102)
	assert.Equal(t, "repo-101", repos[101].GetName())
	assert.Equal(t, 1, repos[0].GetStargazersCount())
	assert.Equal(t, []string{"1", "2"}, pages)
}

func TestGitHubGateway_ListRepositories_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedErrMsg string
		expectFailure  bool
	}{
		{
			name: "GitHub API returns an error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expectedErrMsg: "failed to list repositories of octocat",
			expectFailure:  true,
		},
		{
			name: "repository record without a name",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"stargazers_count": 3}]`)
			},
			expectedErrMsg: "has no name",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc), nil)

			repos, err := gateway.ListRepositories(context.Background(), "octocat")

			require.Error(t, err)
			assert.Nil(t, repos)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
			var failure *RequestFailure
			assert.Equal(t, tc.expectFailure, errors.As(err, &failure))
			if tc.expectFailure {
				assert.Equal(t, http.StatusNotFound, failure.Status)
				assert.Contains(t, failure.URL, "/users/octocat/repos")
			}
		})
	}
}

func TestGitHubGateway_CountCommits(t *testing.T) {
	since := time.Date(2025, 10, 15, 8, 30, 0, 0, time.UTC)
	testCases := []struct {
		name          string
		filter        CommitFilter
		expectedSince string
	}{
		{name: "all time", filter: CommitFilter{Author: "octocat"}, expectedSince: ""},
		{name: "since a timestamp", filter: CommitFilter{Author: "octocat", Since: since}, expectedSince: "2025-10-15T08:30:00Z"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/octocat/hello-world/commits", r.URL.Path)
				assert.Equal(t, "octocat", r.URL.Query().Get("author"))
				assert.Equal(t, tc.expectedSince, r.URL.Query().Get("since"))
				fmt.Fprint(w, `[{"sha":"a"},{"sha":"b"},{"sha":"c"}]`)
			}
			gateway := setupTestGateway(t, http.HandlerFunc(handler), nil)

			n, err := gateway.CountCommits(context.Background(), "octocat", "hello-world", tc.filter)

			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

func TestGitHubGateway_CountCommits_EmptyRepository(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message": "Git Repository is empty."}`)
	}
	gateway := setupTestGateway(t, http.HandlerFunc(handler), nil)

	_, err := gateway.CountCommits(context.Background(), "octocat", "empty", CommitFilter{Author: "octocat"})

	var failure *RequestFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusConflict, failure.Status)
	assert.Contains(t, failure.URL, "/repos/octocat/empty/commits")
}

func TestGitHubGateway_BearerToken(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[]`)
	}
	gateway := setupTestGateway(t, http.HandlerFunc(handler), func(cfg *config.Config) {
		cfg.Token = "s3cret"
	})

	repos, err := gateway.ListRepositories(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestGitHubGateway_CountIssues_REST(t *testing.T) {
	var calls int
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/search/issues", r.URL.Path)
		assert.Equal(t, "type:pr author:octocat is:merged", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"total_count": 17, "incomplete_results": false, "items": [{"number": 1}]}`)
	}
	gateway := setupTestGateway(t, http.HandlerFunc(handler), nil)

	n, err := gateway.CountIssues(context.Background(), "type:pr author:octocat is:merged")

	require.NoError(t, err)
	assert.Equal(t, 17, n)
	assert.Equal(t, 1, calls)
}

// TestGitHubGateway_CountIssues_GraphQL covers the GraphQL search backend.
func TestGitHubGateway_CountIssues_GraphQL(t *testing.T) {
	testCases := []struct {
		name           string
		responseBody   string
		expectedCount  int
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:          "happy path",
			responseBody:  `{"data":{"search":{"issueCount":9}}}`,
			expectedCount: 9,
		},
		{
			name:           "error case",
			responseBody:   `{"errors":[{"message":"Something went wrong"}]}`,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL search query",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/graphql", r.URL.Path)
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "type:pr author:octocat")
				assert.Contains(t, string(body), "issueCount")
				fmt.Fprint(w, tc.responseBody)
			}
			gateway := setupTestGateway(t, http.HandlerFunc(handler), func(cfg *config.Config) {
				cfg.Token = "s3cret"
				cfg.SearchAPI = config.SearchGraphQL
			})

			n, err := gateway.CountIssues(context.Background(), "type:pr author:octocat")

			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedCount, n)
			}
		})
	}
}

func TestGitHubGateway_CountIssues_GraphQLEnterprise(t *testing.T) {
	var paths []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path != "/api/graphql" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"data":{"search":{"issueCount":5}}}`)
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	gateway, err := NewGitHubGateway(config.Config{
		Token:      "s3cret",
		APIBaseURL: server.URL + "/api/v3/",
		SearchAPI:  config.SearchGraphQL,
	}, zap.NewNop())
	require.NoError(t, err)

	n, err := gateway.CountIssues(context.Background(), "type:pr author:octocat")

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"/api/graphql"}, paths)
}

func TestGraphqlURL(t *testing.T) {
	testCases := []struct {
		name     string
		restBase string
		expected string
	}{
		{name: "github.com", restBase: "https://api.github.com/", expected: "https://api.github.com/graphql"},
		{name: "enterprise server", restBase: "https://ghe.example.com/api/v3/", expected: "https://ghe.example.com/api/graphql"},
		{name: "custom prefix", restBase: "http://127.0.0.1:8080/", expected: "http://127.0.0.1:8080/graphql"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := url.Parse(tc.restBase)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, graphqlURL(u))
		})
	}
}
