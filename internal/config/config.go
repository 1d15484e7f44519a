// Package config resolves the runtime configuration of the job from the environment.
package config

import (
	"fmt"
	"net/url"
)

// Environment variable names recognised by Load.
const (
	EnvToken        = "GITHUB_TOKEN"
	EnvOwner        = "GITHUB_OWNER"
	EnvDocumentPath = "README_PATH"
	EnvAPIBaseURL   = "GITHUB_API_URL"
)

// Defaults applied when the environment leaves a value empty.
const (
	DefaultOwner        = "sbidwaibing"
	DefaultDocumentPath = "README.md"
	DefaultAPIBaseURL   = "https://api.github.com/"
	DefaultTitle        = "Sukrut's · Github Stats"
)

// SearchAPI selects which GitHub API answers the pull request search counts.
type SearchAPI string

const (
	SearchREST    SearchAPI = "rest"
	SearchGraphQL SearchAPI = "graphql"
)

// Config is threaded explicitly through the gateway, aggregator and patcher.
type Config struct {
	Token        string
	Owner        string
	DocumentPath string
	APIBaseURL   string
	SearchAPI    SearchAPI
	Title        string
}

// Load builds a Config from getenv, filling in defaults for unset values.
// getenv is usually os.Getenv.
func Load(getenv func(string) string) Config {
	cfg := Config{
		Token:        getenv(EnvToken),
		Owner:        getenv(EnvOwner),
		DocumentPath: getenv(EnvDocumentPath),
		APIBaseURL:   getenv(EnvAPIBaseURL),
		SearchAPI:    SearchREST,
		Title:        DefaultTitle,
	}
	if cfg.Owner == "" {
		cfg.Owner = DefaultOwner
	}
	if cfg.DocumentPath == "" {
		cfg.DocumentPath = DefaultDocumentPath
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	return cfg
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner login must not be empty")
	}
	if c.DocumentPath == "" {
		return fmt.Errorf("document path must not be empty")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid API base URL %q: %w", c.APIBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API base URL %q: scheme must be http or https", c.APIBaseURL)
	}
	switch c.SearchAPI {
	case SearchREST:
	case SearchGraphQL:
		if c.Token == "" {
			return fmt.Errorf("the graphql search API requires %s to be set", EnvToken)
		}
	default:
		return fmt.Errorf("unknown search API %q (want %q or %q)", c.SearchAPI, SearchREST, SearchGraphQL)
	}
	return nil
}
