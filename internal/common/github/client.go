package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrMissingToken indicates no GitHub token was configured
	ErrMissingToken = errors.New("no GitHub token found")
	// ErrBadCredentials indicates GitHub rejected the token
	ErrBadCredentials = errors.New("authentication to GitHub failed")
	// ErrRateLimit indicates GitHub API rate limit exceeded
	ErrRateLimit = errors.New("GitHub API rate limit exceeded")
	// ErrAPIError indicates a general GitHub API error
	ErrAPIError = errors.New("GitHub API error")
)

// reposPerPage is the page size used when listing repositories (GitHub maximum)
const reposPerPage = 100

// Client lists the authenticated user's repositories
type Client struct {
	BaseURL    string
	UserAgent  string
	Token      string
	HTTPClient *http.Client
}

// User is the authenticated GitHub account
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// Repository is an entry from GET /user/repos
type Repository struct {
	Name        string `json:"name"`
	Archived    bool   `json:"archived"`
	Permissions struct {
		Admin bool `json:"admin"`
		Push  bool `json:"push"`
		Pull  bool `json:"pull"`
	} `json:"permissions"`
}

// NewClient creates a new GitHub API client. An empty token is accepted here
// and reported by the first request.
func NewClient(token string) *Client {
	return &Client{
		BaseURL:   "https://api.github.com",
		UserAgent: "feedstockrot/1.0",
		Token:     token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AuthenticatedUser returns the account the token belongs to.
func (c *Client) AuthenticatedUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, c.BaseURL+"/user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Repositories lists every repository visible to the authenticated user,
// following pagination until a short page is returned.
func (c *Client) Repositories(ctx context.Context) ([]Repository, error) {
	var all []Repository
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/user/repos?per_page=%d&page=%d", c.BaseURL, reposPerPage, page)

		var repos []Repository
		if err := c.get(ctx, url, &repos); err != nil {
			return nil, err
		}
		all = append(all, repos...)

		if len(repos) < reposPerPage {
			return all, nil
		}
	}
}

// PushableRepositoryNames returns the names of repositories the user can push
// to, in listing order. Archived repositories are read-only and skipped.
func (c *Client) PushableRepositoryNames(ctx context.Context) ([]string, error) {
	repos, err := c.Repositories(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		if repo.Permissions.Push && !repo.Archived {
			names = append(names, repo.Name)
		}
	}
	return names, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	if c.Token == "" {
		return ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrBadCredentials
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: rate limit resets at %s", ErrRateLimit, resp.Header.Get("X-RateLimit-Reset"))
		}
		return ErrBadCredentials
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse GitHub response: %w", err)
	}
	return nil
}
