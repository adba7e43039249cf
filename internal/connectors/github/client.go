package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds an archive download.
	DefaultDownloadTimeout = 10 * time.Minute

	// maxArchiveRedirects is passed to go-github when resolving archive links.
	maxArchiveRedirects = 3
)

// Client wraps the go-github client with the calls needed to fetch archives.
type Client struct {
	gh          *gh.Client
	download    *http.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub API client. An empty token yields an
// unauthenticated client limited to public repositories.
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		return newClient(&http.Client{Timeout: DefaultTimeout}, UnauthenticatedRateLimit)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	return newClient(tc, GitHubRateLimit)
}

// NewClientWithHTTPClient creates a GitHub client with a custom http.Client
// for API calls.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return newClient(httpClient, GitHubRateLimit)
}

func newClient(api *http.Client, limit int) *Client {
	return &Client{
		gh:          gh.NewClient(api),
		download:    &http.Client{Timeout: DefaultDownloadTimeout},
		rateLimiter: NewRateLimiter(limit),
	}
}

// SetBaseURL points the client at another API root, such as a GitHub
// Enterprise server.
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	c.gh.BaseURL = u
	return nil
}

// DefaultBranch returns the repository's default branch.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return "", c.wrapError(err, "get repo")
	}
	return repository.GetDefaultBranch(), nil
}

// ArchiveLink returns the tarball download link for ref.
func (c *Client) ArchiveLink(ctx context.Context, owner, repo, ref string) (*url.URL, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	link, resp, err := c.gh.Repositories.GetArchiveLink(ctx, owner, repo, gh.Tarball, opts, maxArchiveRedirects)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapArchiveError(err, resp)
	}
	if link == nil || link.String() == "" {
		return nil, fmt.Errorf("get archive link: empty location for %s/%s@%s", owner, repo, ref)
	}
	return link, nil
}

// Download opens the archive behind link. The caller must close the body.
func (c *Client) Download(ctx context.Context, link *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download archive: %w", err)
	}
	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status, URL: link.Redacted()}
	}
	return resp.Body, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapArchiveError handles archive link failures. The archive endpoint is
// fetched without response checking, so a non-302 status arrives as a plain
// error alongside the raw response.
func (c *Client) wrapArchiveError(err error, resp *gh.Response) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) || resp == nil || resp.Response == nil {
		return c.wrapError(err, "get archive link")
	}
	if rlErr := c.rateLimiter.CheckRateLimit(resp.Response); rlErr != nil {
		return rlErr
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	if resp.Request != nil {
		apiErr.URL = resp.Request.URL.Redacted()
	}
	return fmt.Errorf("get archive link: %w", apiErr)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	return fmt.Errorf("%s: %w", operation, err)
}
