// Package github implements the GitHubAppClient port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubAppClient = (*Client)(nil)

const (
	userAgent = "reviewdash-github-app"

	opCreateToken = "github.createInstallationToken"
	opListRepos   = "github.listInstallationRepositories"
)

// ClientOptions tunes a Client. Zero values fall back to defaults.
type ClientOptions struct {
	Timeout    time.Duration
	Retry      RetryPolicy
	Sleep      SleepFunc
	Logger     *slog.Logger
	Registerer prometheus.Registerer
}

// Client implements the driven.GitHubAppClient port. It authenticates as the
// App to mint an installation token, then calls GitHub as that installation.
type Client struct {
	app           *gh.Client
	installations *installationClients
	auth          *AppAuth
	retrier       *Retrier
	timeout       time.Duration
	budget        time.Duration
	logger        *slog.Logger
	metrics       *clientMetrics
}

// NewClient creates a GitHub App client on the default network transport.
// The token exchange goes through go-github-ratelimit only; installation
// calls also get a response cache of their own.
func NewClient(auth *AppAuth, baseURL string, opts ClientOptions) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{Transport: http.DefaultTransport}, baseURL, auth, opts)
}

// NewClientWithHTTPClient creates a Client whose network layer is the
// transport of httpClient. Tests use it to point the client at an httptest
// server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, auth *AppAuth, opts ClientOptions) (*Client, error) {
	if auth == nil {
		return nil, apperror.Configuration("github app credentials are not configured")
	}

	var base *url.URL
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		base = u
	}

	newBase := func(hc *http.Client) *gh.Client {
		client := gh.NewClient(hc)
		client.UserAgent = userAgent
		if base != nil {
			client.BaseURL = base
		}
		return client
	}

	network := httpClient.Transport
	if network == nil {
		network = http.DefaultTransport
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	metrics := newClientMetrics(opts.Registerer)
	retrier := NewRetrier(opts.Retry, opts.Sleep, opts.Logger)
	retrier.onRetry = func(operation string) {
		metrics.retries.WithLabelValues(operation).Inc()
	}

	return &Client{
		app:           newBase(github_ratelimit.NewClient(network)),
		installations: newInstallationClients(network, newBase),
		auth:          auth,
		retrier:       retrier,
		timeout:       opts.Timeout,
		// Token exchange plus listing, each retried in full.
		budget:  2 * opts.Retry.Budget(opts.Timeout),
		logger:  opts.Logger,
		metrics: metrics,
	}, nil
}

// Budget is the deadline ListInstallationRepositories puts on the whole
// fetch. Servers calling the client must allow at least this long to write.
func (c *Client) Budget() time.Duration {
	return c.budget
}

// CreateInstallationAccessToken exchanges the App JWT for a short-lived
// installation token. Tokens are never cached; every caller gets a new one.
// The exchange is retried on transient failures.
func (c *Client) CreateInstallationAccessToken(ctx context.Context, installationID int64) (string, error) {
	token, err := c.createToken(ctx, installationID)
	if err != nil {
		return "", fmt.Errorf("creating installation token for %d: %w", installationID, upstreamError(err))
	}
	return token, nil
}

func (c *Client) createToken(ctx context.Context, installationID int64) (string, error) {
	appJWT, err := c.auth.CreateAppJWT()
	if err != nil {
		return "", err
	}
	client := c.app.WithAuthToken(appJWT)

	var token *gh.InstallationToken
	err = c.retrier.Do(ctx, opCreateToken, func(ctx context.Context) error {
		return withTimeout(ctx, c.timeout, opCreateToken, func(ctx context.Context) error {
			t, resp, err := client.Apps.CreateInstallationToken(ctx, installationID, nil)
			if err != nil {
				return err
			}
			c.logRateLimit(resp, opCreateToken, 1)
			token = t
			return nil
		})
	})
	c.metrics.observe(opCreateToken, err)
	if err != nil {
		return "", err
	}
	if token.GetToken() == "" {
		return "", apperror.Upstream("github", errors.New("response carried no token"))
	}
	return token.GetToken(), nil
}

// ListInstallationRepositories returns one page of repositories the
// installation can access. Both the token exchange and the listing are
// retried on transient failures, and the whole fetch is bounded by Budget.
func (c *Client) ListInstallationRepositories(ctx context.Context, installationID int64, perPage, page int) (*model.InstallationRepositoryPage, error) {
	var listed *gh.ListRepositories
	err := withTimeout(ctx, c.budget, opListRepos, func(ctx context.Context) error {
		token, err := c.createToken(ctx, installationID)
		if err != nil {
			return fmt.Errorf("creating installation token: %w", err)
		}

		listed, err = c.listRepos(ctx, installationID, token, &gh.ListOptions{PerPage: perPage, Page: page})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing repositories for installation %d (page %d): %w", installationID, page, upstreamError(err))
	}

	out := &model.InstallationRepositoryPage{
		TotalCount:   listed.GetTotalCount(),
		Repositories: make([]model.InstallationRepository, 0, len(listed.Repositories)),
	}
	for _, repo := range listed.Repositories {
		out.Repositories = append(out.Repositories, mapRepository(repo))
	}
	return out, nil
}

func (c *Client) listRepos(ctx context.Context, installationID int64, token string, opts *gh.ListOptions) (*gh.ListRepositories, error) {
	client := c.installations.get(installationID).WithAuthToken(token)

	var listed *gh.ListRepositories
	err := c.retrier.Do(ctx, opListRepos, func(ctx context.Context) error {
		return withTimeout(ctx, c.timeout, opListRepos, func(ctx context.Context) error {
			repos, resp, err := client.Apps.ListRepos(ctx, opts)
			if err != nil {
				return err
			}
			c.logRateLimit(resp, opListRepos, len(repos.Repositories))
			listed = repos
			return nil
		})
	})
	c.metrics.observe(opListRepos, err)
	return listed, err
}

// logRateLimit logs the remaining GitHub API quota after each successful call.
func (c *Client) logRateLimit(resp *gh.Response, operation string, count int) {
	if resp == nil {
		return
	}

	c.logger.Debug("github api call",
		"operation", operation,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// upstreamError tags err as an upstream failure unless it already carries a
// more specific kind or came from the caller giving up.
func upstreamError(err error) error {
	if errors.Is(err, apperror.ErrTimeout) || errors.Is(err, apperror.ErrUpstream) ||
		errors.Is(err, context.Canceled) || errors.Is(err, apperror.ErrConfiguration) {
		return err
	}
	return apperror.Upstream("github", err)
}

// mapRepository converts a go-github Repository to a domain model
// InstallationRepository. It uses GetXxx() helpers to avoid nil pointer panics.
func mapRepository(repo *gh.Repository) model.InstallationRepository {
	return model.InstallationRepository{
		ID:            repo.GetID(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Private:       repo.GetPrivate(),
		HTMLURL:       repo.GetHTMLURL(),
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Language:      repo.GetLanguage(),
		UpdatedAt:     repo.GetUpdatedAt().Time,
	}
}
