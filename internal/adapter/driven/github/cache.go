package github

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
)

// maxCachedInstallations caps how many per-installation clients are kept.
// The whole set is dropped when the cap is reached.
const maxCachedInstallations = 1024

// installationClients hands out one go-github client per installation, each
// with its own response cache. Cached listings are keyed by URL only, so a
// shared cache would serve one installation's repositories to another.
type installationClients struct {
	mu      sync.Mutex
	network http.RoundTripper
	newBase func(*http.Client) *gh.Client
	clients map[int64]*gh.Client
}

func newInstallationClients(network http.RoundTripper, newBase func(*http.Client) *gh.Client) *installationClients {
	return &installationClients{
		network: network,
		newBase: newBase,
		clients: make(map[int64]*gh.Client),
	}
}

// get returns the client for installationID, building it on first use:
//  1. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  2. httpcache (ETag-based conditional request caching, this installation only)
//  3. installationVary (drops Authorization from Vary, see below)
func (s *installationClients) get(installationID int64) *gh.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, ok := s.clients[installationID]; ok {
		return client
	}
	if len(s.clients) >= maxCachedInstallations {
		s.clients = make(map[int64]*gh.Client)
	}

	cache := httpcache.NewTransport(httpcache.NewMemoryCache())
	cache.Transport = installationVary{next: s.network}

	client := s.newBase(github_ratelimit.NewClient(cache))
	s.clients[installationID] = client
	return client
}

// installationVary removes Authorization from the Vary header of responses.
// Every call carries a freshly minted token, so honouring it would make each
// cached entry unreachable. It is only safe below a cache that already
// belongs to a single installation.
type installationVary struct {
	next http.RoundTripper
}

func (t installationVary) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	values := resp.Header.Values("Vary")
	if len(values) == 0 {
		return resp, nil
	}

	var kept []string
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" || strings.EqualFold(name, "Authorization") {
				continue
			}
			kept = append(kept, name)
		}
	}

	resp.Header.Del("Vary")
	if len(kept) > 0 {
		resp.Header.Set("Vary", strings.Join(kept, ", "))
	}
	return resp, nil
}
