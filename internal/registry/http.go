package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/resolver"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

const (
	defaultRetries = 3
	defaultBackoff = 500 * time.Millisecond
)

// HTTPClient implements Client against the server's REST API. It also
// implements resolver.MetadataSource via the server's package index, so one
// authenticated client serves both the engine and the resolver.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client

	// Retries counts attempts after the first for retryable failures.
	Retries int

	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration

	mu    sync.Mutex
	index map[string]packageIndex
}

// NewHTTPClient returns a client for the server at baseURL authenticating
// with apiKey.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		Retries: defaultRetries,
		Backoff: defaultBackoff,
		index:   make(map[string]packageIndex),
	}
}

// do runs one request with retry. Network errors and 5xx responses are
// retried with doubling backoff; 4xx responses never are, they are
// deterministic.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	target := c.baseURL + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	backoff := c.Backoff
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			clog.FromContext(ctx).Debug("retrying request",
				"method", method, "path", path, "attempt", attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("x-api-key", c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &FetchError{URL: target, Err: err}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode >= 500:
			lastErr = &FetchError{URL: target, Status: resp.StatusCode}
			continue
		case resp.StatusCode >= 400:
			return &FetchError{URL: target, Status: resp.StatusCode}
		}

		if readErr != nil {
			lastErr = &FetchError{URL: target, Err: readErr}
			continue
		}
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response from %s: %w", target, err)
			}
		}
		return nil
	}
	return lastErr
}

// Bundles implements Client.
func (c *HTTPClient) Bundles(ctx context.Context) ([]Bundle, error) {
	var out struct {
		Bundles []Bundle `json:"bundles"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/bundles", nil, &out); err != nil {
		return nil, err
	}
	return out.Bundles, nil
}

// Installers implements Client.
func (c *HTTPClient) Installers(ctx context.Context) ([]Installer, error) {
	var out struct {
		Installers []Installer `json:"installers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/desktop/installers", nil, &out); err != nil {
		return nil, err
	}
	return out.Installers, nil
}

// AddonManifest implements Client.
func (c *HTTPClient) AddonManifest(ctx context.Context, name, ver string) (*manifest.Manifest, error) {
	path := fmt.Sprintf("/api/addons/%s/%s/dependencies",
		url.PathEscape(name), url.PathEscape(ver))

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return manifest.Decode(raw, name+"_"+ver)
}

// CreateDependencyPackage implements Client.
func (c *HTTPClient) CreateDependencyPackage(ctx context.Context, pkg *DependencyPackage) error {
	return c.do(ctx, http.MethodPost, "/api/dependencyPackages", pkg, nil)
}

// UpdateBundle implements Client.
func (c *HTTPClient) UpdateBundle(ctx context.Context, bundle *Bundle) error {
	path := "/api/bundles/" + url.PathEscape(bundle.Name)
	body := map[string]any{
		"dependencyPackages": bundle.DependencyPackages,
	}
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

// EnrollEventJob implements Client.
func (c *HTTPClient) EnrollEventJob(ctx context.Context, sourceTopic, targetTopic, sender string) (*Event, error) {
	body := map[string]any{
		"sourceTopic": sourceTopic,
		"targetTopic": targetTopic,
		"sender":      sender,
		"sequential":  true,
	}
	var out Event
	if err := c.do(ctx, http.MethodPost, "/api/enroll", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrNoEvent
	}
	return &out, nil
}

// UpdateEvent implements Client.
func (c *HTTPClient) UpdateEvent(ctx context.Context, id string, update EventUpdate) error {
	return c.do(ctx, http.MethodPatch, "/api/events/"+url.PathEscape(id), update, nil)
}

// packageIndex is the server's metadata record for one package.
type packageIndex struct {
	Versions []struct {
		Version      string            `json:"version"`
		Dependencies map[string]string `json:"dependencies,omitempty"`
		Kind         string            `json:"kind,omitempty"`
	} `json:"versions"`
}

func (c *HTTPClient) fetchIndex(ctx context.Context, name string) (packageIndex, error) {
	name = manifest.CanonicalName(name)

	c.mu.Lock()
	cached, ok := c.index[name]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var idx packageIndex
	path := "/api/dependencies/packages/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &idx); err != nil {
		return packageIndex{}, &resolver.MetadataError{Name: name, Err: err}
	}

	c.mu.Lock()
	c.index[name] = idx
	c.mu.Unlock()
	return idx, nil
}

// Versions implements resolver.MetadataSource.
func (c *HTTPClient) Versions(ctx context.Context, name string) ([]version.Version, error) {
	idx, err := c.fetchIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]version.Version, 0, len(idx.Versions))
	for _, entry := range idx.Versions {
		v, err := version.Parse(entry.Version)
		if err != nil {
			return nil, &resolver.MetadataError{Name: name, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// Dependencies implements resolver.MetadataSource.
func (c *HTTPClient) Dependencies(ctx context.Context, name string, v version.Version) (manifest.DependencySet, error) {
	idx, err := c.fetchIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, entry := range idx.Versions {
		entryVersion, err := version.Parse(entry.Version)
		if err != nil {
			continue
		}
		if entryVersion.Equal(v) {
			return manifest.NewDependencySet(entry.Dependencies), nil
		}
	}
	return nil, &resolver.MetadataError{
		Name: name,
		Err:  fmt.Errorf("unknown version %s", v),
	}
}

// Kind implements resolver.MetadataSource.
func (c *HTTPClient) Kind(name string, v version.Version) resolver.SourceKind {
	c.mu.Lock()
	idx, ok := c.index[manifest.CanonicalName(name)]
	c.mu.Unlock()
	if !ok {
		return resolver.SourceRegistry
	}
	for _, entry := range idx.Versions {
		if entry.Version == v.String() && entry.Kind == "direct" {
			return resolver.SourceDirect
		}
	}
	return resolver.SourceRegistry
}
