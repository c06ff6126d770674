package ttkeep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ttkeep/pkg/ratelimiter"
)

var (
	// APIBase is the base URL for the resolver API.
	APIBase = "https://tikwm.com/api"
	// Debug enables verbose logging of API responses.
	Debug = false
)

// permanentMarkers are API error message fragments that mean the post is gone
// for good: retrying within the run cannot help.
var permanentMarkers = []string{
	"not exist",
	"is private",
	"removed",
	"url is invalid",
	"parse video failed",
	"video not available",
}

// Resolver turns a post identifier into direct media locations by querying
// the resolver API. Requests are paced by the rate limiter to respect the
// API's free-tier limits.
type Resolver struct {
	Base       string
	HTTPClient *http.Client
	limiter    *ratelimiter.RateLimiter
}

// NewResolver creates a Resolver. A nil limiter disables pacing.
func NewResolver(base string, limiter *ratelimiter.RateLimiter) *Resolver {
	if base == "" {
		base = APIBase
	}
	return &Resolver{
		Base: base,
		HTTPClient: &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
			Timeout:   time.Minute,
		},
		limiter: limiter,
	}
}

// Raw executes a raw request against the resolver API.
func (r *Resolver) Raw(ctx context.Context, method string, query map[string]string) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(); err != nil {
			return nil, err
		}
	}
	urlPath := strings.TrimSuffix(r.Base, "/")
	if method != "" {
		urlPath = fmt.Sprintf("%s/%s", urlPath, method)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	for key, val := range query {
		q.Add(key, val)
	}
	req.URL.RawQuery = q.Encode()
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	buffer, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("resolver rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}
	return buffer, nil
}

// rawParsed executes a raw request and parses the enveloped JSON response.
func rawParsed[T any](ctx context.Context, r *Resolver, method string, query map[string]string) (*T, error) {
	data, err := r.Raw(ctx, method, query)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data *T     `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("resolver returned unparsable response: %w", err)
	}
	if resp.Code != 0 {
		return nil, classifyAPIError(resp.Code, resp.Msg, method)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("resolver returned empty data for %q", method)
	}
	return resp.Data, nil
}

// classifyAPIError maps a non-zero API response code to either a permanent
// failure (no retry this run) or a transient one.
func classifyAPIError(code int, msg, method string) error {
	lower := strings.ToLower(msg)
	for _, marker := range permanentMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s (%d)", ErrPermanent, msg, code)
		}
	}
	return fmt.Errorf("resolver error: %s (%d) [%s]", msg, code, method)
}

// Resolve fetches the media locations for a single post identifier.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*Post, error) {
	post, err := rawParsed[Post](ctx, r, "", map[string]string{"url": identifier, "hd": "1"})
	if err != nil {
		return nil, err
	}
	if Debug {
		if buf, err := json.Marshal(post); err == nil {
			fmt.Println(string(buf))
		}
	}
	return post, nil
}
