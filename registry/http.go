package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/componentry/wkg/config"
	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/internal/httpclient"
	"github.com/componentry/wkg/logger"
)

// HTTPClient talks to a package registry over its JSON HTTP API:
//
//	GET /v1/packages/{namespace}/{name}/releases            -> release list
//	GET /v1/packages/{namespace}/{name}/releases/{version}  -> release metadata
//	GET {content_url}                                       -> raw content bytes
//
// The registry domain for a package comes from the namespace mapping in the
// client configuration.
type HTTPClient struct {
	cfg  *config.Config
	http *httpclient.SaferClient
}

// NewHTTPClient creates a registry client for the given configuration.
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		cfg:  cfg,
		http: httpclient.NewSaferClient(timeout),
	}
}

// NewHTTPClientWith creates a registry client using a caller-supplied HTTP
// client. Tests use this with httpclient.WrapClient to reach httptest servers.
func NewHTTPClientWith(cfg *config.Config, hc *httpclient.SaferClient) *HTTPClient {
	return &HTTPClient{cfg: cfg, http: hc}
}

// baseURL returns the API root for a package's namespace. A configured domain
// may carry an explicit scheme; bare domains get https.
func (c *HTTPClient) baseURL(ref PackageRef) string {
	domain := c.cfg.RegistryFor(ref.Namespace().String())
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return strings.TrimSuffix(domain, "/")
	}
	return "https://" + domain
}

type releaseListResponse struct {
	Releases []VersionInfo `json:"releases"`
}

// ListVersions implements Client.
func (c *HTTPClient) ListVersions(ctx context.Context, ref PackageRef) ([]VersionInfo, error) {
	u := fmt.Sprintf("%s/v1/packages/%s/%s/releases", c.baseURL(ref), ref.Namespace(), ref.Name())
	logger.Debugw("Listing versions", "package", ref.String(), "url", u)

	var list releaseListResponse
	if err := c.getJSON(ctx, u, &list); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, errors.Wrapf(errors.ErrNoReleases, "package %s is not known to the registry", ref)
		}
		return nil, err
	}
	return list.Releases, nil
}

// GetRelease implements Client.
func (c *HTTPClient) GetRelease(ctx context.Context, ref PackageRef, version *semver.Version) (*Release, error) {
	u := fmt.Sprintf("%s/v1/packages/%s/%s/releases/%s", c.baseURL(ref), ref.Namespace(), ref.Name(), version)
	logger.Debugw("Getting release", "package", ref.String(), "version", version.String())

	var release Release
	if err := c.getJSON(ctx, u, &release); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, errors.Wrapf(errors.ErrNoReleases, "no release %s of %s", version, ref)
		}
		return nil, err
	}
	if release.Version == nil {
		release.Version = version
	}
	return &release, nil
}

// StreamContent implements Client. The caller owns the returned stream and
// must close it; it is consumed exactly once.
func (c *HTTPClient) StreamContent(ctx context.Context, ref PackageRef, release *Release) (io.ReadCloser, error) {
	if release.ContentURL == "" {
		return nil, errors.Wrapf(errors.ErrRegistry, "release %s of %s has no content URL", release.Version, ref)
	}

	contentURL, err := c.resolveContentURL(ref, release.ContentURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrRegistry, err.Error()), "building content request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrRegistry, err.Error()), "requesting content")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrRegistry, "content request returned %s", resp.Status)
	}
	return resp.Body, nil
}

// resolveContentURL handles registries that return content URLs relative to
// their own API root.
func (c *HTTPClient) resolveContentURL(ref PackageRef, contentURL string) (string, error) {
	base, err := url.Parse(c.baseURL(ref) + "/")
	if err != nil {
		return "", errors.Wrapf(errors.ErrRegistry, "invalid registry domain for %s", ref)
	}
	u, err := url.Parse(contentURL)
	if err != nil {
		return "", errors.Wrapf(errors.ErrRegistry, "invalid content URL %q", contentURL)
	}
	return base.ResolveReference(u).String(), nil
}

// errNotFound classifies 404 responses internally; callers translate it into
// the error appropriate for their operation.
var errNotFound = errors.New("registry returned 404")

func (c *HTTPClient) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(errors.Wrap(errors.ErrRegistry, err.Error()), "building registry request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.Wrap(errors.ErrRegistry, err.Error()), "registry request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return errors.Wrapf(errors.ErrRegistry, "registry returned %s for %s", resp.Status, u)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.Wrap(errors.ErrRegistry, err.Error()), "decoding registry response")
	}
	return nil
}
