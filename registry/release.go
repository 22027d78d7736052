package registry

import (
	"context"
	"io"

	"github.com/Masterminds/semver/v3"
)

// VersionInfo describes one known release of a package, as reported by the
// registry's version listing.
type VersionInfo struct {
	Version *semver.Version `json:"version"`
	Yanked  bool            `json:"yanked"`
}

// Release is the registry metadata needed to fetch the content of one
// resolved package version.
type Release struct {
	Version *semver.Version `json:"version"`

	// ContentDigest is "sha256:<hex>" of the package content; verified
	// during fetch when non-empty
	ContentDigest string `json:"content_digest"`

	// ContentURL is where the raw content bytes are served
	ContentURL string `json:"content_url"`
}

// Client is the registry capability consumed by the fetch pipeline. The
// content stream returned by StreamContent is lazy, finite, and
// non-restartable; ownership transfers to the caller, which must close it.
type Client interface {
	// ListVersions returns every known release of the package, including
	// yanked ones.
	ListVersions(ctx context.Context, ref PackageRef) ([]VersionInfo, error)

	// GetRelease returns the metadata needed to fetch one version's content.
	GetRelease(ctx context.Context, ref PackageRef, version *semver.Version) (*Release, error)

	// StreamContent opens the content byte stream for a release.
	StreamContent(ctx context.Context, ref PackageRef, release *Release) (io.ReadCloser, error)
}
