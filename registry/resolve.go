package registry

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/logger"
)

// ProgressFunc receives advisory progress notifications during resolution.
// Notifications are user feedback only, not part of the resolution contract.
type ProgressFunc func(msg string)

// ResolveVersion selects the version to fetch for a package. An explicit
// version is returned unchanged without touching the registry. Otherwise the
// package's release list is fetched, yanked releases are dropped, and the
// maximum remaining version by semver precedence wins.
func ResolveVersion(ctx context.Context, client Client, ref PackageRef, explicit *semver.Version, progress ProgressFunc) (*semver.Version, error) {
	if explicit != nil {
		return explicit, nil
	}

	if progress != nil {
		progress("No version specified; fetching version list...")
	}

	versions, err := client.ListVersions(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list versions of %s", ref)
	}
	logger.Debugw("Fetched version list", "package", ref.String(), "count", len(versions))

	var best *semver.Version
	for _, vi := range versions {
		if vi.Yanked || vi.Version == nil {
			continue
		}
		if best == nil || vi.Version.GreaterThan(best) {
			best = vi.Version
		}
	}
	if best == nil {
		return nil, errors.Wrapf(errors.ErrNoReleases, "package %s", ref)
	}
	return best, nil
}
