package registry

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/componentry/wkg/errors"
)

// PackageRef is a package reference, consisting of kebab-case namespace and
// name, e.g. "wasi:cli". Immutable; construct only via ParseRef.
type PackageRef struct {
	namespace Label
	name      Label
}

// ParseRef parses a "namespace:name" package reference.
func ParseRef(text string) (PackageRef, error) {
	namespace, name, found := strings.Cut(text, ":")
	if !found {
		return PackageRef{}, errors.NewInvalidReference("%q missing expected ':'", text)
	}
	if strings.Contains(name, ":") {
		return PackageRef{}, errors.NewInvalidReference("%q has more than one ':'", text)
	}

	ns, err := ParseLabel(namespace)
	if err != nil {
		return PackageRef{}, errors.Wrapf(err, "invalid namespace in %q", text)
	}
	n, err := ParseLabel(name)
	if err != nil {
		return PackageRef{}, errors.Wrapf(err, "invalid name in %q", text)
	}

	return PackageRef{namespace: ns, name: n}, nil
}

// Namespace returns the namespace of the package.
func (r PackageRef) Namespace() Label {
	return r.namespace
}

// Name returns the name of the package.
func (r PackageRef) Name() Label {
	return r.name
}

// String returns the canonical "namespace:name" form. Re-parsing the result
// yields an equal PackageRef.
func (r PackageRef) String() string {
	return string(r.namespace) + ":" + string(r.name)
}

// PackageSpec is a parsed CLI package argument: a reference plus an optional
// explicit version.
type PackageSpec struct {
	Ref     PackageRef
	Version *semver.Version
}

// ParseSpec parses "<namespace>:<name>[@<version>]".
func ParseSpec(text string) (PackageSpec, error) {
	refText, versionText, hasVersion := strings.Cut(text, "@")

	ref, err := ParseRef(refText)
	if err != nil {
		return PackageSpec{}, err
	}

	spec := PackageSpec{Ref: ref}
	if hasVersion {
		v, err := semver.StrictNewVersion(versionText)
		if err != nil {
			return PackageSpec{}, errors.Wrapf(errors.Wrap(errors.ErrInvalidReference, err.Error()),
				"invalid version %q in %q", versionText, text)
		}
		spec.Version = v
	}
	return spec, nil
}

// String returns the canonical spec form, with "@version" when present.
func (s PackageSpec) String() string {
	if s.Version == nil {
		return s.Ref.String()
	}
	return s.Ref.String() + "@" + s.Version.String()
}
