package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/logger"
	"github.com/componentry/wkg/registry"
)

// OutputTarget is the user's output choice, computed once from the --output
// flag. A trailing path separator selects directory mode, where the final
// filename is synthesized from the package identity.
type OutputTarget struct {
	DirMode bool
	Path    string
}

// NewOutputTarget classifies an output path.
func NewOutputTarget(path string) OutputTarget {
	dirMode := strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator))
	return OutputTarget{DirMode: dirMode, Path: path}
}

// DestDir returns the directory that will hold the final artifact. Temp files
// are created here so the final commit is a same-volume rename.
func (t OutputTarget) DestDir() string {
	if t.DirMode {
		return filepath.Clean(t.Path)
	}
	dir := filepath.Dir(t.Path)
	if dir == "" {
		return "."
	}
	return dir
}

// FinalPath computes the artifact's destination. Directory mode synthesizes
// "{namespace}_{name}@{version}.{ext}" with ext wit or wasm depending on
// whether decoded text is being published.
func (t OutputTarget) FinalPath(ref registry.PackageRef, version *semver.Version, decoded bool) string {
	if !t.DirMode {
		return t.Path
	}
	ext := "wasm"
	if decoded {
		ext = "wit"
	}
	name := fmt.Sprintf("%s_%s@%s.%s", ref.Namespace(), ref.Name(), version, ext)
	return filepath.Join(t.Path, name)
}

// Publish commits the artifact to its final path. Decoded WIT text (non-empty
// witText) is written through a sibling temp file and renamed into place; a
// raw binary is committed by renaming the fetch temp file itself, so large
// content is never byte-copied. Either way the write is atomic with respect
// to partial content.
//
// Publish consumes the temp file in every case: renamed on a raw commit,
// discarded otherwise. The existence check is best-effort: concurrent
// invocations racing for the same path are not coordinated.
func Publish(tmp *os.File, witText string, target OutputTarget, ref registry.PackageRef, version *semver.Version, overwrite bool) (string, error) {
	decoded := witText != ""
	finalPath := target.FinalPath(ref, version, decoded)

	if !overwrite {
		if _, err := os.Lstat(finalPath); err == nil {
			DiscardTemp(tmp)
			return "", errors.WithHint(
				errors.Wrapf(errors.ErrOutputExists, "%q", finalPath),
				"use --overwrite to replace it")
		}
	}

	if decoded {
		DiscardTemp(tmp)
		if err := writeFileAtomic(finalPath, []byte(witText)); err != nil {
			return "", errors.Wrapf(err, "failed to write WIT to %q", finalPath)
		}
	} else {
		if err := commitTemp(tmp, finalPath); err != nil {
			return "", errors.Wrapf(err, "failed to persist wasm to %q", finalPath)
		}
	}

	logger.Infow("Published artifact", "package", ref.String(), "version", version.String(), "output", finalPath)
	return finalPath, nil
}

// commitTemp renames the fetch temp file into place.
func commitTemp(tmp *os.File, finalPath string) error {
	name := tmp.Name()
	// World-readable like a regular created file; CreateTemp is 0600
	if err := tmp.Chmod(0o644); err != nil {
		logger.Debugw("Failed to chmod temp file", "tmp", name, "error", err.Error())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return os.Rename(name, finalPath)
}

// writeFileAtomic writes data through a temp file in the destination
// directory and renames it into place.
func writeFileAtomic(finalPath string, data []byte) error {
	dir := filepath.Dir(finalPath)
	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %q", dir)
	}
	if _, err := tmp.Write(data); err != nil {
		DiscardTemp(tmp)
		return errors.Wrap(err, "writing temp file")
	}
	if err := commitTemp(tmp, finalPath); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
