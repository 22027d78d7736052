package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/logger"
	"github.com/componentry/wkg/registry"
)

// TempPrefix names the temp files this package creates, so interrupted runs
// are recognizable in the destination directory.
const TempPrefix = ".wkg-get"

// copyChunkSize bounds memory use while streaming: one chunk is written
// before the next is requested.
const copyChunkSize = 32 * 1024

// FetchToTemp streams the release content into a new temp file inside
// destDir. The temp file must share a filesystem with the final output path
// so the publish step is an atomic rename.
//
// When the release carries a content digest, the streamed bytes are verified
// against it. On any failure the temp file is removed. On success the file
// is returned still open, ready to be rewound and read.
func FetchToTemp(ctx context.Context, client registry.Client, ref registry.PackageRef, release *registry.Release, destDir string) (*os.File, error) {
	tmp, err := os.CreateTemp(destDir, TempPrefix+"*")
	if err != nil {
		return nil, errors.Wrapf(err, "creating temp file in %q", destDir)
	}
	logger.Debugw("Created temp file", "tmp", tmp.Name())

	stream, err := client.StreamContent(ctx, ref, release)
	if err != nil {
		DiscardTemp(tmp)
		return nil, errors.Wrapf(err, "opening content stream for %s", ref)
	}
	defer stream.Close()

	var digest hash.Hash
	var wantHex string
	if rest, ok := strings.CutPrefix(release.ContentDigest, "sha256:"); ok {
		digest = sha256.New()
		wantHex = rest
	}

	written, err := copyStream(tmp, stream, digest)
	if err != nil {
		DiscardTemp(tmp)
		return nil, errors.Wrapf(errors.Wrap(errors.ErrFetchIncomplete, err.Error()),
			"content stream for %s ended after %d bytes", ref, written)
	}

	if digest != nil {
		gotHex := hex.EncodeToString(digest.Sum(nil))
		if gotHex != wantHex {
			DiscardTemp(tmp)
			return nil, errors.Wrapf(errors.ErrFetchIncomplete,
				"content digest mismatch for %s: got sha256:%s, want sha256:%s", ref, gotHex, wantHex)
		}
	}

	logger.Debugw("Fetched content", "package", ref.String(), "bytes", written)
	return tmp, nil
}

// copyStream writes the stream to the temp file chunk by chunk, in order,
// optionally feeding a digest. Write errors and read errors are both fatal;
// the caller decides cleanup.
func copyStream(tmp *os.File, stream io.Reader, digest hash.Hash) (int64, error) {
	buf := make([]byte, copyChunkSize)
	var written int64
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, err := tmp.Write(buf[:n]); err != nil {
				return written, errors.Wrap(err, "writing chunk")
			}
			if digest != nil {
				digest.Write(buf[:n])
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// DiscardTemp closes and removes a temp file, logging rather than failing on
// cleanup errors.
func DiscardTemp(tmp *os.File) {
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		logger.Warnw("Failed to close temp file", "tmp", name, "error", err.Error())
	}
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to remove temp file", "tmp", name, "error", err.Error())
	}
}
