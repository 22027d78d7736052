package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/registry"
)

// chunkReader yields one configured chunk per Read call, then the configured
// terminal error (io.EOF for a complete stream).
type chunkReader struct {
	chunks [][]byte
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]
	n := copy(p, chunk)
	return n, nil
}

func (r *chunkReader) Close() error { return nil }

// streamClient serves a fixed content stream.
type streamClient struct {
	stream    io.ReadCloser
	streamErr error
}

func (c *streamClient) ListVersions(ctx context.Context, ref registry.PackageRef) ([]registry.VersionInfo, error) {
	return nil, errors.New("not implemented")
}

func (c *streamClient) GetRelease(ctx context.Context, ref registry.PackageRef, version *semver.Version) (*registry.Release, error) {
	return nil, errors.New("not implemented")
}

func (c *streamClient) StreamContent(ctx context.Context, ref registry.PackageRef, release *registry.Release) (io.ReadCloser, error) {
	if c.streamErr != nil {
		return nil, c.streamErr
	}
	return c.stream, nil
}

func testRef(t *testing.T) registry.PackageRef {
	t.Helper()
	ref, err := registry.ParseRef("wasi:cli")
	require.NoError(t, err)
	return ref
}

func listTempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, TempPrefix+"*"))
	require.NoError(t, err)
	return matches
}

func TestFetchToTempWritesChunksInOrder(t *testing.T) {
	dir := t.TempDir()
	client := &streamClient{stream: &chunkReader{chunks: [][]byte{[]byte("ab"), []byte("cd")}}}

	tmp, err := FetchToTemp(context.Background(), client, testRef(t), &registry.Release{}, dir)
	require.NoError(t, err)
	defer DiscardTemp(tmp)

	_, err = tmp.Seek(0, io.SeekStart)
	require.NoError(t, err)
	got, err := io.ReadAll(tmp)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(got))

	// Temp lives in the destination directory, under the recognizable prefix
	assert.Equal(t, dir, filepath.Dir(tmp.Name()))
	assert.Contains(t, filepath.Base(tmp.Name()), TempPrefix)
}

func TestFetchToTempStreamError(t *testing.T) {
	dir := t.TempDir()
	client := &streamClient{stream: &chunkReader{
		chunks: [][]byte{[]byte("ab")},
		err:    errors.New("connection reset"),
	}}

	_, err := FetchToTemp(context.Background(), client, testRef(t), &registry.Release{}, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFetchIncomplete))

	// Partial temp file is discarded
	assert.Empty(t, listTempFiles(t, dir))
}

func TestFetchToTempOpenStreamError(t *testing.T) {
	dir := t.TempDir()
	client := &streamClient{streamErr: errors.Wrap(errors.ErrRegistry, "boom")}

	_, err := FetchToTemp(context.Background(), client, testRef(t), &registry.Release{}, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRegistry))
	assert.Empty(t, listTempFiles(t, dir))
}

func TestFetchToTempVerifiesDigest(t *testing.T) {
	dir := t.TempDir()
	content := []byte("component bytes")
	sum := sha256.Sum256(content)

	client := &streamClient{stream: &chunkReader{chunks: [][]byte{content}}}
	release := &registry.Release{ContentDigest: "sha256:" + hex.EncodeToString(sum[:])}

	tmp, err := FetchToTemp(context.Background(), client, testRef(t), release, dir)
	require.NoError(t, err)
	DiscardTemp(tmp)
}

func TestFetchToTempDigestMismatch(t *testing.T) {
	dir := t.TempDir()
	client := &streamClient{stream: &chunkReader{chunks: [][]byte{[]byte("tampered")}}}
	release := &registry.Release{ContentDigest: "sha256:" + hex.EncodeToString(make([]byte, 32))}

	_, err := FetchToTemp(context.Background(), client, testRef(t), release, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFetchIncomplete))
	assert.Empty(t, listTempFiles(t, dir))
}

func TestFetchToTempMissingDestDir(t *testing.T) {
	client := &streamClient{stream: &chunkReader{}}
	_, err := FetchToTemp(context.Background(), client, testRef(t), &registry.Release{},
		filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestDiscardTempRemovesFile(t *testing.T) {
	dir := t.TempDir()
	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	require.NoError(t, err)

	DiscardTemp(tmp)
	assert.Empty(t, listTempFiles(t, dir))
}
