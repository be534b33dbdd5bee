/*
Package bucket stores uploaded client files on the local filesystem.

PURPOSE:
  Invoices, contracts and documents carry a file. The database keeps only
  the object key; the bytes live under <root>/<bucket>/<key>.

BUCKETS:
  client-invoices, client-contracts, client-documents

KEYS:
  NewKey builds "<clientID>/<uuid><ext>" so uploads never collide and the
  original filename never reaches the filesystem. Keys containing "..",
  absolute paths or backslashes are rejected.

WRITES:
  Put streams into a temp file in the target directory and renames it into
  place, so readers never see a partial object.
*/
package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Name identifies a bucket.
type Name string

const (
	Invoices  Name = "client-invoices"
	Contracts Name = "client-contracts"
	Documents Name = "client-documents"
)

// Names lists every bucket created by New.
func Names() []Name {
	return []Name{Invoices, Contracts, Documents}
}

var (
	ErrInvalidKey    = errors.New("invalid object key")
	ErrUnknownBucket = errors.New("unknown bucket")
	ErrNotFound      = errors.New("object not found")
)

// maxExtLen bounds the extension kept from an uploaded filename.
const maxExtLen = 10

// Store is a set of buckets rooted at one directory.
type Store struct {
	root string
}

// New creates the root and bucket directories if needed.
func New(root string) (*Store, error) {
	for _, b := range Names() {
		if err := os.MkdirAll(filepath.Join(root, string(b)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", b, err)
		}
	}
	return &Store{root: root}, nil
}

// NewKey returns a fresh object key for a client's upload.
func NewKey(clientID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > maxExtLen || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return clientID + "/" + uuid.NewString() + ext
}

// Put writes r to bucket/key and returns the number of bytes written.
func (s *Store) Put(ctx context.Context, bucket Name, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	full, err := s.resolve(bucket, key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return 0, fmt.Errorf("failed to store object: %w", err)
	}
	return n, nil
}

// Open returns a reader for bucket/key. The caller closes it.
func (s *Store) Open(ctx context.Context, bucket Name, key string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(bucket, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// Delete removes bucket/key. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, bucket Name, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// resolve maps bucket/key to a path under root, rejecting anything that
// would escape the bucket directory.
func (s *Store) resolve(bucket Name, key string) (string, error) {
	switch bucket {
	case Invoices, Contracts, Documents:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBucket, string(bucket))
	}

	if key == "" || strings.Contains(key, `\`) || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	base := filepath.Join(s.root, string(bucket))
	full := filepath.Join(base, filepath.FromSlash(path.Clean(key)))
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return full, nil
}
