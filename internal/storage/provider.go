// Package storage provides the blob backends used for prompt template
// overrides. Both the local filesystem and S3 are supported behind one
// FileProvider interface, and callers receive a namespace-scoped view.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a blob does not exist in the backend.
var ErrNotFound = errors.New("object not found")

// FileProvider is a minimal blob store.
type FileProvider interface {
	// Read returns the full content, or an error wrapping ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	// List returns paths below prefix, relative to the provider root.
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalFileProvider stores blobs below a base directory.
type LocalFileProvider struct {
	baseDir string
}

// NewLocalFileProvider returns a provider rooted at baseDir.
func NewLocalFileProvider(baseDir string) *LocalFileProvider {
	return &LocalFileProvider{baseDir: baseDir}
}

func (p *LocalFileProvider) resolve(path string) (string, error) {
	full := filepath.Join(p.baseDir, filepath.FromSlash(path))
	rel, err := filepath.Rel(p.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return full, nil
}

// Read returns the file contents, wrapping ErrNotFound when missing.
func (p *LocalFileProvider) Read(_ context.Context, path string) ([]byte, error) {
	full, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full) //nolint:gosec // G304: confined to baseDir by resolve
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return data, err
}

// Write creates parent directories as needed and replaces the file.
func (p *LocalFileProvider) Write(_ context.Context, path string, data []byte) error {
	full, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return os.WriteFile(full, data, 0o600)
}

// Exists reports whether path is a file under the base directory.
func (p *LocalFileProvider) Exists(_ context.Context, path string) (bool, error) {
	full, err := p.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Delete is idempotent: removing a missing blob is not an error.
func (p *LocalFileProvider) Delete(_ context.Context, path string) error {
	full, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List walks the base directory and returns slash-separated relative paths
// under prefix.
func (p *LocalFileProvider) List(_ context.Context, prefix string) ([]string, error) {
	root, err := p.resolve(prefix)
	if err != nil {
		return nil, err
	}

	result := []string{}
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, os.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(p.baseDir, path); relErr == nil {
			result = append(result, filepath.ToSlash(rel))
		}
		return nil
	})
	return result, err
}

// S3FileProvider stores blobs in a bucket under an optional key prefix.
type S3FileProvider struct {
	bucket string
	prefix string
	client S3Client
}

// NewS3FileProvider returns a provider backed by client.
func NewS3FileProvider(bucket, prefix string, client S3Client) *S3FileProvider {
	return &S3FileProvider{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		client: client,
	}
}

func (p *S3FileProvider) key(path string) string {
	return joinPath(p.prefix, path)
}

// Read fetches the object stored at path.
func (p *S3FileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return p.client.GetObject(ctx, p.bucket, p.key(path))
}

// Write uploads data to path, replacing any existing object.
func (p *S3FileProvider) Write(ctx context.Context, path string, data []byte) error {
	return p.client.PutObject(ctx, p.bucket, p.key(path), data)
}

// Exists maps a missing key to (false, nil); any other failure is returned.
func (p *S3FileProvider) Exists(ctx context.Context, path string) (bool, error) {
	err := p.client.HeadObject(ctx, p.bucket, p.key(path))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the object. S3 treats missing keys as success.
func (p *S3FileProvider) Delete(ctx context.Context, path string) error {
	return p.client.DeleteObject(ctx, p.bucket, p.key(path))
}

// List returns object keys under prefix.
func (p *S3FileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.client.ListObjects(ctx, p.bucket, p.key(prefix))
	if err != nil {
		return nil, err
	}
	return trimPrefix(keys, p.prefix), nil
}

// PrefixedFileProvider scopes another provider to a namespace.
type PrefixedFileProvider struct {
	inner  FileProvider
	prefix string
}

// NewPrefixedFileProvider wraps inner so every path is below prefix.
func NewPrefixedFileProvider(inner FileProvider, prefix string) *PrefixedFileProvider {
	return &PrefixedFileProvider{inner: inner, prefix: strings.Trim(prefix, "/")}
}

// Read reads path under the namespace prefix.
func (p *PrefixedFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return p.inner.Read(ctx, joinPath(p.prefix, path))
}

// Write writes path under the namespace prefix.
func (p *PrefixedFileProvider) Write(ctx context.Context, path string, data []byte) error {
	return p.inner.Write(ctx, joinPath(p.prefix, path), data)
}

// Exists checks path under the namespace prefix.
func (p *PrefixedFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	return p.inner.Exists(ctx, joinPath(p.prefix, path))
}

// Delete removes path under the namespace prefix.
func (p *PrefixedFileProvider) Delete(ctx context.Context, path string) error {
	return p.inner.Delete(ctx, joinPath(p.prefix, path))
}

// List returns paths relative to the namespace prefix.
func (p *PrefixedFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := p.inner.List(ctx, joinPath(p.prefix, prefix))
	if err != nil {
		return nil, err
	}
	return trimPrefix(files, p.prefix), nil
}

func joinPath(prefix, path string) string {
	path = strings.TrimLeft(path, "/")
	if prefix == "" {
		return path
	}
	if path == "" {
		return prefix + "/"
	}
	return prefix + "/" + path
}

func trimPrefix(paths []string, prefix string) []string {
	result := make([]string, 0, len(paths))
	if prefix == "" {
		return append(result, paths...)
	}
	for _, p := range paths {
		if rel, ok := strings.CutPrefix(p, prefix+"/"); ok && rel != "" {
			result = append(result, rel)
		}
	}
	return result
}
