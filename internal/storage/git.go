package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitFileProvider keeps blobs in the working tree of a local git repository
// and records every write and delete as a commit, so prompt changes carry
// history and can be reverted with plain git.
type GitFileProvider struct {
	files  *LocalFileProvider
	repo   *git.Repository
	author object.Signature
	now    func() time.Time
	mu     sync.Mutex
}

// GitOptions configures NewGitFileProvider.
type GitOptions struct {
	Path        string
	AuthorName  string
	AuthorEmail string
}

// NewGitFileProvider opens the repository at opts.Path, initialising it
// when the directory holds none.
func NewGitFileProvider(opts GitOptions) (*GitFileProvider, error) {
	if opts.Path == "" {
		return nil, errors.New("git storage requires a repository path")
	}
	if opts.AuthorName == "" {
		opts.AuthorName = "parallax"
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = "parallax@localhost"
	}

	repo, err := git.PlainOpen(opts.Path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create repository directory: %w", err)
		}
		repo, err = git.PlainInit(opts.Path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository %s: %w", opts.Path, err)
	}

	return &GitFileProvider{
		files:  NewLocalFileProvider(opts.Path),
		repo:   repo,
		author: object.Signature{Name: opts.AuthorName, Email: opts.AuthorEmail},
		now:    time.Now,
	}, nil
}

// Read returns a file from the working tree. Paths under .git are not visible.
func (p *GitFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	if isGitPath(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return p.files.Read(ctx, path)
}

// Exists reports whether path is present in the working tree.
func (p *GitFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	if isGitPath(path) {
		return false, nil
	}
	return p.files.Exists(ctx, path)
}

// Write stores data and commits it. Rewriting identical content makes no commit.
func (p *GitFileProvider) Write(ctx context.Context, path string, data []byte) error {
	if isGitPath(path) {
		return fmt.Errorf("path %q is reserved", path)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.files.Write(ctx, path, data); err != nil {
		return err
	}
	wt, err := p.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := wt.Add(cleanPath(path)); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	return p.commit(wt, "Update "+cleanPath(path))
}

// Delete removes and commits. A missing blob is not an error.
func (p *GitFileProvider) Delete(ctx context.Context, path string) error {
	if isGitPath(path) {
		return fmt.Errorf("path %q is reserved", path)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ok, err := p.files.Exists(ctx, path)
	if err != nil || !ok {
		return err
	}
	wt, err := p.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := wt.Remove(cleanPath(path)); err != nil {
		// Untracked files are removed from disk only.
		return p.files.Delete(ctx, path)
	}
	return p.commit(wt, "Delete "+cleanPath(path))
}

// List returns working tree paths under prefix, excluding .git.
func (p *GitFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	paths, err := p.files.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if !isGitPath(path) {
			result = append(result, path)
		}
	}
	return result, nil
}

func (p *GitFileProvider) commit(wt *git.Worktree, message string) error {
	author := p.author
	author.When = p.now()
	_, err := wt.Commit(message, &git.CommitOptions{Author: &author})
	if errors.Is(err, git.ErrEmptyCommit) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func cleanPath(path string) string {
	return strings.TrimLeft(path, "/")
}

func isGitPath(path string) bool {
	path = cleanPath(path)
	return path == ".git" || strings.HasPrefix(path, ".git/")
}
