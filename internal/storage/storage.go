package storage

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Backend selects where blobs live.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
	BackendGit   Backend = "git"
)

// Config describes a storage backend.
type Config struct {
	Backend  Backend
	LocalDir string
	Bucket   string
	Prefix   string
	Region   string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint string
	// The git backend commits into the repository at LocalDir.
	GitAuthorName  string
	GitAuthorEmail string
}

// Manager hands out namespace-scoped providers over one backend.
type Manager struct {
	backend  Backend
	provider FileProvider
}

// New builds the backend described by cfg. For S3 the SDK's default
// credential chain is used.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("local storage requires a directory")
		}
		return &Manager{backend: BackendLocal, provider: NewLocalFileProvider(cfg.LocalDir)}, nil

	case BackendS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = &cfg.Endpoint
				o.UsePathStyle = true
			}
		})
		return &Manager{
			backend:  BackendS3,
			provider: NewS3FileProvider(cfg.Bucket, cfg.Prefix, NewAWSS3Client(client)),
		}, nil

	case BackendGit:
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("git storage requires a directory")
		}
		provider, err := NewGitFileProvider(GitOptions{
			Path:        cfg.LocalDir,
			AuthorName:  cfg.GitAuthorName,
			AuthorEmail: cfg.GitAuthorEmail,
		})
		if err != nil {
			return nil, err
		}
		return &Manager{backend: BackendGit, provider: provider}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// NewWithProvider wraps an existing provider, mainly for tests.
func NewWithProvider(provider FileProvider) *Manager {
	return &Manager{provider: provider}
}

// Namespace returns a provider isolated below name.
func (m *Manager) Namespace(name string) FileProvider {
	if name == "" {
		return m.provider
	}
	return NewPrefixedFileProvider(m.provider, name)
}

// Backend reports which backend the manager was built for; empty for
// NewWithProvider.
func (m *Manager) Backend() Backend {
	return m.backend
}
