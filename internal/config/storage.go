package config

import "github.com/lewisedginton/parallax/internal/storage"

// PromptStorageConfig points at optional prompt template overrides.
type PromptStorageConfig struct {
	Backend string `env:"PROMPT_STORAGE_BACKEND" yaml:"backend" default:"local"` // "local", "git" or "s3"
	// LocalDir is the root for the local backend and the repository for git.
	LocalDir string `env:"PROMPT_STORAGE_LOCAL_DIR" yaml:"local_dir" default:"./data"`
	S3Bucket string `env:"PROMPT_STORAGE_S3_BUCKET" yaml:"s3_bucket"`
	S3Prefix string `env:"PROMPT_STORAGE_S3_PREFIX" yaml:"s3_prefix"`
	S3Region string `env:"PROMPT_STORAGE_S3_REGION" yaml:"s3_region"`
	// S3Endpoint is set for S3-compatible stores such as MinIO.
	S3Endpoint string `env:"PROMPT_STORAGE_S3_ENDPOINT" yaml:"s3_endpoint"`

	GitAuthorName  string `env:"PROMPT_STORAGE_GIT_AUTHOR_NAME" yaml:"git_author_name" default:"parallax"`
	GitAuthorEmail string `env:"PROMPT_STORAGE_GIT_AUTHOR_EMAIL" yaml:"git_author_email" default:"parallax@localhost"`
}

// StorageConfig converts the settings for storage.New.
func (c PromptStorageConfig) StorageConfig() storage.Config {
	return storage.Config{
		Backend:        storage.Backend(c.Backend),
		LocalDir:       c.LocalDir,
		Bucket:         c.S3Bucket,
		Prefix:         c.S3Prefix,
		Region:         c.S3Region,
		Endpoint:       c.S3Endpoint,
		GitAuthorName:  c.GitAuthorName,
		GitAuthorEmail: c.GitAuthorEmail,
	}
}
