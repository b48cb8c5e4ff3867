package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := NewApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.RunContext(context.Background(), append([]string{"parallax"}, args...))
	return out.String(), err
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
}

func TestConfigValidate_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallax.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0o600))
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	_, err := run(t, "--config-file", path, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api key")
}

func TestMigrateUp_WithoutDatabase(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	_, err := run(t, "migrate", "up")
	assert.ErrorContains(t, err, "no database configured")
}

func TestEventsWatch_RequiresRedis(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	_, err := run(t, "events", "watch")
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestPrompts_GitBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("PROMPT_STORAGE_BACKEND", "git")
	t.Setenv("PROMPT_STORAGE_LOCAL_DIR", dir)

	out, err := run(t, "prompts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "extraction.tmpl\tdefault")
	assert.Contains(t, out, "mediation.tmpl\tdefault")

	override := filepath.Join(t.TempDir(), "extraction.tmpl")
	require.NoError(t, os.WriteFile(override, []byte("Short rules.\n{{ .Conversation }}\n"), 0o600))

	out, err = run(t, "prompts", "push", "--file", override, "extraction.tmpl")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored override for extraction.tmpl")

	out, err = run(t, "prompts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "extraction.tmpl\toverride")

	out, err = run(t, "prompts", "show", "extraction.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "Short rules.\n{{ .Conversation }}\n", out)

	_, err = run(t, "prompts", "delete", "extraction.tmpl")
	require.NoError(t, err)

	out, err = run(t, "prompts", "show", "extraction.tmpl")
	require.NoError(t, err)
	assert.Contains(t, out, "Parallax's insight extractor")

	// one commit for the push, one for the delete
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	commits, err := repo.Log(&git.LogOptions{})
	require.NoError(t, err)
	count := 0
	require.NoError(t, commits.ForEach(func(*object.Commit) error {
		count++
		return nil
	}))
	assert.Equal(t, 2, count)
}

func TestPrompts_PushRejectsInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("PROMPT_STORAGE_LOCAL_DIR", dir)

	bad := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(bad, []byte("{{ .NoSuchField }}"), 0o600))

	_, err := run(t, "prompts", "push", "--file", bad, "mediation.tmpl")
	assert.ErrorContains(t, err, "override rejected")

	_, statErr := os.Stat(filepath.Join(dir, "prompts", "mediation.tmpl"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = run(t, "prompts", "show", "other.tmpl")
	assert.ErrorContains(t, err, "template must be one of")
}
