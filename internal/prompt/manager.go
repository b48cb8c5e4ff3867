package prompt

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/lewisedginton/parallax/internal/storage"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// Manager loads template overrides from a prompt store.
type Manager struct {
	provider storage.FileProvider
	log      logger.Logger
}

// NewManager creates a manager reading from provider.
func NewManager(provider storage.FileProvider, log logger.Logger) *Manager {
	if provider == nil {
		panic("file provider cannot be nil")
	}
	return &Manager{provider: provider, log: log}
}

// Load returns a builder with every valid override applied. Missing files
// keep the embedded default; invalid ones are logged and skipped. Only store
// errors other than absence are returned.
func (m *Manager) Load(ctx context.Context) (*Builder, error) {
	builder := NewBuilder()
	for _, name := range TemplateNames {
		ok, err := m.provider.Exists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check prompt override %s: %w", name, err)
		}
		if !ok {
			continue
		}

		text, err := m.provider.Read(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt override %s: %w", name, err)
		}

		next, err := builder.WithOverride(name, string(text))
		if err != nil {
			m.log.Warn("Ignoring invalid prompt override",
				logger.StringField("template", name),
				logger.ErrorField(err))
			continue
		}
		m.log.Info("Loaded prompt override", logger.StringField("template", name))
		builder = next
	}
	return builder, nil
}

// Overrides lists the template names that currently have an override.
func (m *Manager) Overrides(ctx context.Context) ([]string, error) {
	files, err := m.provider.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt overrides: %w", err)
	}
	var names []string
	for _, name := range TemplateNames {
		if slices.Contains(files, name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Template returns the effective text of name and whether it is an override.
func (m *Manager) Template(ctx context.Context, name string) (string, bool, error) {
	def, err := DefaultTemplate(name)
	if err != nil {
		return "", false, err
	}
	text, err := m.provider.Read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return def, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read prompt override %s: %w", name, err)
	}
	return string(text), true, nil
}

// Push validates text as an override for name and stores it. Text that
// does not parse or render is rejected before anything is written.
func (m *Manager) Push(ctx context.Context, name, text string) error {
	if _, err := NewBuilder().WithOverride(name, text); err != nil {
		return err
	}
	if err := m.provider.Write(ctx, name, []byte(text)); err != nil {
		return fmt.Errorf("failed to store prompt override %s: %w", name, err)
	}
	m.log.Info("Stored prompt override", logger.StringField("template", name))
	return nil
}

// Reset removes the override for name, restoring the embedded default.
func (m *Manager) Reset(ctx context.Context, name string) error {
	if _, err := DefaultTemplate(name); err != nil {
		return err
	}
	if err := m.provider.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete prompt override %s: %w", name, err)
	}
	m.log.Info("Removed prompt override", logger.StringField("template", name))
	return nil
}
