package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"imgres/asset"
	"imgres/names"
)

// YAMLStore keeps one YAML document per scope under a directory:
// <dir>/<kind>/<name>.yaml.
type YAMLStore struct {
	dir string
	log *zap.Logger
	mu  sync.Mutex
}

type yamlDocument struct {
	Scope  string        `yaml:"scope"`
	Assets []asset.Entry `yaml:"assets"`
}

func NewYAMLStore(dir string, log *zap.Logger) (*YAMLStore, error) {
	if len(dir) == 0 {
		return nil, errors.New("yaml registry requires directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create registry directory: %w", err)
	}
	return &YAMLStore{dir: dir, log: log.Named("registry")}, nil
}

// Dir returns registry root directory.
func (s *YAMLStore) Dir() string {
	return s.dir
}

// Path returns name of the file holding scope entries.
func (s *YAMLStore) Path(scope asset.Scope) string {
	return filepath.Join(s.dir, scope.Kind.String(), names.SanitizeSegment(scope.ID)+".yaml")
}

func (s *YAMLStore) ReadAssets(ctx context.Context, scope asset.Scope) ([]asset.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fname := s.Path(scope)
	data, err := os.ReadFile(fname)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read registry for %s: %w", scope, err)
	}

	var doc yamlDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to decode registry file '%s': %w", fname, err)
	}
	if len(doc.Scope) > 0 && doc.Scope != scope.Key() {
		// sanitized file names of different scopes may clash
		s.log.Warn("Registry file belongs to another scope, ignoring",
			zap.String("file", fname), zap.String("scope", scope.Key()), zap.String("owner", doc.Scope))
		return nil, nil
	}
	return doc.Assets, nil
}

func (s *YAMLStore) WriteAssets(ctx context.Context, scope asset.Scope, entries []asset.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(yamlDocument{Scope: scope.Key(), Assets: entries})
	if err != nil {
		return fmt.Errorf("unable to encode registry for %s: %w", scope, err)
	}

	fname := s.Path(scope)
	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return fmt.Errorf("%w: unable to create registry directory: %w", asset.ErrTransientWrite, err)
	}
	// write next to destination and rename, readers never see partial file
	tmp := filepath.Join(filepath.Dir(fname), "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: unable to write registry file: %w", asset.ErrTransientWrite, err)
	}
	if err := os.Rename(tmp, fname); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: unable to replace registry file '%s': %w", asset.ErrTransientWrite, fname, err)
	}
	s.log.Debug("Registry written", zap.String("scope", scope.Key()), zap.Int("assets", len(entries)))
	return nil
}

func (s *YAMLStore) Close() error {
	return nil
}
