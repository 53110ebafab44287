// Package store persists trained model parameters.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/reallyasi9/film-margin/internal/film"
	yaml "gopkg.in/yaml.v2"
)

// ErrNoParameters is returned when nothing has been stored yet.
var ErrNoParameters = errors.New("no model parameters stored")

// ParameterStore reads and writes the current model parameters.
type ParameterStore interface {
	Read(ctx context.Context) (*film.ModelParameters, error)
	Write(ctx context.Context, params *film.ModelParameters) error
}

// FileStore keeps parameters in a local file. Files ending in .yaml or .yml are YAML, everything else JSON.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// Read implements ParameterStore.
func (s *FileStore) Read(_ context.Context) (*film.ModelParameters, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path, ErrNoParameters)
	}
	if err != nil {
		return nil, err
	}

	var params film.ModelParameters
	if s.isYAML() {
		err = yaml.Unmarshal(b, &params)
	} else {
		err = json.Unmarshal(b, &params)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return &params, nil
}

// Write implements ParameterStore, replacing the file.
func (s *FileStore) Write(_ context.Context, params *film.ModelParameters) error {
	var b []byte
	var err error
	if s.isYAML() {
		b, err = yaml.Marshal(params)
	} else {
		b, err = json.MarshalIndent(params, "", "    ")
	}
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, b, 0o644)
}
