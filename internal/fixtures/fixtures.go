// Package fixtures provides the seed dataset the console starts from.
package fixtures

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/venapictures/vena/internal/models"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Load decodes the embedded seed data. Every call returns a fresh dataset
// that shares no memory with previous calls.
func Load() (*models.Dataset, error) {
	return decode(defaultFixtures)
}

// LoadFile decodes a seed file from disk. An empty path falls back to the
// embedded fixtures.
func LoadFile(path string) (*models.Dataset, error) {
	if path == "" {
		return Load()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	return decode(data)
}

func decode(data []byte) (*models.Dataset, error) {
	var ds models.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("fixtures: decode: %w", err)
	}
	return &ds, nil
}
