package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// LoadTaxonomy reads a YAML taxonomy file. An empty path returns the default
// taxonomy. The result is validated before it is returned.
func LoadTaxonomy(path string) (domain.Taxonomy, error) {
	if path == "" {
		return domain.DefaultTaxonomy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("reading taxonomy file: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes and validates a YAML taxonomy. Unknown keys are
// rejected so that typos do not silently fall back to zero values.
func ParseTaxonomy(data []byte) (domain.Taxonomy, error) {
	var tx domain.Taxonomy

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tx); err != nil && !errors.Is(err, io.EOF) {
		return domain.Taxonomy{}, fmt.Errorf("parsing taxonomy: %w", err)
	}

	if err := tx.Validate(); err != nil {
		return domain.Taxonomy{}, err
	}
	return tx, nil
}
