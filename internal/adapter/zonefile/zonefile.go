// Package zonefile loads zone profiles from a YAML document.
package zonefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
	"gopkg.in/yaml.v3"
)

type document struct {
	Zones []domain.ZoneProfile `yaml:"zones"`
}

// Load reads a zone table from the YAML file at path.
func Load(path string) (*domain.ZoneTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone file: %w", err)
	}
	zones, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zone file %s: %w", path, err)
	}
	return domain.NewZoneTable(zones), nil
}

// Decode parses a YAML document with a top-level zones list. Unknown fields
// are rejected and every zone needs an id. Omitted attributes are zero.
func Decode(r io.Reader) ([]domain.ZoneProfile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	for i, z := range doc.Zones {
		if z.ID == "" {
			return nil, fmt.Errorf("zone %d: missing id", i)
		}
	}
	return doc.Zones, nil
}
