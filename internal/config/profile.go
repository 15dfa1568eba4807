package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/pdf-price-redactor/internal/classify"
)

// ErrProfileNotFound is returned when a margin profile does not exist
var ErrProfileNotFound = errors.New("margin profile not found")

// Profile is a per-template margin file. Only the margins present in the
// file override base.
//
//	name: leverandor-a
//	margins:
//	  column_tolerance: 40
//	  kampanje_below: 45
type Profile struct {
	Name    string           `yaml:"name,omitempty"`
	Margins classify.Margins `yaml:"margins"`
}

// LoadProfile reads the profile at path and applies it on top of base
func LoadProfile(path string, base classify.Margins) (classify.Margins, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided profile path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return base, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return base, err
	}

	p := Profile{Margins: base}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return base, fmt.Errorf("failed to parse margin profile %s: %w", path, err)
	}
	if err := p.Margins.Validate(); err != nil {
		return base, fmt.Errorf("margin profile %s: %w", path, err)
	}
	return p.Margins, nil
}
