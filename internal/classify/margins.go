package classify

import "fmt"

// Margins holds the geometric tolerances used by the classifiers, in page
// units. The defaults were tuned against the invoice templates in use and
// are expected to be retuned per template through a profile.
type Margins struct {
	ColumnTolerance    float64 `mapstructure:"column_tolerance" yaml:"column_tolerance" json:"column_tolerance"`
	HeaderScanDepth    float64 `mapstructure:"header_scan_depth" yaml:"header_scan_depth" json:"header_scan_depth"`
	KampanjeAbove      float64 `mapstructure:"kampanje_above" yaml:"kampanje_above" json:"kampanje_above"`
	KampanjeBelow      float64 `mapstructure:"kampanje_below" yaml:"kampanje_below" json:"kampanje_below"`
	SectionExtendRight float64 `mapstructure:"section_extend_right" yaml:"section_extend_right" json:"section_extend_right"`
	MVAPad             float64 `mapstructure:"mva_pad" yaml:"mva_pad" json:"mva_pad"`
}

// DefaultMargins returns the stock tolerances
func DefaultMargins() Margins {
	return Margins{
		ColumnTolerance:    30,
		HeaderScanDepth:    50,
		KampanjeAbove:      5,
		KampanjeBelow:      30,
		SectionExtendRight: 500,
		MVAPad:             2,
	}
}

// Validate rejects negative margins
func (m Margins) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"column_tolerance", m.ColumnTolerance},
		{"header_scan_depth", m.HeaderScanDepth},
		{"kampanje_above", m.KampanjeAbove},
		{"kampanje_below", m.KampanjeBelow},
		{"section_extend_right", m.SectionExtendRight},
		{"mva_pad", m.MVAPad},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("margin %s must not be negative, got %g", f.name, f.value)
		}
	}
	return nil
}
