// Package method loads analysis methods from YAML. A method names the
// molecules and proteins of an assay, their retention windows and standards,
// and the options used to filter, assign and quantify a batch.
package method

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ChrisMcGann/ChromQuant/pkg/assign"
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/ChrisMcGann/ChromQuant/pkg/filter"
	"github.com/ChrisMcGann/ChromQuant/pkg/quant"
	"github.com/ChrisMcGann/ChromQuant/pkg/session"
	"gopkg.in/yaml.v3"
)

// Method is the root of a method file.
type Method struct {
	ID             string           `yaml:"id"`
	Name           string           `yaml:"name"`
	Mode           string           `yaml:"mode"`
	DilutionFactor *float64         `yaml:"dilution_factor,omitempty"`
	Assignment     AssignmentConfig `yaml:"assignment"`
	Quantification QuantConfig      `yaml:"quantification"`
	Filters        FilterConfig     `yaml:"filters"`
	Molecules      []MoleculeConfig `yaml:"molecules"`
	Proteins       []ProteinConfig  `yaml:"proteins,omitempty"`
}

// AssignmentConfig configures peak assignment.
type AssignmentConfig struct {
	Strict bool `yaml:"strict"`
}

// QuantConfig configures quantification.
type QuantConfig struct {
	CalculateConcentration bool `yaml:"calculate_concentration"`
	Extrapolate            bool `yaml:"extrapolate"`
	SortByX                bool `yaml:"sort_by_x"`
}

// FilterConfig configures the peak filters run before assignment.
type FilterConfig struct {
	TopN             int      `yaml:"top_n,omitempty"`
	AreaCutoff       float64  `yaml:"area_cutoff,omitempty"`
	MinArea          float64  `yaml:"min_area,omitempty"`
	MinRetentionTime *float64 `yaml:"min_retention_time,omitempty"`
	MaxRetentionTime *float64 `yaml:"max_retention_time,omitempty"`
	Detectors        []string `yaml:"detectors,omitempty"`
	RemoveZeroArea   bool     `yaml:"remove_zero_area,omitempty"`
}

// MoleculeConfig defines one molecule.
type MoleculeConfig struct {
	ID                 string          `yaml:"id"`
	Name               string          `yaml:"name,omitempty"`
	PubChemCID         int             `yaml:"pubchem_cid,omitempty"`
	RetentionTime      *float64        `yaml:"retention_time,omitempty"`
	RetentionTolerance float64         `yaml:"retention_tolerance,omitempty"`
	MinSignal          float64         `yaml:"min_signal,omitempty"`
	Wavelength         *float64        `yaml:"wavelength,omitempty"`
	InitConc           *float64        `yaml:"init_conc,omitempty"`
	ConcUnit           string          `yaml:"conc_unit,omitempty"`
	InternalStandard   bool            `yaml:"internal_standard,omitempty"`
	Standard           *StandardConfig `yaml:"standard,omitempty"`
}

// StandardConfig is an inline calibration of a molecule.
type StandardConfig struct {
	Concentrations []float64 `yaml:"concentrations"`
	Signals        []float64 `yaml:"signals"`
	ConcUnit       string    `yaml:"conc_unit"`
}

// ProteinConfig defines one protein.
type ProteinConfig struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	InitConc      float64 `yaml:"init_conc"`
	ConcUnit      string  `yaml:"conc_unit"`
	Sequence      string  `yaml:"sequence,omitempty"`
	Organism      string  `yaml:"organism,omitempty"`
	OrganismTaxID string  `yaml:"organism_tax_id,omitempty"`
	Constant      *bool   `yaml:"constant,omitempty"`
}

// Load decodes and validates a method. Unknown keys are rejected.
func Load(r io.Reader) (*Method, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Method
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("method file is empty")
		}
		return nil, fmt.Errorf("failed to parse method: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile loads a method from path.
func LoadFile(path string) (*Method, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open method file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the method for structural errors.
func (m *Method) Validate() error {
	var errs []string

	if m.Mode != "" {
		if _, err := core.ParseDataKind(m.Mode); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if m.DilutionFactor != nil && *m.DilutionFactor <= 0 {
		errs = append(errs, "dilution_factor must be positive")
	}
	if _, err := m.FilterConfig(); err != nil {
		errs = append(errs, err.Error())
	}

	ids := map[string]bool{}
	standards := 0
	for i, mol := range m.Molecules {
		if mol.ID == "" {
			errs = append(errs, fmt.Sprintf("molecule %d has no id", i))
			continue
		}
		if ids[mol.ID] {
			errs = append(errs, fmt.Sprintf("duplicate species id %s", mol.ID))
		}
		ids[mol.ID] = true
		if mol.InternalStandard {
			standards++
		}
		if mol.Standard != nil && len(mol.Standard.Concentrations) != len(mol.Standard.Signals) {
			errs = append(errs, fmt.Sprintf("molecule %s standard has %d concentrations but %d signals",
				mol.ID, len(mol.Standard.Concentrations), len(mol.Standard.Signals)))
		}
	}
	if standards > 1 {
		errs = append(errs, "only one internal standard may be defined")
	}

	for i, p := range m.Proteins {
		if p.ID == "" {
			errs = append(errs, fmt.Sprintf("protein %d has no id", i))
			continue
		}
		if ids[p.ID] {
			errs = append(errs, fmt.Sprintf("duplicate species id %s", p.ID))
		}
		ids[p.ID] = true
	}

	if len(errs) > 0 {
		return &core.ValidationError{
			Field:   "Method",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// FilterConfig converts the filter section.
func (m *Method) FilterConfig() (filter.Config, error) {
	c := filter.Config{
		TopN:             m.Filters.TopN,
		AreaCutoff:       m.Filters.AreaCutoff,
		MinArea:          m.Filters.MinArea,
		MinRetentionTime: m.Filters.MinRetentionTime,
		MaxRetentionTime: m.Filters.MaxRetentionTime,
		RemoveZeroArea:   m.Filters.RemoveZeroArea,
	}
	for _, d := range m.Filters.Detectors {
		t, err := core.ParseSignalType(d)
		if err != nil {
			return filter.Config{}, err
		}
		c.Detectors = append(c.Detectors, t)
	}
	return c, c.Validate()
}

// QuantOptions converts the quantification section.
func (m *Method) QuantOptions() quant.Options {
	return quant.Options{
		CalculateConcentration: m.Quantification.CalculateConcentration,
		Extrapolate:            m.Quantification.Extrapolate,
		SortByX:                m.Quantification.SortByX,
	}
}

// SessionOptions converts the assignment section.
func (m *Method) SessionOptions() session.Options {
	return session.Options{StrictAssignment: m.Assignment.Strict}
}

// Apply defines the method's species on s, fits inline standards and sets the
// dilution factor. Measurements should be added to s first so molecules are
// assigned as they are defined.
func (m *Method) Apply(s *session.Session) ([]*assign.Report, error) {
	if m.DilutionFactor != nil {
		if err := s.SetDilutionFactor(*m.DilutionFactor); err != nil {
			return nil, err
		}
	}

	var reports []*assign.Report
	for _, mc := range m.Molecules {
		spec := session.MoleculeSpec{
			ID:                 mc.ID,
			PubChemCID:         mc.PubChemCID,
			Name:               mc.Name,
			RetentionTime:      mc.RetentionTime,
			RetentionTolerance: mc.RetentionTolerance,
			MinSignal:          mc.MinSignal,
			Wavelength:         mc.Wavelength,
			InitConc:           mc.InitConc,
			ConcUnit:           mc.ConcUnit,
		}

		define := s.DefineMolecule
		if mc.InternalStandard {
			define = s.DefineInternalStandard
		}
		_, report, err := define(spec)
		if err != nil {
			return reports, fmt.Errorf("molecule %s: %w", mc.ID, err)
		}
		if report != nil {
			reports = append(reports, report)
		}

		if mc.Standard != nil {
			unit := mc.Standard.ConcUnit
			if unit == "" {
				unit = mc.ConcUnit
			}
			if _, err := s.SetStandard(mc.ID, mc.Standard.Concentrations, mc.Standard.Signals, unit); err != nil {
				return reports, fmt.Errorf("molecule %s: %w", mc.ID, err)
			}
		}
	}

	for _, pc := range m.Proteins {
		constant := true
		if pc.Constant != nil {
			constant = *pc.Constant
		}
		_, err := s.DefineProtein(session.ProteinSpec{
			ID:            pc.ID,
			Name:          pc.Name,
			InitConc:      pc.InitConc,
			ConcUnit:      pc.ConcUnit,
			Sequence:      pc.Sequence,
			Organism:      pc.Organism,
			OrganismTaxID: pc.OrganismTaxID,
			Constant:      constant,
		})
		if err != nil {
			return reports, fmt.Errorf("protein %s: %w", pc.ID, err)
		}
	}
	return reports, nil
}
