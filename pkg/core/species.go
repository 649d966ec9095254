package core

import (
	"fmt"
	"strings"
)

// DefaultRetentionTolerance is the half-width of a molecule's retention window
// in minutes when none is given.
const DefaultRetentionTolerance = 0.1

// DataType tags what a quantified series holds.
type DataType string

const (
	DataConcentration DataType = "concentration"
	DataPeakArea      DataType = "peak_area"
)

// SpeciesKind discriminates the closed set of species variants.
type SpeciesKind int

const (
	KindMolecule SpeciesKind = iota
	KindProtein
)

func (k SpeciesKind) String() string {
	switch k {
	case KindMolecule:
		return "molecule"
	case KindProtein:
		return "protein"
	}
	return fmt.Sprintf("SpeciesKind(%d)", int(k))
}

// Species is the common view of molecules and proteins used for export.
type Species interface {
	SpeciesID() string
	SpeciesName() string
	InitialConcentration() (*float64, Unit)
	Kind() SpeciesKind
}

// DefaultDataType is the data type a species reports when nothing is
// calculated for it. Molecules are measured as peak areas, proteins are only
// known by their initial concentration.
func DefaultDataType(s Species) DataType {
	if s.Kind() == KindProtein {
		return DataConcentration
	}
	return DataPeakArea
}

// Molecule is a chemical species with an expected retention time window.
type Molecule struct {
	ID         string
	PubChemCID int
	Name       string

	// RetentionTime is nil for molecules that cannot be auto-assigned.
	RetentionTime      *float64
	RetentionTolerance float64
	MinSignal          float64
	Wavelength         *float64

	InitConc *float64
	ConcUnit Unit

	InternalStandard bool
	Calibration      *CalibrationModel
}

func (m *Molecule) SpeciesID() string   { return m.ID }
func (m *Molecule) SpeciesName() string { return m.Name }
func (m *Molecule) Kind() SpeciesKind   { return KindMolecule }

func (m *Molecule) InitialConcentration() (*float64, Unit) {
	return m.InitConc, m.ConcUnit
}

// HasRetentionTime reports whether the molecule can be assigned to peaks.
func (m *Molecule) HasRetentionTime() bool {
	return m.RetentionTime != nil
}

// Tolerance returns the retention tolerance, falling back to the default.
func (m *Molecule) Tolerance() float64 {
	if m.RetentionTolerance <= 0 {
		return DefaultRetentionTolerance
	}
	return m.RetentionTolerance
}

// Clone returns a deep copy of the molecule.
func (m *Molecule) Clone() *Molecule {
	out := *m
	out.RetentionTime = cloneFloat(m.RetentionTime)
	out.Wavelength = cloneFloat(m.Wavelength)
	out.InitConc = cloneFloat(m.InitConc)
	out.ConcUnit = m.ConcUnit.clone()
	if m.Calibration != nil {
		out.Calibration = m.Calibration.Clone()
	}
	return &out
}

// Validate checks the molecule definition.
func (m *Molecule) Validate() error {
	var errs []string

	if m.ID == "" {
		errs = append(errs, "id is required")
	}
	if m.RetentionTolerance < 0 {
		errs = append(errs, "retention tolerance must be non-negative")
	}
	if m.MinSignal < 0 {
		errs = append(errs, "minimum signal must be non-negative")
	}
	if m.InitConc != nil && m.ConcUnit.IsZero() {
		errs = append(errs, "concentration unit must be provided if initial concentration is given")
	}
	if m.InitConc == nil && !m.ConcUnit.IsZero() {
		errs = append(errs, "initial concentration must be provided if concentration unit is given")
	}
	if m.InternalStandard && m.InitConc == nil {
		errs = append(errs, "internal standard requires an initial concentration")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Molecule " + m.ID,
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// Protein is a non-chromatographic species carried through to export.
type Protein struct {
	ID            string
	Name          string
	InitConc      *float64
	ConcUnit      Unit
	Sequence      string
	Organism      string
	OrganismTaxID string
	Constant      bool
}

func (p *Protein) SpeciesID() string   { return p.ID }
func (p *Protein) SpeciesName() string { return p.Name }
func (p *Protein) Kind() SpeciesKind   { return KindProtein }

func (p *Protein) InitialConcentration() (*float64, Unit) {
	return p.InitConc, p.ConcUnit
}

// MolecularWeight returns the monoisotopic mass of the protein sequence in Da.
func (p *Protein) MolecularWeight() (float64, error) {
	return CalculateProteinMass(p.Sequence)
}

// Clone returns a deep copy of the protein.
func (p *Protein) Clone() *Protein {
	out := *p
	out.InitConc = cloneFloat(p.InitConc)
	out.ConcUnit = p.ConcUnit.clone()
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
