package session

import (
	"github.com/ChrisMcGann/ChromQuant/pkg/assign"
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
)

// MoleculeSpec describes a molecule to define.
type MoleculeSpec struct {
	ID         string
	PubChemCID int
	Name       string // defaults to ID

	RetentionTime      *float64
	RetentionTolerance float64 // defaults to core.DefaultRetentionTolerance
	MinSignal          float64
	Wavelength         *float64

	InitConc *float64
	ConcUnit string
}

func (spec MoleculeSpec) molecule() *core.Molecule {
	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	tol := spec.RetentionTolerance
	if tol == 0 {
		tol = core.DefaultRetentionTolerance
	}
	return &core.Molecule{
		ID:                 spec.ID,
		PubChemCID:         spec.PubChemCID,
		Name:               name,
		RetentionTime:      spec.RetentionTime,
		RetentionTolerance: tol,
		MinSignal:          spec.MinSignal,
		Wavelength:         spec.Wavelength,
		InitConc:           spec.InitConc,
		ConcUnit:           core.UnitFromName(spec.ConcUnit),
	}
}

// MoleculeOverrides replaces fields of a molecule added with AddMolecule.
// Nil fields keep the molecule's value.
type MoleculeOverrides struct {
	InitConc           *float64
	ConcUnit           *core.Unit
	RetentionTolerance *float64
	MinSignal          *float64
}

// DefineMolecule creates a molecule, replacing any molecule with the same id,
// and assigns its peaks when it has a retention time. The report is nil when
// no assignment ran.
func (s *Session) DefineMolecule(spec MoleculeSpec) (*core.Molecule, *assign.Report, error) {
	return s.upsertMolecule(spec.molecule())
}

// DefineInternalStandard is DefineMolecule for the internal standard, which
// requires an initial concentration and unit.
func (s *Session) DefineInternalStandard(spec MoleculeSpec) (*core.Molecule, *assign.Report, error) {
	mol := spec.molecule()
	mol.InternalStandard = true
	if mol.InitConc == nil || mol.ConcUnit.IsZero() {
		return nil, nil, &core.MissingConcentrationError{SpeciesID: mol.ID}
	}
	return s.upsertMolecule(mol)
}

// AddMolecule adds a copy of mol with the overrides applied. The caller's
// molecule is never modified.
func (s *Session) AddMolecule(mol *core.Molecule, overrides MoleculeOverrides) (*core.Molecule, *assign.Report, error) {
	cp := mol.Clone()
	if overrides.InitConc != nil {
		v := *overrides.InitConc
		cp.InitConc = &v
	}
	if overrides.ConcUnit != nil {
		cp.ConcUnit = *overrides.ConcUnit
	}
	if overrides.RetentionTolerance != nil {
		cp.RetentionTolerance = *overrides.RetentionTolerance
	}
	if overrides.MinSignal != nil {
		cp.MinSignal = *overrides.MinSignal
	}
	return s.upsertMolecule(cp)
}

func (s *Session) upsertMolecule(mol *core.Molecule) (*core.Molecule, *assign.Report, error) {
	if err := mol.Validate(); err != nil {
		return nil, nil, err
	}

	replaced := false
	for i, existing := range s.molecules {
		if existing.ID == mol.ID {
			s.molecules[i] = mol
			replaced = true
			break
		}
	}
	if !replaced {
		s.molecules = append(s.molecules, mol)
	}

	if !mol.HasRetentionTime() || len(s.measurements) == 0 {
		return mol, nil, nil
	}
	report, err := s.assign(mol)
	if err != nil {
		return mol, nil, err
	}
	return mol, report, nil
}

// ProteinSpec describes a protein to define.
type ProteinSpec struct {
	ID            string
	Name          string
	InitConc      float64
	ConcUnit      string
	Sequence      string
	Organism      string
	OrganismTaxID string
	Constant      bool
}

// DefineProtein creates a protein, replacing any protein with the same id.
func (s *Session) DefineProtein(spec ProteinSpec) (*core.Protein, error) {
	conc := spec.InitConc
	p := &core.Protein{
		ID:            spec.ID,
		Name:          spec.Name,
		InitConc:      &conc,
		ConcUnit:      core.UnitFromName(spec.ConcUnit),
		Sequence:      spec.Sequence,
		Organism:      spec.Organism,
		OrganismTaxID: spec.OrganismTaxID,
		Constant:      spec.Constant,
	}
	if err := s.upsertProtein(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddProtein adds a copy of p. Non-nil initConc and concUnit replace the
// protein's values.
func (s *Session) AddProtein(p *core.Protein, initConc *float64, concUnit *core.Unit) (*core.Protein, error) {
	cp := p.Clone()
	if initConc != nil {
		v := *initConc
		cp.InitConc = &v
	}
	if concUnit != nil {
		cp.ConcUnit = *concUnit
	}
	if err := s.upsertProtein(cp); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *Session) upsertProtein(p *core.Protein) error {
	if p.ID == "" {
		return &core.ValidationError{Field: "Protein", Message: "id is required"}
	}
	if p.InitConc == nil || p.ConcUnit.IsZero() {
		return &core.MissingConcentrationError{SpeciesID: p.ID}
	}
	if p.Sequence != "" {
		if _, err := p.MolecularWeight(); err != nil {
			return &core.ValidationError{Field: "Protein " + p.ID, Message: err.Error()}
		}
	}

	for i, existing := range s.proteins {
		if existing.ID == p.ID {
			s.proteins[i] = p
			return nil
		}
	}
	s.proteins = append(s.proteins, p)
	return nil
}
