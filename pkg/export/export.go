// Package export builds the exchange document handed to writers once a batch
// has been quantified.
package export

import (
	"fmt"

	"github.com/ChrisMcGann/ChromQuant/pkg/conditions"
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/ChrisMcGann/ChromQuant/pkg/quant"
)

// SpeciesRecord is one molecule or protein of the document.
type SpeciesRecord struct {
	ID       string
	Name     string
	Kind     core.SpeciesKind
	DataType core.DataType
	InitConc *float64
	ConcUnit string

	// Molecules only.
	PubChemCID       int
	InternalStandard bool
	RetentionTime    *float64
	Calibration      *core.CalibrationModel

	// Proteins only.
	Sequence        string
	MolecularWeight *float64
	Organism        string
	OrganismTaxID   string
	Constant        bool
}

// Document is the exchange form of a quantified batch.
type Document struct {
	ID         string
	Name       string
	Strategy   string
	Conditions conditions.Conditions
	Species    []SpeciesRecord
	Series     []quant.Series
	Warnings   []string
}

// Build assembles a document from the session's species and a quantification
// result. Species keep the given order, molecules before proteins in the
// usual case. A protein whose sequence cannot be weighed is an error.
func Build(id, name string, species []core.Species, res *quant.Result) (*Document, error) {
	if res == nil {
		return nil, fmt.Errorf("no quantification result to export")
	}
	if name == "" {
		name = id
	}

	doc := &Document{
		ID:         id,
		Name:       name,
		Strategy:   res.Strategy.String(),
		Conditions: res.Conditions,
		Species:    make([]SpeciesRecord, 0, len(species)),
		Series:     res.Series,
		Warnings:   res.Warnings,
	}

	for _, sp := range species {
		rec, err := record(sp)
		if err != nil {
			return nil, err
		}
		doc.Species = append(doc.Species, rec)
	}
	return doc, nil
}

func record(sp core.Species) (SpeciesRecord, error) {
	conc, unit := sp.InitialConcentration()
	rec := SpeciesRecord{
		ID:       sp.SpeciesID(),
		Name:     sp.SpeciesName(),
		Kind:     sp.Kind(),
		DataType: core.DefaultDataType(sp),
		InitConc: conc,
		ConcUnit: unit.Name,
	}

	switch s := sp.(type) {
	case *core.Molecule:
		rec.PubChemCID = s.PubChemCID
		rec.InternalStandard = s.InternalStandard
		rec.RetentionTime = s.RetentionTime
		rec.Calibration = s.Calibration
	case *core.Protein:
		rec.Sequence = s.Sequence
		rec.Organism = s.Organism
		rec.OrganismTaxID = s.OrganismTaxID
		rec.Constant = s.Constant
		if s.Sequence != "" {
			mw, err := s.MolecularWeight()
			if err != nil {
				return SpeciesRecord{}, fmt.Errorf("protein %s: %w", s.ID, err)
			}
			mw = core.RoundFloat(mw, 4)
			rec.MolecularWeight = &mw
		}
	}
	return rec, nil
}

// SeriesFor returns the series of a molecule.
func (d *Document) SeriesFor(moleculeID string) (*quant.Series, bool) {
	for i := range d.Series {
		if d.Series[i].MoleculeID == moleculeID {
			return &d.Series[i], true
		}
	}
	return nil, false
}
