// Package assign labels chromatographic peaks with the molecule whose
// retention time window they fall into.
package assign

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"go.uber.org/zap"
)

// Options configures peak assignment.
type Options struct {
	// Strict fails with *core.AmbiguousPeakError when more than one peak falls
	// inside a retention window instead of picking the closest one.
	Strict bool
}

// Engine assigns peaks to molecules.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// New creates an assignment engine. A nil logger discards log output.
func New(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger}
}

// AmbiguousMatch records a measurement in which several peaks were candidates.
type AmbiguousMatch struct {
	MeasurementID  string
	RetentionTimes []float64 // candidates in chromatogram order
	Selected       float64
}

// Report summarises one assignment run. It is the only channel through which
// ambiguity and absence are reported.
type Report struct {
	MoleculeID string
	Assigned   int
	Ambiguous  []AmbiguousMatch
	Missing    []string // measurement ids without a candidate
}

// HasDiagnostics reports whether any measurement was ambiguous or unmatched.
func (r *Report) HasDiagnostics() bool {
	return len(r.Ambiguous) > 0 || len(r.Missing) > 0
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: assigned %d peaks", r.MoleculeID, r.Assigned)
	if len(r.Ambiguous) > 0 {
		fmt.Fprintf(&b, ", %d ambiguous", len(r.Ambiguous))
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(&b, ", missing in %s", strings.Join(r.Missing, ", "))
	}
	return b.String()
}

// selection is a planned assignment of one peak.
type selection struct {
	chrom *core.Chromatogram
	index int
}

// Assign labels, in every measurement, the peak closest to the molecule's
// retention time among the peaks strictly inside tolerance whose area is at
// least the molecule's minimum signal. Chromatograms are resolved for all
// measurements before any peak is labelled, so a resolution error leaves the
// measurements untouched. Previously assigned peaks are never unassigned.
func (e *Engine) Assign(measurements []*core.Measurement, mol *core.Molecule, tolerance float64, wavelength *float64) (*Report, error) {
	if !mol.HasRetentionTime() {
		return nil, &core.MissingRetentionTimeError{MoleculeID: mol.ID}
	}
	if tolerance <= 0 || math.IsNaN(tolerance) {
		return nil, fmt.Errorf("invalid retention tolerance %g for molecule %s", tolerance, mol.ID)
	}
	target := *mol.RetentionTime

	chroms := make([]*core.Chromatogram, len(measurements))
	for i, meas := range measurements {
		chrom, err := ResolveChromatogram(meas, wavelength)
		if err != nil {
			return nil, err
		}
		chroms[i] = chrom
	}

	report := &Report{
		MoleculeID: mol.ID,
		Ambiguous:  []AmbiguousMatch{},
		Missing:    []string{},
	}
	plan := make([]selection, 0, len(measurements))

	for i, meas := range measurements {
		chrom := chroms[i]
		candidates := matchWindow(chrom.Peaks, target, tolerance, mol.MinSignal)

		switch len(candidates) {
		case 0:
			report.Missing = append(report.Missing, meas.ID)
			continue
		case 1:
			plan = append(plan, selection{chrom: chrom, index: candidates[0]})
			continue
		}

		rts := make([]float64, len(candidates))
		for j, idx := range candidates {
			rts[j] = chrom.Peaks[idx].RetentionTime
		}
		if e.opts.Strict {
			return nil, &core.AmbiguousPeakError{
				MoleculeID:     mol.ID,
				MeasurementID:  meas.ID,
				RetentionTimes: rts,
			}
		}

		best := closest(chrom.Peaks, candidates, target)
		plan = append(plan, selection{chrom: chrom, index: best})
		report.Ambiguous = append(report.Ambiguous, AmbiguousMatch{
			MeasurementID:  meas.ID,
			RetentionTimes: rts,
			Selected:       chrom.Peaks[best].RetentionTime,
		})
	}

	for _, sel := range plan {
		peak := &sel.chrom.Peaks[sel.index]
		peak.MoleculeID = mol.ID
		report.Assigned++
		e.logger.Debug("peak assigned",
			zap.String("molecule_id", mol.ID),
			zap.Float64("retention_time", peak.RetentionTime),
			zap.Float64("area", peak.Area))
	}

	return report, nil
}

// matchWindow returns the indexes of peaks strictly inside the window around
// target whose area reaches minSignal.
func matchWindow(peaks []core.Peak, target, tolerance, minSignal float64) []int {
	var idx []int
	for i, peak := range peaks {
		if math.Abs(peak.RetentionTime-target) >= tolerance {
			continue
		}
		if peak.Area < minSignal {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// closest returns the candidate nearest to target; ties go to the earliest
// peak in the chromatogram.
func closest(peaks []core.Peak, candidates []int, target float64) int {
	best := candidates[0]
	bestDist := math.Abs(peaks[best].RetentionTime - target)
	for _, idx := range candidates[1:] {
		d := math.Abs(peaks[idx].RetentionTime - target)
		if d < bestDist {
			best, bestDist = idx, d
		}
	}
	return best
}

// ResolveChromatogram picks the chromatogram of a measurement to scan. A
// single chromatogram is always used; otherwise the one recorded at
// wavelength is required.
func ResolveChromatogram(meas *core.Measurement, wavelength *float64) (*core.Chromatogram, error) {
	switch len(meas.Chromatograms) {
	case 0:
		return nil, &core.AmbiguousChromatogramError{MeasurementID: meas.ID, Wavelength: wavelength}
	case 1:
		return meas.Chromatograms[0], nil
	}

	if wavelength == nil {
		return nil, &core.AmbiguousChromatogramError{
			MeasurementID: meas.ID,
			Matches:       len(meas.Chromatograms),
		}
	}

	var found *core.Chromatogram
	matches := 0
	for _, chrom := range meas.Chromatograms {
		if chrom.HasWavelength(*wavelength) {
			found = chrom
			matches++
		}
	}
	if matches != 1 {
		return nil, &core.AmbiguousChromatogramError{
			MeasurementID: meas.ID,
			Wavelength:    wavelength,
			Matches:       matches,
		}
	}
	return found, nil
}
