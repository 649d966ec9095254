// Package quant turns assigned peaks into per-molecule concentration or peak
// area series over a measurement batch.
package quant

import (
	"fmt"
	"sort"

	"github.com/ChrisMcGann/ChromQuant/pkg/calibration"
	"github.com/ChrisMcGann/ChromQuant/pkg/conditions"
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"go.uber.org/zap"
)

// Strategy is the concentration calculation method of a run.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyExternal
	StrategyInternal
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyExternal:
		return "external"
	case StrategyInternal:
		return "internal"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Options configures a quantification run.
type Options struct {
	CalculateConcentration bool
	// Extrapolate uses the linear inverse above the calibrated signal range
	// instead of reporting 0.
	Extrapolate bool
	// SortByX orders the batch by data value before emitting series. The sort
	// is stable, so measurements with equal values keep their input order.
	SortByX bool
}

// Point is one value of a series.
type Point struct {
	MeasurementID string
	X             float64
	Value         float64
}

// Series is the quantified signal of one molecule, aligned with the batch.
type Series struct {
	MoleculeID string
	DataType   core.DataType
	Unit       core.Unit
	Points     []Point
}

// Values returns the series values in point order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Result is the output of a quantification run.
type Result struct {
	Strategy   Strategy
	Conditions conditions.Conditions
	// StandardID names the internal standard under StrategyInternal.
	StandardID string
	Series     []Series
	// Unmeasured lists molecules without an assigned peak in any measurement.
	Unmeasured []string
	Warnings   []string
}

// SeriesFor returns the series of a molecule.
func (r *Result) SeriesFor(moleculeID string) (*Series, bool) {
	for i := range r.Series {
		if r.Series[i].MoleculeID == moleculeID {
			return &r.Series[i], true
		}
	}
	return nil, false
}

// Engine runs quantification.
type Engine struct {
	opts   Options
	logger *zap.Logger
	calib  *calibration.Engine
}

// New creates a quantification engine. A nil logger discards log output.
func New(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		opts:   opts,
		logger: logger,
		calib:  calibration.New(logger),
	}
}

// SelectStrategy infers the strategy from the molecules. An internal standard
// together with a calibrated molecule, or more than one internal standard, is
// a configuration conflict. The internal standard is returned under
// StrategyInternal.
func SelectStrategy(molecules []*core.Molecule) (Strategy, *core.Molecule, error) {
	var standards []*core.Molecule
	var standardIDs, calibrated []string
	for _, mol := range molecules {
		if mol.InternalStandard {
			standards = append(standards, mol)
			standardIDs = append(standardIDs, mol.ID)
		}
		if mol.Calibration != nil {
			calibrated = append(calibrated, mol.ID)
		}
	}

	switch {
	case len(standards) > 1:
		return StrategyNone, nil, &core.AmbiguousStrategyError{InternalStandards: standardIDs}
	case len(standards) == 1 && len(calibrated) > 0:
		return StrategyNone, nil, &core.AmbiguousStrategyError{InternalStandards: standardIDs, Calibrated: calibrated}
	case len(standards) == 1:
		return StrategyInternal, standards[0], nil
	case len(calibrated) > 0:
		return StrategyExternal, nil, nil
	}
	return StrategyNone, nil, nil
}

// run carries the state of one Quantify call.
type run struct {
	*Engine
	result       *Result
	measurements []*core.Measurement
}

// Quantify validates the batch conditions, selects the strategy and emits one
// series per molecule that was assigned a peak in at least one measurement.
// Every series has one point per measurement; a measurement without an
// assigned peak contributes an explicit 0.
func (e *Engine) Quantify(measurements []*core.Measurement, molecules []*core.Molecule) (*Result, error) {
	cond, err := conditions.Validate(measurements)
	if err != nil {
		return nil, err
	}
	strategy, standard, err := SelectStrategy(molecules)
	if err != nil {
		return nil, err
	}

	r := &run{
		Engine: e,
		result: &Result{
			Conditions: cond,
			Series:     []Series{},
			Unmeasured: []string{},
			Warnings:   []string{},
		},
		measurements: append([]*core.Measurement(nil), measurements...),
	}
	if e.opts.SortByX {
		sort.SliceStable(r.measurements, func(i, j int) bool {
			return r.measurements[i].Data.Value < r.measurements[j].Data.Value
		})
	}

	measured := make([]*core.Molecule, 0, len(molecules))
	for _, mol := range molecules {
		if measuredOnce(mol.ID, measurements) {
			measured = append(measured, mol)
		} else {
			r.result.Unmeasured = append(r.result.Unmeasured, mol.ID)
		}
	}

	if !e.opts.CalculateConcentration {
		strategy = StrategyNone
	} else if strategy == StrategyNone {
		r.warn("no calibration or internal standard defined, reporting peak areas")
	}
	r.result.Strategy = strategy

	switch strategy {
	case StrategyExternal:
		for _, mol := range measured {
			r.external(mol)
		}
	case StrategyInternal:
		r.result.StandardID = standard.ID
		if err := r.internal(standard, measured); err != nil {
			return nil, err
		}
	default:
		for _, mol := range measured {
			r.result.Series = append(r.result.Series, r.peakAreas(mol))
		}
	}

	e.logger.Info("quantification finished",
		zap.Stringer("strategy", strategy),
		zap.Int("measurements", len(measurements)),
		zap.Int("series", len(r.result.Series)),
		zap.Int("warnings", len(r.result.Warnings)))
	return r.result, nil
}

func (r *run) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.result.Warnings = append(r.result.Warnings, msg)
	r.logger.Warn(msg)
}

// peakAreas reports the raw assigned areas of mol.
func (r *run) peakAreas(mol *core.Molecule) Series {
	s := Series{MoleculeID: mol.ID, DataType: core.DataPeakArea}
	for _, meas := range r.measurements {
		area := 0.0
		if peak, ok := meas.AssignedPeak(mol.ID); ok {
			area = peak.Area
		}
		s.Points = append(s.Points, point(meas, area))
	}
	return s
}

// external inverts the molecule's standard curve and applies each
// measurement's dilution factor.
func (r *run) external(mol *core.Molecule) {
	model := mol.Calibration
	if model == nil {
		r.warn("molecule %s has no calibration, reporting peak areas", mol.ID)
		r.result.Series = append(r.result.Series, r.peakAreas(mol))
		return
	}

	unit := mol.ConcUnit
	if unit.IsZero() {
		unit = model.ConcUnit
	}
	s := Series{MoleculeID: mol.ID, DataType: core.DataConcentration, Unit: unit}

	for _, meas := range r.measurements {
		peak, ok := meas.AssignedPeak(mol.ID)
		if !ok {
			s.Points = append(s.Points, point(meas, 0))
			continue
		}
		conc, outOfRange := r.calib.Calculate(model, peak.Area, r.opts.Extrapolate)
		if outOfRange {
			policy := "reported as 0"
			if r.opts.Extrapolate {
				policy = "extrapolated"
			}
			r.result.Warnings = append(r.result.Warnings, fmt.Sprintf(
				"molecule %s: signal %g in measurement %s is above the calibration range (max %g), %s",
				mol.ID, peak.Area, meas.ID, model.MaxSignal(), policy))
		}
		s.Points = append(s.Points, point(meas, conc*meas.Dilution()))
	}
	r.result.Series = append(r.result.Series, s)
}

// internal normalises every analyte against the internal standard using the
// signals of the first measurement at reaction time 0.
func (r *run) internal(standard *core.Molecule, measured []*core.Molecule) error {
	if standard.InitConc == nil || standard.ConcUnit.IsZero() {
		return &core.MissingConcentrationError{SpeciesID: standard.ID}
	}

	var baseline *core.Measurement
	for _, meas := range r.measurements {
		if meas.IsBaseline() {
			baseline = meas
			break
		}
	}
	if baseline == nil {
		return &core.NoBaselineMeasurementError{Reason: "no timecourse measurement at reaction time 0"}
	}

	stdPeak, ok := baseline.AssignedPeak(standard.ID)
	if !ok || stdPeak.Area == 0 {
		return &core.NoBaselineMeasurementError{
			MoleculeID: standard.ID,
			Reason:     fmt.Sprintf("no internal standard signal in measurement %s", baseline.ID),
		}
	}

	ratios := make([]*core.InternalStandardRatio, 0, len(measured))
	analytes := make([]*core.Molecule, 0, len(measured))
	for _, mol := range measured {
		if mol.ID == standard.ID {
			continue
		}
		if mol.InitConc == nil || mol.ConcUnit.IsZero() {
			return &core.MissingConcentrationError{SpeciesID: mol.ID}
		}
		peak, ok := baseline.AssignedPeak(mol.ID)
		if !ok || peak.Area == 0 {
			return &core.NoBaselineMeasurementError{
				MoleculeID: mol.ID,
				Reason:     fmt.Sprintf("no signal in measurement %s", baseline.ID),
			}
		}
		ratios = append(ratios, &core.InternalStandardRatio{
			MoleculeID:       mol.ID,
			StandardID:       standard.ID,
			MoleculeT0Signal: peak.Area,
			StandardT0Signal: stdPeak.Area,
			InitConc:         *mol.InitConc,
			ConcUnit:         mol.ConcUnit,
		})
		analytes = append(analytes, mol)
	}

	for i, mol := range analytes {
		ratio := ratios[i]
		s := Series{MoleculeID: mol.ID, DataType: core.DataConcentration, Unit: ratio.ConcUnit}
		for _, meas := range r.measurements {
			s.Points = append(s.Points, point(meas, r.ratioConcentration(ratio, meas)))
		}
		r.result.Series = append(r.result.Series, s)
	}
	return nil
}

func (r *run) ratioConcentration(ratio *core.InternalStandardRatio, meas *core.Measurement) float64 {
	peak, ok := meas.AssignedPeak(ratio.MoleculeID)
	if !ok {
		return 0
	}
	stdPeak, ok := meas.AssignedPeak(ratio.StandardID)
	if !ok || stdPeak.Area == 0 {
		r.warn("no internal standard signal in measurement %s, reporting 0 for %s", meas.ID, ratio.MoleculeID)
		return 0
	}
	return ratio.Concentration(peak.Area, stdPeak.Area)
}

func point(meas *core.Measurement, value float64) Point {
	return Point{MeasurementID: meas.ID, X: meas.Data.Value, Value: value}
}

func measuredOnce(moleculeID string, measurements []*core.Measurement) bool {
	for _, meas := range measurements {
		if _, ok := meas.AssignedPeak(moleculeID); ok {
			return true
		}
	}
	return false
}
