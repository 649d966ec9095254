// Package session holds a measurement batch together with the molecules and
// proteins being analysed, and runs assignment, calibration and
// quantification over it.
package session

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/ChromQuant/pkg/assign"
	"github.com/ChrisMcGann/ChromQuant/pkg/calibration"
	"github.com/ChrisMcGann/ChromQuant/pkg/conditions"
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/ChrisMcGann/ChromQuant/pkg/quant"
	"go.uber.org/zap"
)

// Options configures a session.
type Options struct {
	// StrictAssignment fails peak assignment on ambiguous retention windows.
	StrictAssignment bool
}

// Session is a named batch of measurements recorded in one mode.
type Session struct {
	ID   string
	Name string
	Mode core.DataKind

	measurements []*core.Measurement
	molecules    []*core.Molecule
	proteins     []*core.Protein

	logger   *zap.Logger
	assigner *assign.Engine
	calib    *calibration.Engine
}

// New creates an empty session. mode is "timecourse" or "calibration", in any
// case. A nil logger discards log output.
func New(id, name, mode string, opts Options, logger *zap.Logger) (*Session, error) {
	kind, err := core.ParseDataKind(mode)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, &core.ValidationError{Field: "Session", Message: "id is required"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if name == "" {
		name = id
	}
	return &Session{
		ID:       id,
		Name:     name,
		Mode:     kind,
		logger:   logger,
		assigner: assign.New(assign.Options{Strict: opts.StrictAssignment}, logger),
		calib:    calibration.New(logger),
	}, nil
}

func (s *Session) String() string {
	return fmt.Sprintf("Session(id=%s, molecules=%d, proteins=%d, measurements=%d)",
		s.ID, len(s.molecules), len(s.proteins), len(s.measurements))
}

// Measurements returns the batch in insertion order.
func (s *Session) Measurements() []*core.Measurement { return s.measurements }

// Molecules returns the defined molecules in definition order.
func (s *Session) Molecules() []*core.Molecule { return s.molecules }

// Proteins returns the defined proteins in definition order.
func (s *Session) Proteins() []*core.Protein { return s.proteins }

// AddMeasurements validates and appends measurements. Every measurement must
// be recorded in the session's mode and carry an unused id.
func (s *Session) AddMeasurements(measurements ...*core.Measurement) error {
	seen := make(map[string]bool, len(s.measurements)+len(measurements))
	for _, meas := range s.measurements {
		seen[meas.ID] = true
	}

	for _, meas := range measurements {
		if err := meas.Validate(); err != nil {
			return err
		}
		if meas.Data.Kind != s.Mode {
			return &core.ValidationError{
				Field:   "Measurement " + meas.ID,
				Message: fmt.Sprintf("data kind %s does not match session mode %s", meas.Data.Kind, s.Mode),
			}
		}
		if seen[meas.ID] {
			return &core.ValidationError{Field: "Measurement " + meas.ID, Message: "duplicate id"}
		}
		seen[meas.ID] = true
	}

	s.measurements = append(s.measurements, measurements...)
	s.logger.Debug("measurements added", zap.Int("count", len(measurements)), zap.Int("total", len(s.measurements)))
	return nil
}

// SetDilutionFactor sets the dilution factor of every measurement.
func (s *Session) SetDilutionFactor(factor float64) error {
	if factor <= 0 {
		return &core.ValidationError{Field: "DilutionFactor", Message: "must be positive"}
	}
	for _, meas := range s.measurements {
		meas.DilutionFactor = factor
	}
	return nil
}

// Molecule returns the molecule with the given id.
func (s *Session) Molecule(id string) (*core.Molecule, error) {
	for _, mol := range s.molecules {
		if mol.ID == id {
			return mol, nil
		}
	}
	return nil, &core.UnknownSpeciesError{ID: id}
}

// Protein returns the protein with the given id.
func (s *Session) Protein(id string) (*core.Protein, error) {
	for _, p := range s.proteins {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, &core.UnknownSpeciesError{ID: id}
}

// Species returns the molecules followed by the proteins.
func (s *Session) Species() []core.Species {
	out := make([]core.Species, 0, len(s.molecules)+len(s.proteins))
	for _, mol := range s.molecules {
		out = append(out, mol)
	}
	for _, p := range s.proteins {
		out = append(out, p)
	}
	return out
}

// Peaks returns every peak assigned to the molecule across the batch.
func (s *Session) Peaks(moleculeID string) ([]*core.Peak, error) {
	var peaks []*core.Peak
	for _, meas := range s.measurements {
		for _, chrom := range meas.Chromatograms {
			for i := range chrom.Peaks {
				if chrom.Peaks[i].MoleculeID == moleculeID {
					peaks = append(peaks, &chrom.Peaks[i])
				}
			}
		}
	}
	if len(peaks) == 0 {
		return nil, fmt.Errorf("no peaks assigned to molecule %s", moleculeID)
	}
	return peaks, nil
}

// AssignAll runs peak assignment for every molecule with a retention time, in
// definition order.
func (s *Session) AssignAll() ([]*assign.Report, error) {
	var reports []*assign.Report
	for _, mol := range s.molecules {
		if !mol.HasRetentionTime() {
			continue
		}
		report, err := s.assign(mol)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *Session) assign(mol *core.Molecule) (*assign.Report, error) {
	report, err := s.assigner.Assign(s.measurements, mol, mol.Tolerance(), mol.Wavelength)
	if err != nil {
		return nil, fmt.Errorf("failed to assign peaks of %s: %w", mol.ID, err)
	}

	s.logger.Info("peaks assigned",
		zap.String("molecule_id", mol.ID),
		zap.Int("assigned", report.Assigned))
	for _, amb := range report.Ambiguous {
		s.logger.Warn("ambiguous peak match, closest peak assigned",
			zap.String("molecule_id", mol.ID),
			zap.String("measurement_id", amb.MeasurementID),
			zap.Float64s("candidates", amb.RetentionTimes),
			zap.Float64("selected", amb.Selected))
	}
	if len(report.Missing) > 0 {
		s.logger.Warn("no peak matched",
			zap.String("molecule_id", mol.ID),
			zap.String("measurements", strings.Join(report.Missing, ",")))
	}
	return report, nil
}

// Quantify validates the batch conditions and quantifies every molecule.
func (s *Session) Quantify(opts quant.Options) (*quant.Result, error) {
	if len(s.measurements) == 0 {
		return nil, fmt.Errorf("session %s has no measurements", s.ID)
	}
	return quant.New(opts, s.logger).Quantify(s.measurements, s.molecules)
}

// AddStandard fits a standard curve for a molecule from a calibration batch.
// Each measurement's data value is the known concentration and the area of
// the molecule's assigned peak is the signal; a measurement without an
// assigned peak contributes a signal of 0. wavelength selects the
// chromatogram when measurements have several; nil falls back to the
// molecule's wavelength.
func (s *Session) AddStandard(moleculeID string, wavelength *float64) (*core.CalibrationModel, error) {
	if s.Mode != core.Calibration {
		return nil, fmt.Errorf("standards require a calibration session, session %s is %s", s.ID, s.Mode)
	}
	mol, err := s.Molecule(moleculeID)
	if err != nil {
		return nil, err
	}
	if len(s.measurements) == 0 {
		return nil, fmt.Errorf("session %s has no measurements", s.ID)
	}

	cond, err := conditions.Validate(s.measurements)
	if err != nil {
		return nil, err
	}
	if wavelength == nil {
		wavelength = mol.Wavelength
	}

	concs := make([]float64, len(s.measurements))
	signals := make([]float64, len(s.measurements))
	for i, meas := range s.measurements {
		chrom, err := assign.ResolveChromatogram(meas, wavelength)
		if err != nil {
			return nil, err
		}
		concs[i] = meas.Data.Value
		if peak, ok := chrom.AssignedPeak(mol.ID); ok {
			signals[i] = peak.Area
		} else {
			s.logger.Warn("no peak in standard measurement, using signal 0",
				zap.String("molecule_id", mol.ID),
				zap.String("measurement_id", meas.ID))
		}
	}

	model, err := s.calib.FitMolecule(mol, concs, signals, cond.TimeUnit)
	if err != nil {
		return nil, err
	}
	ph, temp := cond.PH, cond.Temperature
	model.PH = &ph
	model.Temperature = &temp
	model.TemperatureUnit = cond.TemperatureUnit
	return model, nil
}

// SetStandard fits a standard curve from known points, for molecules
// calibrated outside the session.
func (s *Session) SetStandard(moleculeID string, concentrations, signals []float64, concUnit string) (*core.CalibrationModel, error) {
	mol, err := s.Molecule(moleculeID)
	if err != nil {
		return nil, err
	}
	return s.calib.FitMolecule(mol, concentrations, signals, core.UnitFromName(concUnit))
}
