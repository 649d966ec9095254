// Package calibration fits linear standard curves and inverts them to turn
// detector signal into concentration.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Fit computes the ordinary least-squares line signal = slope*conc + intercept
// over the given standard points. Concentration is the independent variable.
func Fit(concentrations, signals []float64) (*core.CalibrationModel, error) {
	insufficient := func(reason string) error {
		return &core.InsufficientCalibrationDataError{
			Concentrations: len(concentrations),
			Signals:        len(signals),
			Reason:         reason,
		}
	}

	if len(concentrations) != len(signals) {
		return nil, insufficient("concentrations and signals differ in length")
	}
	if len(concentrations) < 2 {
		return nil, insufficient("at least 2 points are required")
	}
	for i := range concentrations {
		if !finite(concentrations[i]) || !finite(signals[i]) {
			return nil, insufficient(fmt.Sprintf("point %d is not a finite number", i))
		}
	}
	if stat.Variance(concentrations, nil) == 0 {
		return nil, insufficient("all concentrations are equal")
	}

	intercept, slope := stat.LinearRegression(concentrations, signals, nil, false)
	if slope == 0 || !finite(slope) {
		return nil, insufficient("signal does not change with concentration")
	}

	return &core.CalibrationModel{
		Concentrations: append([]float64(nil), concentrations...),
		Signals:        append([]float64(nil), signals...),
		Slope:          slope,
		Intercept:      intercept,
		R:              stat.Correlation(concentrations, signals, nil),
	}, nil
}

// Engine fits standards onto molecules and evaluates them.
type Engine struct {
	logger *zap.Logger
}

// New creates a calibration engine. A nil logger discards log output.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// FitMolecule fits a standard curve and stores it on mol, replacing any
// previous model.
func (e *Engine) FitMolecule(mol *core.Molecule, concentrations, signals []float64, unit core.Unit) (*core.CalibrationModel, error) {
	model, err := Fit(concentrations, signals)
	if err != nil {
		var insufficient *core.InsufficientCalibrationDataError
		if errors.As(err, &insufficient) {
			insufficient.MoleculeID = mol.ID
		}
		return nil, err
	}
	model.MoleculeID = mol.ID
	model.ConcUnit = unit
	mol.Calibration = model

	e.logger.Info("standard fitted",
		zap.String("molecule_id", mol.ID),
		zap.Int("points", len(concentrations)),
		zap.Float64("slope", model.Slope),
		zap.Float64("intercept", model.Intercept),
		zap.Float64("r", model.R))
	return model, nil
}

// Calculate converts a signal into a concentration with the inverse of model.
// A signal above the largest calibration signal is logged; it is reported as
// 0 unless extrapolate is set. The second result reports whether the signal
// was above the calibrated range.
func (e *Engine) Calculate(model *core.CalibrationModel, signal float64, extrapolate bool) (float64, bool) {
	maxSignal := model.MaxSignal()
	if signal <= maxSignal {
		return model.Inverse(signal), false
	}

	if extrapolate {
		e.logger.Warn("signal above calibration range, extrapolating",
			zap.String("molecule_id", model.MoleculeID),
			zap.Float64("signal", signal),
			zap.Float64("max_signal", maxSignal))
		return model.Inverse(signal), true
	}

	e.logger.Warn("signal above calibration range, reporting 0",
		zap.String("molecule_id", model.MoleculeID),
		zap.Float64("signal", signal),
		zap.Float64("max_signal", maxSignal))
	return 0, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
