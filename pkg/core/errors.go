package core

import (
	"fmt"
	"strings"
)

// ValidationError represents an error found during structural validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// MissingRetentionTimeError is returned when a molecule without a retention
// time is assigned to peaks.
type MissingRetentionTimeError struct {
	MoleculeID string
}

func (e *MissingRetentionTimeError) Error() string {
	return fmt.Sprintf("molecule %s has no retention time", e.MoleculeID)
}

// AmbiguousChromatogramError is returned when the chromatogram to scan cannot
// be resolved for a measurement.
type AmbiguousChromatogramError struct {
	MeasurementID string
	Wavelength    *float64
	Matches       int
}

func (e *AmbiguousChromatogramError) Error() string {
	switch {
	case e.Matches == 0 && e.Wavelength == nil:
		return fmt.Sprintf("measurement %s has no chromatogram", e.MeasurementID)
	case e.Wavelength == nil:
		return fmt.Sprintf("measurement %s has %d chromatograms but no wavelength is specified", e.MeasurementID, e.Matches)
	case e.Matches == 0:
		return fmt.Sprintf("measurement %s has no chromatogram at %g nm", e.MeasurementID, *e.Wavelength)
	}
	return fmt.Sprintf("measurement %s has %d chromatograms at %g nm", e.MeasurementID, e.Matches, *e.Wavelength)
}

// AmbiguousPeakError is returned by strict peak assignment when more than one
// peak falls inside a molecule's retention window.
type AmbiguousPeakError struct {
	MoleculeID     string
	MeasurementID  string
	RetentionTimes []float64
}

func (e *AmbiguousPeakError) Error() string {
	return fmt.Sprintf("molecule %s matches %d peaks in measurement %s at %v",
		e.MoleculeID, len(e.RetentionTimes), e.MeasurementID, e.RetentionTimes)
}

// InconsistentConditionsError is returned when measurements of one batch were
// recorded under different conditions, or a reference condition is missing.
type InconsistentConditionsError struct {
	Field         string
	MeasurementID string
	Want          string
	Got           string
}

func (e *InconsistentConditionsError) Error() string {
	if e.Got == "" && e.Want == "" {
		return fmt.Sprintf("inconsistent conditions: %s is not defined on measurement %s", e.Field, e.MeasurementID)
	}
	return fmt.Sprintf("inconsistent conditions: measurement %s has %s %s, want %s",
		e.MeasurementID, e.Field, e.Got, e.Want)
}

// InsufficientCalibrationDataError is returned when a standard curve cannot be
// fitted from the given points.
type InsufficientCalibrationDataError struct {
	MoleculeID     string
	Concentrations int
	Signals        int
	Reason         string
}

func (e *InsufficientCalibrationDataError) Error() string {
	msg := fmt.Sprintf("insufficient calibration data (%d concentrations, %d signals)", e.Concentrations, e.Signals)
	if e.MoleculeID != "" {
		msg = fmt.Sprintf("molecule %s: %s", e.MoleculeID, msg)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// AmbiguousStrategyError is returned when a batch carries configuration for
// more than one concentration calculation strategy.
type AmbiguousStrategyError struct {
	InternalStandards []string
	Calibrated        []string
}

func (e *AmbiguousStrategyError) Error() string {
	if len(e.Calibrated) == 0 {
		return fmt.Sprintf("multiple internal standards defined (%s), choose one",
			strings.Join(e.InternalStandards, ", "))
	}
	return fmt.Sprintf("internal standard (%s) and external calibration (%s) are both defined, choose one",
		strings.Join(e.InternalStandards, ", "), strings.Join(e.Calibrated, ", "))
}

// NoBaselineMeasurementError is returned when internal standard quantification
// cannot find usable signals at reaction time zero.
type NoBaselineMeasurementError struct {
	MoleculeID string
	Reason     string
}

func (e *NoBaselineMeasurementError) Error() string {
	if e.MoleculeID == "" {
		return "no baseline measurement: " + e.Reason
	}
	return fmt.Sprintf("no baseline measurement for %s: %s", e.MoleculeID, e.Reason)
}

// MissingConcentrationError is returned when a species needs an initial
// concentration and unit that are not defined.
type MissingConcentrationError struct {
	SpeciesID string
}

func (e *MissingConcentrationError) Error() string {
	return fmt.Sprintf("species %s has no initial concentration and unit defined", e.SpeciesID)
}

// UnknownSpeciesError is returned when an id does not name a species of the
// session.
type UnknownSpeciesError struct {
	ID string
}

func (e *UnknownSpeciesError) Error() string {
	return fmt.Sprintf("species %s not found", e.ID)
}
