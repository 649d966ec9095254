// Package core provides the in-memory data model for chromatographic measurement
// series and the validation logic shared by the assignment and quantification
// engines.
package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SignalType tags the detector a chromatogram was recorded with.
type SignalType string

const (
	SignalDAD  SignalType = "diode array detector"
	SignalELSD SignalType = "evaporative light scattering detector"
	SignalFID  SignalType = "flame ionization detector"
	SignalFLD  SignalType = "fluorescence detector"
	SignalMS   SignalType = "mass spectrometry"
	SignalRID  SignalType = "refractive index detector"
	SignalTCD  SignalType = "thermal conductivity detector"
	SignalUV   SignalType = "uv/visible absorbance detector"
)

var signalTypeCodes = map[string]SignalType{
	"dad":  SignalDAD,
	"elsd": SignalELSD,
	"fid":  SignalFID,
	"fld":  SignalFLD,
	"ms":   SignalMS,
	"rid":  SignalRID,
	"tcd":  SignalTCD,
	"uv":   SignalUV,
}

// ParseSignalType accepts a detector code ("uv", "fid", ...) or a full
// detector description. An empty string yields an empty SignalType.
func ParseSignalType(s string) (SignalType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if t, ok := signalTypeCodes[s]; ok {
		return t, nil
	}
	for _, t := range signalTypeCodes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown detector type '%s'", s)
}

// DataKind declares what a measurement's scalar data value represents.
type DataKind string

const (
	TimeCourse  DataKind = "timecourse"
	Calibration DataKind = "calibration"
)

// ParseDataKind parses a mode string, ignoring case.
func ParseDataKind(s string) (DataKind, error) {
	switch DataKind(strings.ToLower(strings.TrimSpace(s))) {
	case TimeCourse:
		return TimeCourse, nil
	case Calibration:
		return Calibration, nil
	}
	return "", fmt.Errorf("invalid mode '%s', must be 'calibration' or 'timecourse'", s)
}

// Peak is a detected feature of a chromatogram. Peaks are identified by their
// position in the owning chromatogram.
type Peak struct {
	RetentionTime float64 // minutes
	Area          float64

	// Optional shape descriptors
	Amplitude        *float64
	Width            *float64
	Skew             *float64
	TailingFactor    *float64
	SeparationFactor *float64
	PeakStart        *float64
	PeakEnd          *float64

	// MoleculeID is set by peak assignment only; empty means unassigned.
	MoleculeID string
}

// IsAssigned reports whether the peak carries a molecule label.
func (p *Peak) IsAssigned() bool {
	return p.MoleculeID != ""
}

// Chromatogram is one detector trace of a measurement.
type Chromatogram struct {
	Peaks           []Peak
	Times           []float64
	Signals         []float64
	ProcessedSignal []float64
	Type            SignalType
	Wavelength      *float64 // nm
}

// AssignedPeak returns the first peak labelled with moleculeID.
func (c *Chromatogram) AssignedPeak(moleculeID string) (*Peak, bool) {
	for i := range c.Peaks {
		if c.Peaks[i].MoleculeID == moleculeID {
			return &c.Peaks[i], true
		}
	}
	return nil, false
}

// HasWavelength reports whether the chromatogram was recorded at wl.
func (c *Chromatogram) HasWavelength(wl float64) bool {
	return c.Wavelength != nil && *c.Wavelength == wl
}

// Validate checks peak values and the raw trace layout.
func (c *Chromatogram) Validate() error {
	var errs []string

	for i, peak := range c.Peaks {
		if math.IsNaN(peak.RetentionTime) || math.IsInf(peak.RetentionTime, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid retention time", i))
		} else if peak.RetentionTime < 0 {
			errs = append(errs, fmt.Sprintf("peak %d retention time must be non-negative", i))
		}
		if math.IsNaN(peak.Area) || math.IsInf(peak.Area, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid area", i))
		} else if peak.Area < 0 {
			errs = append(errs, fmt.Sprintf("peak %d area must be non-negative", i))
		}
	}

	if len(c.Times) != len(c.Signals) {
		errs = append(errs, fmt.Sprintf("signal trace has %d times but %d signals", len(c.Times), len(c.Signals)))
	}
	if len(c.ProcessedSignal) > 0 && len(c.ProcessedSignal) != len(c.Times) {
		errs = append(errs, "processed signal must match the length of the raw trace")
	}
	for i := 1; i < len(c.Times); i++ {
		if c.Times[i] < c.Times[i-1] {
			errs = append(errs, "signal trace times must be sorted")
			break
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Chromatogram",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// Data is the declared scalar value of a measurement: a reaction time in
// timecourse mode or a known concentration in calibration mode.
type Data struct {
	Value float64
	Unit  Unit
	Kind  DataKind
}

// Measurement is one sampled run.
type Measurement struct {
	ID         string
	SampleName string

	Chromatograms []*Chromatogram
	Data          Data

	PH              *float64
	Temperature     *float64
	TemperatureUnit Unit

	// DilutionFactor of zero means undiluted.
	DilutionFactor      float64
	InjectionVolume     *float64
	InjectionVolumeUnit Unit
	Timestamp           *time.Time
}

// Dilution returns the dilution factor, defaulting to 1.
func (m *Measurement) Dilution() float64 {
	if m.DilutionFactor <= 0 {
		return 1
	}
	return m.DilutionFactor
}

// IsBaseline reports whether the measurement was taken at reaction time zero.
func (m *Measurement) IsBaseline() bool {
	return m.Data.Kind == TimeCourse && m.Data.Value == 0
}

// AssignedPeak returns the first peak labelled with moleculeID, searching the
// chromatograms in order.
func (m *Measurement) AssignedPeak(moleculeID string) (*Peak, bool) {
	for _, chrom := range m.Chromatograms {
		if peak, ok := chrom.AssignedPeak(moleculeID); ok {
			return peak, true
		}
	}
	return nil, false
}

// PeakCount returns the number of peaks across all chromatograms.
func (m *Measurement) PeakCount() int {
	n := 0
	for _, chrom := range m.Chromatograms {
		n += len(chrom.Peaks)
	}
	return n
}

// Validate checks that a measurement is complete enough to be quantified.
func (m *Measurement) Validate() error {
	var errs []string

	if m.ID == "" {
		errs = append(errs, "id is required")
	}
	if len(m.Chromatograms) == 0 {
		errs = append(errs, "at least one chromatogram is required")
	}
	if m.Data.Kind != TimeCourse && m.Data.Kind != Calibration {
		errs = append(errs, "data kind must be timecourse or calibration")
	}
	if math.IsNaN(m.Data.Value) || math.IsInf(m.Data.Value, 0) {
		errs = append(errs, "data value is invalid")
	}
	if m.DilutionFactor < 0 {
		errs = append(errs, "dilution factor must be non-negative")
	}

	for i, chrom := range m.Chromatograms {
		if chrom == nil {
			errs = append(errs, fmt.Sprintf("chromatogram %d is nil", i))
			continue
		}
		if err := chrom.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("chromatogram %d: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Measurement " + m.ID,
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}
