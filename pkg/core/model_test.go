package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurementValidation(t *testing.T) {
	valid := func() *Measurement {
		return &Measurement{
			ID:   "m0",
			Data: Data{Value: 0, Unit: Minute, Kind: TimeCourse},
			Chromatograms: []*Chromatogram{{
				Peaks: []Peak{{RetentionTime: 1.2, Area: 100}},
			}},
		}
	}

	tests := []struct {
		name    string
		modify  func(m *Measurement)
		wantErr bool
	}{
		{
			name:   "valid measurement",
			modify: func(m *Measurement) {},
		},
		{
			name:    "missing id",
			modify:  func(m *Measurement) { m.ID = "" },
			wantErr: true,
		},
		{
			name:    "no chromatograms",
			modify:  func(m *Measurement) { m.Chromatograms = nil },
			wantErr: true,
		},
		{
			name:    "unknown data kind",
			modify:  func(m *Measurement) { m.Data.Kind = "" },
			wantErr: true,
		},
		{
			name:    "negative area",
			modify:  func(m *Measurement) { m.Chromatograms[0].Peaks[0].Area = -1 },
			wantErr: true,
		},
		{
			name:    "NaN retention time",
			modify:  func(m *Measurement) { m.Chromatograms[0].Peaks[0].RetentionTime = math.NaN() },
			wantErr: true,
		},
		{
			name: "trace length mismatch",
			modify: func(m *Measurement) {
				m.Chromatograms[0].Times = []float64{0, 1}
				m.Chromatograms[0].Signals = []float64{0}
			},
			wantErr: true,
		},
		{
			name: "unsorted trace",
			modify: func(m *Measurement) {
				m.Chromatograms[0].Times = []float64{1, 0}
				m.Chromatograms[0].Signals = []float64{0, 0}
			},
			wantErr: true,
		},
		{
			name:    "negative dilution",
			modify:  func(m *Measurement) { m.DilutionFactor = -2 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.modify(m)
			err := m.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "want *ValidationError, got %v", err)
		})
	}
}

func TestMeasurementAssignedPeak(t *testing.T) {
	m := &Measurement{
		Chromatograms: []*Chromatogram{
			{Peaks: []Peak{{RetentionTime: 1, Area: 10}}},
			{Peaks: []Peak{{RetentionTime: 2, Area: 20, MoleculeID: "a"}, {RetentionTime: 3, Area: 30, MoleculeID: "a"}}},
		},
	}

	peak, ok := m.AssignedPeak("a")
	require.True(t, ok)
	assert.Equal(t, 2.0, peak.RetentionTime)

	// returned pointer aliases the chromatogram's peak
	peak.Area = 21
	assert.Equal(t, 21.0, m.Chromatograms[1].Peaks[0].Area)

	_, ok = m.AssignedPeak("b")
	assert.False(t, ok)
	assert.Equal(t, 3, m.PeakCount())
}

func TestMeasurementDilutionAndBaseline(t *testing.T) {
	m := &Measurement{Data: Data{Value: 0, Kind: TimeCourse}}
	assert.Equal(t, 1.0, m.Dilution())
	assert.True(t, m.IsBaseline())

	m.DilutionFactor = 4
	assert.Equal(t, 4.0, m.Dilution())

	m.Data.Kind = Calibration
	assert.False(t, m.IsBaseline())
}

func TestParseDataKind(t *testing.T) {
	kind, err := ParseDataKind(" TimeCourse ")
	require.NoError(t, err)
	assert.Equal(t, TimeCourse, kind)

	kind, err = ParseDataKind("calibration")
	require.NoError(t, err)
	assert.Equal(t, Calibration, kind)

	_, err = ParseDataKind("kinetics")
	assert.Error(t, err)
}

func TestParseSignalType(t *testing.T) {
	st, err := ParseSignalType("UV")
	require.NoError(t, err)
	assert.Equal(t, SignalUV, st)

	st, err = ParseSignalType("flame ionization detector")
	require.NoError(t, err)
	assert.Equal(t, SignalFID, st)

	st, err = ParseSignalType("")
	require.NoError(t, err)
	assert.Equal(t, SignalType(""), st)

	_, err = ParseSignalType("sonar")
	assert.Error(t, err)
}

func TestUnitFromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mM", "mmol / l"},
		{"mmol / litre", "mmol / l"},
		{"uM", "umol / l"},
		{"minutes", "min"},
		{"Celsius", "C"},
		{"K", "K"},
		{"furlongs", "furlongs"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, UnitFromName(tt.in).Name)
		})
	}

	// aliases return independent copies
	u := UnitFromName("mM")
	u.BaseUnits[0].Scale = 0
	assert.Equal(t, -3, MilliMolar.BaseUnits[0].Scale)
}

func TestUnitSameAsComparesNames(t *testing.T) {
	a := Unit{Name: "C", BaseUnits: []BaseUnit{{UnitCelsius, 0, 1}}}
	b := Unit{Name: "C"}
	c := Unit{Name: "K", BaseUnits: []BaseUnit{{UnitCelsius, 0, 1}}}

	assert.True(t, a.SameAs(b))
	assert.False(t, a.SameAs(c))
	assert.True(t, Unit{}.IsZero())
}

func TestMoleculeValidation(t *testing.T) {
	tests := []struct {
		name    string
		mol     Molecule
		wantErr bool
	}{
		{"minimal", Molecule{ID: "s0"}, false},
		{"missing id", Molecule{}, true},
		{"conc without unit", Molecule{ID: "s0", InitConc: Float(1)}, true},
		{"unit without conc", Molecule{ID: "s0", ConcUnit: MilliMolar}, true},
		{"negative min signal", Molecule{ID: "s0", MinSignal: -1}, true},
		{"internal standard without conc", Molecule{ID: "is", InternalStandard: true}, true},
		{"internal standard", Molecule{ID: "is", InternalStandard: true, InitConc: Float(1), ConcUnit: MilliMolar}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mol.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMoleculeCloneIsDeep(t *testing.T) {
	orig := &Molecule{
		ID:            "s0",
		RetentionTime: Float(5),
		InitConc:      Float(1),
		ConcUnit:      MilliMolar,
		Calibration:   &CalibrationModel{Signals: []float64{1, 2}},
	}
	cp := orig.Clone()

	*cp.RetentionTime = 6
	*cp.InitConc = 2
	cp.Calibration.Signals[0] = 99

	assert.Equal(t, 5.0, *orig.RetentionTime)
	assert.Equal(t, 1.0, *orig.InitConc)
	assert.Equal(t, 1.0, orig.Calibration.Signals[0])
}

func TestDefaultDataType(t *testing.T) {
	var species []Species = []Species{&Molecule{ID: "s0"}, &Protein{ID: "p0"}}
	assert.Equal(t, DataPeakArea, DefaultDataType(species[0]))
	assert.Equal(t, DataConcentration, DefaultDataType(species[1]))
	assert.Equal(t, "molecule", species[0].Kind().String())
	assert.Equal(t, "protein", species[1].Kind().String())
}

func TestInternalStandardRatioInvariance(t *testing.T) {
	r := &InternalStandardRatio{
		MoleculeT0Signal: 100,
		StandardT0Signal: 200,
		InitConc:         2.5,
	}

	// unchanged ratio leaves the concentration unchanged
	assert.Equal(t, 2.5, r.Concentration(50, 100))
	assert.Equal(t, 2.5, r.Concentration(100, 200))

	// halved analyte signal halves the concentration
	assert.InDelta(t, 1.25, r.Concentration(50, 200), 1e-12)
}

func TestCalibrationModelInverse(t *testing.T) {
	m := &CalibrationModel{Slope: 10, Intercept: 0, Signals: []float64{0, 100, 200}}
	assert.Equal(t, 5.0, m.Inverse(50))
	assert.Equal(t, 200.0, m.MaxSignal())
	assert.Equal(t, 0.0, m.MinSignal())
}
