package assign

import (
	"errors"
	"testing"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measurement(id string, peaks ...core.Peak) *core.Measurement {
	return &core.Measurement{
		ID:            id,
		Data:          core.Data{Kind: core.TimeCourse, Unit: core.Minute},
		Chromatograms: []*core.Chromatogram{{Type: core.SignalUV, Wavelength: core.Float(254), Peaks: peaks}},
	}
}

func molecule(rt, minSignal float64) *core.Molecule {
	return &core.Molecule{
		ID:                 "test_mol",
		Name:               "Test Molecule",
		RetentionTime:      core.Float(rt),
		RetentionTolerance: 0.2,
		MinSignal:          minSignal,
	}
}

func assignedRTs(m *core.Measurement, id string) []float64 {
	var out []float64
	for _, chrom := range m.Chromatograms {
		for _, p := range chrom.Peaks {
			if p.MoleculeID == id {
				out = append(out, p.RetentionTime)
			}
		}
	}
	return out
}

func TestAssignSinglePeak(t *testing.T) {
	m := measurement("meas_001", core.Peak{RetentionTime: 5.0, Area: 500})
	mol := molecule(5.0, 100)

	report, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, mol.Tolerance(), nil)
	require.NoError(t, err)

	assert.Equal(t, "test_mol", m.Chromatograms[0].Peaks[0].MoleculeID)
	assert.Equal(t, 1, report.Assigned)
	assert.Empty(t, report.Ambiguous)
	assert.Empty(t, report.Missing)
	assert.False(t, report.HasDiagnostics())
}

func TestAssignToleranceBoundary(t *testing.T) {
	// 0.5 and 0.25 are exact in binary, so the distances below are exact too.
	tests := []struct {
		name   string
		rt     float64
		wantOK bool
	}{
		{"upper edge excluded", 5.5, false},
		{"lower edge excluded", 4.5, false},
		{"just inside upper", 5.5 - 1e-9, true},
		{"just inside lower", 4.5 + 1e-9, true},
		{"center", 5.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := measurement("m", core.Peak{RetentionTime: tt.rt, Area: 10})
			mol := molecule(5.0, 0)

			report, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, 0.5, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOK, m.Chromatograms[0].Peaks[0].IsAssigned())
			if tt.wantOK {
				assert.Equal(t, 1, report.Assigned)
			} else {
				assert.Equal(t, []string{"m"}, report.Missing)
			}
		})
	}
}

func TestAssignClosestPeakWins(t *testing.T) {
	orders := [][]float64{
		{4.9, 5.15, 4.85},
		{5.15, 4.85, 4.9},
		{4.85, 4.9, 5.15},
	}

	for _, order := range orders {
		peaks := make([]core.Peak, len(order))
		for i, rt := range order {
			peaks[i] = core.Peak{RetentionTime: rt, Area: 300}
		}
		m := measurement("meas_001", peaks...)
		mol := molecule(5.0, 100)

		report, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, 0.2, nil)
		require.NoError(t, err)

		assert.Equal(t, []float64{4.9}, assignedRTs(m, "test_mol"), "order %v", order)
		require.Len(t, report.Ambiguous, 1)
		assert.Equal(t, "meas_001", report.Ambiguous[0].MeasurementID)
		assert.Equal(t, order, report.Ambiguous[0].RetentionTimes)
		assert.Equal(t, 4.9, report.Ambiguous[0].Selected)
		assert.Equal(t, 1, report.Assigned)
	}
}

func TestAssignEquidistantFirstWins(t *testing.T) {
	for run := 0; run < 5; run++ {
		m := measurement("m", core.Peak{RetentionTime: 5.25, Area: 10}, core.Peak{RetentionTime: 4.75, Area: 10})
		mol := molecule(5.0, 0)

		_, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, 0.5, nil)
		require.NoError(t, err)

		assert.Equal(t, "test_mol", m.Chromatograms[0].Peaks[0].MoleculeID)
		assert.Empty(t, m.Chromatograms[0].Peaks[1].MoleculeID)
	}
}

func TestAssignMinSignalFilter(t *testing.T) {
	m := measurement("meas_001", core.Peak{RetentionTime: 5.0, Area: 50})
	mol := molecule(5.0, 100)

	report, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, 0.2, nil)
	require.NoError(t, err)

	assert.False(t, m.Chromatograms[0].Peaks[0].IsAssigned())
	assert.Equal(t, 0, report.Assigned)
	assert.Equal(t, []string{"meas_001"}, report.Missing)
}

func TestAssignMinSignalNarrowsCandidates(t *testing.T) {
	// the closest peak is too small, the farther one is assigned without ambiguity
	m := measurement("m", core.Peak{RetentionTime: 5.0, Area: 50}, core.Peak{RetentionTime: 5.1, Area: 500})
	mol := molecule(5.0, 100)

	report, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, 0.2, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{5.1}, assignedRTs(m, "test_mol"))
	assert.Empty(t, report.Ambiguous)
}

func TestAssignMissingRetentionTime(t *testing.T) {
	m := measurement("m", core.Peak{RetentionTime: 5.0, Area: 10})
	mol := &core.Molecule{ID: "x"}

	_, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, 0.2, nil)
	var target *core.MissingRetentionTimeError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "x", target.MoleculeID)
}

func TestAssignInvalidTolerance(t *testing.T) {
	m := measurement("m", core.Peak{RetentionTime: 5.0, Area: 10})
	_, err := New(Options{}, nil).Assign([]*core.Measurement{m}, molecule(5.0, 0), 0, nil)
	assert.Error(t, err)
}

func TestAssignDoesNotUnassign(t *testing.T) {
	m := measurement("m", core.Peak{RetentionTime: 5.0, Area: 10}, core.Peak{RetentionTime: 7.0, Area: 10, MoleculeID: "other"})
	mol := molecule(5.0, 0)

	_, err := New(Options{}, nil).Assign([]*core.Measurement{m}, mol, 0.2, nil)
	require.NoError(t, err)
	assert.Equal(t, "other", m.Chromatograms[0].Peaks[1].MoleculeID)
}

func TestAssignStrictModeFailsOnAmbiguity(t *testing.T) {
	m1 := measurement("m1", core.Peak{RetentionTime: 5.0, Area: 10})
	m2 := measurement("m2", core.Peak{RetentionTime: 4.9, Area: 10}, core.Peak{RetentionTime: 5.1, Area: 10})
	mol := molecule(5.0, 0)

	_, err := New(Options{Strict: true}, nil).Assign([]*core.Measurement{m1, m2}, mol, 0.2, nil)
	var target *core.AmbiguousPeakError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "m2", target.MeasurementID)
	assert.Equal(t, []float64{4.9, 5.1}, target.RetentionTimes)

	// nothing was labelled
	assert.False(t, m1.Chromatograms[0].Peaks[0].IsAssigned())
}

func TestAssignMultipleMeasurementsReport(t *testing.T) {
	ms := []*core.Measurement{
		measurement("m0", core.Peak{RetentionTime: 5.0, Area: 10}),
		measurement("m1"),
		measurement("m2", core.Peak{RetentionTime: 5.05, Area: 10}),
	}
	mol := molecule(5.0, 0)

	report, err := New(Options{}, nil).Assign(ms, mol, 0.2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Assigned)
	assert.Equal(t, []string{"m1"}, report.Missing)
	assert.Equal(t, "test_mol: assigned 2 peaks, missing in m1", report.String())
}

func TestResolveChromatogram(t *testing.T) {
	multi := &core.Measurement{
		ID: "m",
		Chromatograms: []*core.Chromatogram{
			{Wavelength: core.Float(210)},
			{Wavelength: core.Float(254)},
		},
	}

	chrom, err := ResolveChromatogram(multi, core.Float(254))
	require.NoError(t, err)
	assert.Same(t, multi.Chromatograms[1], chrom)

	tests := []struct {
		name       string
		meas       *core.Measurement
		wavelength *float64
	}{
		{"multiple without wavelength", multi, nil},
		{"no match", multi, core.Float(280)},
		{"no chromatograms", &core.Measurement{ID: "e"}, nil},
		{
			"duplicate wavelength",
			&core.Measurement{ID: "d", Chromatograms: []*core.Chromatogram{{Wavelength: core.Float(254)}, {Wavelength: core.Float(254)}}},
			core.Float(254),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveChromatogram(tt.meas, tt.wavelength)
			var target *core.AmbiguousChromatogramError
			assert.True(t, errors.As(err, &target), "got %v", err)
		})
	}

	// a single chromatogram is used whatever wavelength is asked for
	single := &core.Measurement{ID: "s", Chromatograms: []*core.Chromatogram{{Wavelength: core.Float(210)}}}
	chrom, err = ResolveChromatogram(single, core.Float(254))
	require.NoError(t, err)
	assert.Same(t, single.Chromatograms[0], chrom)
}

func TestAssignResolutionErrorLeavesPeaksUntouched(t *testing.T) {
	good := measurement("good", core.Peak{RetentionTime: 5.0, Area: 10})
	bad := &core.Measurement{
		ID: "bad",
		Chromatograms: []*core.Chromatogram{
			{Wavelength: core.Float(210)},
			{Wavelength: core.Float(254)},
		},
	}

	_, err := New(Options{}, nil).Assign([]*core.Measurement{good, bad}, molecule(5.0, 0), 0.2, nil)
	require.Error(t, err)
	assert.False(t, good.Chromatograms[0].Peaks[0].IsAssigned())
}
