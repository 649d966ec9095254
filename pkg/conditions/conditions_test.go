package conditions

import (
	"errors"
	"testing"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measurement(id string, ph, temp float64) *core.Measurement {
	return &core.Measurement{
		ID:              id,
		PH:              core.Float(ph),
		Temperature:     core.Float(temp),
		TemperatureUnit: core.Celsius,
		Data:            core.Data{Value: 0, Unit: core.Minute, Kind: core.TimeCourse},
	}
}

func TestValidateIdenticalConditions(t *testing.T) {
	ms := []*core.Measurement{
		measurement("m0", 7.4, 25),
		measurement("m1", 7.4, 25),
		measurement("m2", 7.4, 25),
	}
	// same unit name from a different source
	ms[2].TemperatureUnit = core.Unit{Name: "C"}

	cond, err := Validate(ms)
	require.NoError(t, err)
	assert.Equal(t, 7.4, cond.PH)
	assert.Equal(t, 25.0, cond.Temperature)
	assert.Equal(t, "C", cond.TemperatureUnit.Name)
	assert.Equal(t, "min", cond.TimeUnit.Name)
	assert.Equal(t, "pH 7.4, 25 C, time in min", cond.String())
}

func TestValidateInconsistent(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(m *core.Measurement)
		wantField string
	}{
		{"pH differs", func(m *core.Measurement) { m.PH = core.Float(7.5) }, "pH"},
		{"pH missing", func(m *core.Measurement) { m.PH = nil }, "pH"},
		{"temperature differs", func(m *core.Measurement) { m.Temperature = core.Float(30) }, "temperature"},
		{"temperature unit differs", func(m *core.Measurement) { m.TemperatureUnit = core.Kelvin }, "temperature unit"},
		{"time unit differs", func(m *core.Measurement) { m.Data.Unit = core.Hour }, "time unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := []*core.Measurement{measurement("m0", 7.4, 25), measurement("m1", 7.4, 25)}
			tt.modify(ms[1])

			_, err := Validate(ms)
			var target *core.InconsistentConditionsError
			require.True(t, errors.As(err, &target), "got %v", err)
			assert.Equal(t, tt.wantField, target.Field)
			assert.Equal(t, "m1", target.MeasurementID)
		})
	}
}

func TestValidateReferenceMustBeDefined(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(m *core.Measurement)
		wantField string
	}{
		{"pH", func(m *core.Measurement) { m.PH = nil }, "pH"},
		{"temperature", func(m *core.Measurement) { m.Temperature = nil }, "temperature"},
		{"temperature unit", func(m *core.Measurement) { m.TemperatureUnit = core.Unit{} }, "temperature unit"},
		{"time unit", func(m *core.Measurement) { m.Data.Unit = core.Unit{} }, "time unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := measurement("m0", 7.4, 25)
			tt.modify(ref)

			_, err := Validate([]*core.Measurement{ref})
			var target *core.InconsistentConditionsError
			require.True(t, errors.As(err, &target))
			assert.Equal(t, tt.wantField, target.Field)
			assert.Contains(t, err.Error(), "not defined")
		})
	}
}

func TestValidateEmptyBatch(t *testing.T) {
	_, err := Validate(nil)
	assert.Error(t, err)
}

func TestValidateErrorMessage(t *testing.T) {
	ms := []*core.Measurement{measurement("m0", 7.4, 25), measurement("m1", 8, 25)}
	_, err := Validate(ms)
	require.Error(t, err)
	assert.Equal(t, "inconsistent conditions: measurement m1 has pH 8, want 7.4", err.Error())
}
