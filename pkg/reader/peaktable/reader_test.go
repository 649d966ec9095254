package peaktable

import (
	"strings"
	"testing"
	"time"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = `measurement,value,unit,ph,temperature,temperature_unit,dilution,injection_time,detector,wavelength,retention_time,area,height,notes
m0,0,min,7.4,30,C,2,2024-03-05 10:15:00,uv,254,1.2,100,12,first
m0,0,min,7.4,30,C,2,,uv,254,3.4,250,,
m0,0,min,7.4,30,C,2,,uv,210,1.2,80,,
m1,15,min,7.4,30,C,,,UV,254,,,,
# comment line
m2,30,min,7.4,30,C,,,uv,254,3.5,260,,
`

func TestReadAll(t *testing.T) {
	ms, err := ReadAll(strings.NewReader(testTable), Options{Mode: core.TimeCourse})
	require.NoError(t, err)
	require.Len(t, ms, 3)

	m0 := ms[0]
	assert.Equal(t, "m0", m0.ID)
	assert.Equal(t, core.Data{Value: 0, Unit: core.Minute, Kind: core.TimeCourse}, m0.Data)
	assert.Equal(t, 7.4, *m0.PH)
	assert.Equal(t, 30.0, *m0.Temperature)
	assert.Equal(t, "C", m0.TemperatureUnit.Name)
	assert.Equal(t, 2.0, m0.Dilution())
	require.NotNil(t, m0.Timestamp)
	assert.True(t, m0.Timestamp.Equal(time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC)), "got %v", m0.Timestamp)

	require.Len(t, m0.Chromatograms, 2)
	c254 := m0.Chromatograms[0]
	assert.Equal(t, core.SignalUV, c254.Type)
	assert.Equal(t, 254.0, *c254.Wavelength)
	require.Len(t, c254.Peaks, 2)
	assert.Equal(t, 1.2, c254.Peaks[0].RetentionTime)
	assert.Equal(t, 100.0, c254.Peaks[0].Area)
	assert.Equal(t, 12.0, *c254.Peaks[0].Amplitude)
	assert.Nil(t, c254.Peaks[1].Amplitude)
	assert.Equal(t, 210.0, *m0.Chromatograms[1].Wavelength)

	// a row without a retention time declares an empty chromatogram
	m1 := ms[1]
	assert.Equal(t, 15.0, m1.Data.Value)
	assert.Equal(t, 1.0, m1.Dilution())
	require.Len(t, m1.Chromatograms, 1)
	assert.Empty(t, m1.Chromatograms[0].Peaks)
	assert.Nil(t, m1.Timestamp)

	for _, m := range ms {
		assert.NoError(t, m.Validate())
	}
}

func TestReaderStreams(t *testing.T) {
	r := NewReader(strings.NewReader(testTable), Options{Mode: core.TimeCourse})

	var ids []string
	for r.Next() {
		ids = append(ids, r.Measurement().ID)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"m0", "m1", "m2"}, ids)
	assert.Nil(t, r.Measurement())
}

func TestReadTabSeparated(t *testing.T) {
	table := "measurement\tvalue\tunit\tretention_time\tarea\nc0\t10\tmM\t2.5\t500\n"

	ms, err := ReadAll(strings.NewReader(table), Options{Mode: core.Calibration, Comma: '\t'})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, core.Calibration, ms[0].Data.Kind)
	assert.Equal(t, "mmol / l", ms[0].Data.Unit.Name)
	assert.Nil(t, ms[0].PH)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		mode  core.DataKind
	}{
		{
			name:  "invalid mode",
			table: "measurement,value\nm0,0\n",
			mode:  "kinetics",
		},
		{
			name:  "missing id",
			table: "measurement,value\n,0\n",
			mode:  core.TimeCourse,
		},
		{
			name:  "missing value",
			table: "measurement,value\nm0,\n",
			mode:  core.TimeCourse,
		},
		{
			name:  "peak without area",
			table: "measurement,value,retention_time,area\nm0,0,1.5,\n",
			mode:  core.TimeCourse,
		},
		{
			name:  "bad number",
			table: "measurement,value,retention_time,area\nm0,0,abc,1\n",
			mode:  core.TimeCourse,
		},
		{
			name:  "conflicting ph",
			table: "measurement,value,ph,retention_time,area\nm0,0,7,1,1\nm0,0,8,2,1\n",
			mode:  core.TimeCourse,
		},
		{
			name:  "unknown detector",
			table: "measurement,value,detector\nm0,0,sonar\n",
			mode:  core.TimeCourse,
		},
		{
			name:  "bad injection time",
			table: "measurement,value,injection_time\nm0,0,not a date\n",
			mode:  core.TimeCourse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAll(strings.NewReader(tt.table), Options{Mode: tt.mode})
			assert.Error(t, err)
		})
	}
}
