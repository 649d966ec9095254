package filter

import (
	"reflect"
	"testing"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
)

func testMeasurement() *core.Measurement {
	return &core.Measurement{
		ID: "m0",
		Chromatograms: []*core.Chromatogram{{
			Type: core.SignalUV,
			Peaks: []core.Peak{
				{RetentionTime: 0.5, Area: 5},
				{RetentionTime: 1.5, Area: 100},
				{RetentionTime: 2.5, Area: 0},
				{RetentionTime: 3.5, Area: 40},
				{RetentionTime: 4.5, Area: 60},
			},
		}},
	}
}

func retentionTimes(m *core.Measurement) []float64 {
	var out []float64
	for _, p := range m.Chromatograms[0].Peaks {
		out = append(out, p.RetentionTime)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   []float64
	}{
		{
			name:   "no filters",
			config: Config{},
			want:   []float64{0.5, 1.5, 2.5, 3.5, 4.5},
		},
		{
			name:   "remove zero area",
			config: Config{RemoveZeroArea: true},
			want:   []float64{0.5, 1.5, 3.5, 4.5},
		},
		{
			name:   "retention window",
			config: Config{MinRetentionTime: core.Float(1), MaxRetentionTime: core.Float(3.5)},
			want:   []float64{1.5, 2.5, 3.5},
		},
		{
			name:   "minimum area",
			config: Config{MinArea: 40},
			want:   []float64{1.5, 3.5, 4.5},
		},
		{
			name:   "area cutoff",
			config: Config{AreaCutoff: 50},
			want:   []float64{1.5, 4.5},
		},
		{
			name:   "top n keeps order",
			config: Config{TopN: 2},
			want:   []float64{1.5, 4.5},
		},
		{
			name:   "combined",
			config: Config{RemoveZeroArea: true, MinRetentionTime: core.Float(1), TopN: 2},
			want:   []float64{1.5, 4.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMeasurement()
			if err := tt.config.Apply(m); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got := retentionTimes(m); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() peaks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDetectors(t *testing.T) {
	m := testMeasurement()
	m.Chromatograms = append(m.Chromatograms, &core.Chromatogram{Type: core.SignalFID})

	c := Config{Detectors: []core.SignalType{core.SignalFID}}
	if err := c.Apply(m); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(m.Chromatograms) != 1 || m.Chromatograms[0].Type != core.SignalFID {
		t.Errorf("Apply() kept %d chromatograms, want the FID trace only", len(m.Chromatograms))
	}

	c = Config{Detectors: []core.SignalType{core.SignalMS}}
	if err := c.Apply(m); err == nil {
		t.Error("Apply() error = nil, want error when no chromatogram remains")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"negative top n", Config{TopN: -1}, true},
		{"cutoff above 100", Config{AreaCutoff: 120}, true},
		{"negative min area", Config{MinArea: -1}, true},
		{"inverted window", Config{MinRetentionTime: core.Float(5), MaxRetentionTime: core.Float(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	if !(&Config{}).IsZero() {
		t.Error("IsZero() = false for empty config")
	}
	if (&Config{TopN: 3}).IsZero() {
		t.Error("IsZero() = true for top-n config")
	}
}
