// Package filter provides peak filters applied to measurements before peak
// assignment.
package filter

import (
	"fmt"
	"sort"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN             int               // Keep only the N largest peaks per chromatogram (0 = no limit)
	AreaCutoff       float64           // Keep only peaks above this % of the largest peak (0 = no cutoff)
	MinArea          float64           // Absolute area floor (0 = no floor)
	MinRetentionTime *float64          // Drop peaks eluting before this time
	MaxRetentionTime *float64          // Drop peaks eluting after this time
	Detectors        []core.SignalType // Keep only chromatograms of these detectors (nil = all)
	RemoveZeroArea   bool
}

// IsZero reports whether the config filters nothing.
func (c *Config) IsZero() bool {
	return c.TopN == 0 && c.AreaCutoff == 0 && c.MinArea == 0 &&
		c.MinRetentionTime == nil && c.MaxRetentionTime == nil &&
		len(c.Detectors) == 0 && !c.RemoveZeroArea
}

// Validate checks the configured bounds.
func (c *Config) Validate() error {
	if c.TopN < 0 {
		return fmt.Errorf("top-n must be non-negative, got %d", c.TopN)
	}
	if c.AreaCutoff < 0 || c.AreaCutoff > 100 {
		return fmt.Errorf("area cutoff must be between 0 and 100%%, got %g", c.AreaCutoff)
	}
	if c.MinArea < 0 {
		return fmt.Errorf("minimum area must be non-negative, got %g", c.MinArea)
	}
	if c.MinRetentionTime != nil && c.MaxRetentionTime != nil && *c.MinRetentionTime > *c.MaxRetentionTime {
		return fmt.Errorf("retention window [%g, %g] is empty", *c.MinRetentionTime, *c.MaxRetentionTime)
	}
	return nil
}

// Apply applies all configured filters to a measurement. Peaks keep their
// relative order. Filters must run before peak assignment since removing a
// peak shifts the positions of the ones after it.
func (c *Config) Apply(meas *core.Measurement) error {
	if err := c.Validate(); err != nil {
		return err
	}

	// Drop whole chromatograms first
	if len(c.Detectors) > 0 {
		var kept []*core.Chromatogram
		for _, chrom := range meas.Chromatograms {
			if c.keepsDetector(chrom.Type) {
				kept = append(kept, chrom)
			}
		}
		if len(kept) == 0 {
			return fmt.Errorf("measurement %s has no chromatogram from the selected detectors", meas.ID)
		}
		meas.Chromatograms = kept
	}

	for _, chrom := range meas.Chromatograms {
		c.applyPeaks(chrom)
	}
	return nil
}

// ApplyAll applies the filters to every measurement.
func (c *Config) ApplyAll(measurements []*core.Measurement) error {
	for _, meas := range measurements {
		if err := c.Apply(meas); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyPeaks(chrom *core.Chromatogram) {
	if c.RemoveZeroArea {
		RemoveZeroAreaPeaks(chrom)
	}

	if c.MinRetentionTime != nil || c.MaxRetentionTime != nil {
		c.filterByRetentionTime(chrom)
	}

	if c.MinArea > 0 {
		keep(chrom, func(p *core.Peak) bool { return p.Area >= c.MinArea })
	}

	if c.AreaCutoff > 0 {
		c.filterByAreaCutoff(chrom)
	}

	if c.TopN > 0 {
		c.filterTopN(chrom)
	}
}

func (c *Config) keepsDetector(t core.SignalType) bool {
	for _, d := range c.Detectors {
		if d == t {
			return true
		}
	}
	return false
}

// filterByRetentionTime crops peaks to the configured retention window
func (c *Config) filterByRetentionTime(chrom *core.Chromatogram) {
	keep(chrom, func(p *core.Peak) bool {
		if c.MinRetentionTime != nil && p.RetentionTime < *c.MinRetentionTime {
			return false
		}
		if c.MaxRetentionTime != nil && p.RetentionTime > *c.MaxRetentionTime {
			return false
		}
		return true
	})
}

// filterByAreaCutoff removes peaks below the cutoff percentage of the largest peak
func (c *Config) filterByAreaCutoff(chrom *core.Chromatogram) {
	if len(chrom.Peaks) == 0 {
		return
	}

	maxArea := 0.0
	for _, peak := range chrom.Peaks {
		if peak.Area > maxArea {
			maxArea = peak.Area
		}
	}

	threshold := (c.AreaCutoff / 100.0) * maxArea
	keep(chrom, func(p *core.Peak) bool { return p.Area >= threshold })
}

// filterTopN keeps only the N largest peaks, in their original order
func (c *Config) filterTopN(chrom *core.Chromatogram) {
	if len(chrom.Peaks) <= c.TopN {
		return
	}

	idx := make([]int, len(chrom.Peaks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return chrom.Peaks[idx[i]].Area > chrom.Peaks[idx[j]].Area
	})

	selected := make([]bool, len(chrom.Peaks))
	for _, i := range idx[:c.TopN] {
		selected[i] = true
	}

	filtered := make([]core.Peak, 0, c.TopN)
	for i, peak := range chrom.Peaks {
		if selected[i] {
			filtered = append(filtered, peak)
		}
	}
	chrom.Peaks = filtered
}

func keep(chrom *core.Chromatogram, pred func(p *core.Peak) bool) {
	var filtered []core.Peak
	for i := range chrom.Peaks {
		if pred(&chrom.Peaks[i]) {
			filtered = append(filtered, chrom.Peaks[i])
		}
	}
	chrom.Peaks = filtered
}

// RemoveZeroAreaPeaks removes peaks with zero or negative area
func RemoveZeroAreaPeaks(chrom *core.Chromatogram) {
	keep(chrom, func(p *core.Peak) bool { return p.Area > 0 })
}
