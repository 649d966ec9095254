package quant

import (
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/montanaflynn/stats"
)

// SeriesSummary holds descriptive statistics of one series.
type SeriesSummary struct {
	MoleculeID string
	DataType   core.DataType
	Points     int
	Detected   int // points with a non-zero value
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64
}

// Summary describes a quantification result.
type Summary struct {
	Strategy Strategy
	Series   []SeriesSummary
	// StandardAreaRSD is the relative standard deviation of the internal
	// standard's peak area across the batch, nil when there is no internal
	// standard or fewer than two of its peaks.
	StandardAreaRSD *float64
}

// Summarize computes per-series statistics. The measurements are only used for
// the internal standard drift.
func Summarize(res *Result, measurements []*core.Measurement) (*Summary, error) {
	out := &Summary{Strategy: res.Strategy, Series: make([]SeriesSummary, 0, len(res.Series))}

	for i := range res.Series {
		s := &res.Series[i]
		sum := SeriesSummary{MoleculeID: s.MoleculeID, DataType: s.DataType, Points: len(s.Points)}
		data := stats.Float64Data(s.Values())
		if data.Len() == 0 {
			out.Series = append(out.Series, sum)
			continue
		}
		for _, v := range data {
			if v != 0 {
				sum.Detected++
			}
		}

		var err error
		if sum.Min, err = data.Min(); err != nil {
			return nil, err
		}
		if sum.Max, err = data.Max(); err != nil {
			return nil, err
		}
		if sum.Mean, err = data.Mean(); err != nil {
			return nil, err
		}
		if sum.StdDev, err = data.StandardDeviation(); err != nil {
			return nil, err
		}
		out.Series = append(out.Series, sum)
	}

	if res.StandardID != "" {
		rsd, err := StandardAreaRSD(measurements, res.StandardID)
		if err != nil {
			return nil, err
		}
		out.StandardAreaRSD = rsd
	}
	return out, nil
}

// StandardAreaRSD returns the relative standard deviation of the areas of the
// peaks assigned to standardID, or nil when fewer than two were found or their
// mean is 0.
func StandardAreaRSD(measurements []*core.Measurement, standardID string) (*float64, error) {
	var areas stats.Float64Data
	for _, meas := range measurements {
		if peak, ok := meas.AssignedPeak(standardID); ok {
			areas = append(areas, peak.Area)
		}
	}
	if areas.Len() < 2 {
		return nil, nil
	}

	mean, err := areas.Mean()
	if err != nil {
		return nil, err
	}
	if mean == 0 {
		return nil, nil
	}
	sd, err := areas.StandardDeviation()
	if err != nil {
		return nil, err
	}
	rsd := sd / mean
	return &rsd, nil
}
