package core

// CalibrationModel is a fitted standard curve of signal against concentration
// for one molecule: signal = Slope*concentration + Intercept.
type CalibrationModel struct {
	MoleculeID     string
	Concentrations []float64
	Signals        []float64
	ConcUnit       Unit

	Slope     float64
	Intercept float64
	R         float64 // Pearson correlation coefficient

	// Conditions the standard was recorded under, if known.
	PH              *float64
	Temperature     *float64
	TemperatureUnit Unit
}

// Inverse solves the linear model for the concentration producing signal.
func (c *CalibrationModel) Inverse(signal float64) float64 {
	return (signal - c.Intercept) / c.Slope
}

// MaxSignal returns the largest calibration signal.
func (c *CalibrationModel) MaxSignal() float64 {
	if len(c.Signals) == 0 {
		return 0
	}
	max := c.Signals[0]
	for _, s := range c.Signals[1:] {
		if s > max {
			max = s
		}
	}
	return max
}

// MinSignal returns the smallest calibration signal.
func (c *CalibrationModel) MinSignal() float64 {
	if len(c.Signals) == 0 {
		return 0
	}
	min := c.Signals[0]
	for _, s := range c.Signals[1:] {
		if s < min {
			min = s
		}
	}
	return min
}

// Clone returns a deep copy of the model.
func (c *CalibrationModel) Clone() *CalibrationModel {
	out := *c
	out.Concentrations = append([]float64(nil), c.Concentrations...)
	out.Signals = append([]float64(nil), c.Signals...)
	out.ConcUnit = c.ConcUnit.clone()
	out.PH = cloneFloat(c.PH)
	out.Temperature = cloneFloat(c.Temperature)
	out.TemperatureUnit = c.TemperatureUnit.clone()
	return &out
}

// InternalStandardRatio holds the t=0 signals of an analyte and the internal
// standard it is normalised against.
type InternalStandardRatio struct {
	MoleculeID       string
	StandardID       string
	MoleculeT0Signal float64
	StandardT0Signal float64
	InitConc         float64
	ConcUnit         Unit
}

// BaselineRatio is the analyte/standard signal ratio at t=0.
func (r *InternalStandardRatio) BaselineRatio() float64 {
	return r.MoleculeT0Signal / r.StandardT0Signal
}

// Concentration scales the initial concentration by the change of the
// analyte/standard ratio relative to t=0.
func (r *InternalStandardRatio) Concentration(moleculeSignal, standardSignal float64) float64 {
	ratio := moleculeSignal / standardSignal
	return r.InitConc * (ratio / r.BaselineRatio())
}
