// Package conditions checks that a batch of measurements was recorded under
// one set of experimental conditions.
package conditions

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
)

// Conditions is the shared condition tuple of a validated batch.
type Conditions struct {
	PH              float64
	Temperature     float64
	TemperatureUnit core.Unit
	// TimeUnit is the unit of the measurements' data values.
	TimeUnit core.Unit
}

// Validate returns the conditions every measurement shares. The first
// measurement is the reference and must define pH, temperature and both
// units; every other measurement must match it exactly, units by name.
func Validate(measurements []*core.Measurement) (Conditions, error) {
	if len(measurements) == 0 {
		return Conditions{}, errors.New("no measurements to validate")
	}

	ref := measurements[0]
	switch {
	case ref.PH == nil:
		return Conditions{}, undefined("pH", ref.ID)
	case ref.Temperature == nil:
		return Conditions{}, undefined("temperature", ref.ID)
	case ref.TemperatureUnit.IsZero():
		return Conditions{}, undefined("temperature unit", ref.ID)
	case ref.Data.Unit.IsZero():
		return Conditions{}, undefined("time unit", ref.ID)
	}

	cond := Conditions{
		PH:              *ref.PH,
		Temperature:     *ref.Temperature,
		TemperatureUnit: ref.TemperatureUnit,
		TimeUnit:        ref.Data.Unit,
	}

	for _, meas := range measurements[1:] {
		if err := cond.check(meas); err != nil {
			return Conditions{}, err
		}
	}
	return cond, nil
}

func (c Conditions) check(meas *core.Measurement) error {
	if meas.PH == nil || *meas.PH != c.PH {
		return &core.InconsistentConditionsError{
			Field:         "pH",
			MeasurementID: meas.ID,
			Want:          formatFloat(&c.PH),
			Got:           formatFloat(meas.PH),
		}
	}
	if meas.Temperature == nil || *meas.Temperature != c.Temperature {
		return &core.InconsistentConditionsError{
			Field:         "temperature",
			MeasurementID: meas.ID,
			Want:          formatFloat(&c.Temperature),
			Got:           formatFloat(meas.Temperature),
		}
	}
	if !meas.TemperatureUnit.SameAs(c.TemperatureUnit) {
		return &core.InconsistentConditionsError{
			Field:         "temperature unit",
			MeasurementID: meas.ID,
			Want:          unitName(c.TemperatureUnit),
			Got:           unitName(meas.TemperatureUnit),
		}
	}
	if !meas.Data.Unit.SameAs(c.TimeUnit) {
		return &core.InconsistentConditionsError{
			Field:         "time unit",
			MeasurementID: meas.ID,
			Want:          unitName(c.TimeUnit),
			Got:           unitName(meas.Data.Unit),
		}
	}
	return nil
}

// String renders the tuple for log and CLI output.
func (c Conditions) String() string {
	return fmt.Sprintf("pH %g, %g %s, time in %s", c.PH, c.Temperature, c.TemperatureUnit, c.TimeUnit)
}

func undefined(field, measurementID string) error {
	return &core.InconsistentConditionsError{Field: field, MeasurementID: measurementID}
}

func formatFloat(v *float64) string {
	if v == nil {
		return "<none>"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func unitName(u core.Unit) string {
	if u.IsZero() {
		return "<none>"
	}
	return u.Name
}
