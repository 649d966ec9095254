// Package peaktable reads measurements from a CSV peak table with one row per
// detected peak.
package peaktable

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// row is one line of the peak table. Empty cells decode as null.
type row struct {
	Measurement     string      `csv:"measurement"`
	Sample          null.String `csv:"sample"`
	Value           null.Float  `csv:"value"`
	Unit            null.String `csv:"unit"`
	PH              null.Float  `csv:"ph"`
	Temperature     null.Float  `csv:"temperature"`
	TemperatureUnit null.String `csv:"temperature_unit"`
	Dilution        null.Float  `csv:"dilution"`
	InjectionVolume null.Float  `csv:"injection_volume"`
	InjectionTime   null.String `csv:"injection_time"`
	Detector        null.String `csv:"detector"`
	Wavelength      null.Float  `csv:"wavelength"`
	RetentionTime   null.Float  `csv:"retention_time"`
	Area            null.Float  `csv:"area"`
	Height          null.Float  `csv:"height"`
	Width           null.Float  `csv:"width"`
	Skew            null.Float  `csv:"skew"`
	Tailing         null.Float  `csv:"tailing"`
	Separation      null.Float  `csv:"separation"`
}

// Options configures how a table is interpreted.
type Options struct {
	// Mode is the data kind of every measurement's value column.
	Mode core.DataKind
	// Comma is the field delimiter, ',' when zero.
	Comma rune
}

// Reader provides streaming access to the measurements of a peak table.
// Rows are grouped by measurement id in first-seen order, and within a
// measurement by detector and wavelength.
type Reader struct {
	src     io.Reader
	opts    Options
	loaded  bool
	pending []*core.Measurement
	current *core.Measurement
	err     error
}

// NewReader creates a new peak table reader
func NewReader(r io.Reader, opts Options) *Reader {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return &Reader{src: r, opts: opts}
}

// Next advances to the next measurement. Returns false when no more
// measurements or error.
func (r *Reader) Next() bool {
	r.current = nil
	if r.err != nil {
		return false
	}
	if !r.loaded {
		r.loaded = true
		ms, err := r.load()
		if err != nil {
			r.err = err
			return false
		}
		r.pending = ms
	}
	if len(r.pending) == 0 {
		return false
	}
	r.current, r.pending = r.pending[0], r.pending[1:]
	return true
}

// Measurement returns the current measurement
func (r *Reader) Measurement() *core.Measurement {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every measurement of a table.
func ReadAll(src io.Reader, opts Options) ([]*core.Measurement, error) {
	r := NewReader(src, opts)
	var out []*core.Measurement
	for r.Next() {
		out = append(out, r.Measurement())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) load() ([]*core.Measurement, error) {
	if r.opts.Mode != core.TimeCourse && r.opts.Mode != core.Calibration {
		return nil, fmt.Errorf("invalid reader mode '%s'", r.opts.Mode)
	}

	cr := csv.NewReader(r.src)
	cr.Comma = r.opts.Comma
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var rows []*row
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse peak table: %w", err)
	}

	b := builder{mode: r.opts.Mode, byID: map[string]*group{}}
	for i, rec := range rows {
		if err := b.add(rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return b.measurements(), nil
}

type group struct {
	meas   *core.Measurement
	chroms map[string]*core.Chromatogram
}

type builder struct {
	mode  core.DataKind
	order []*group
	byID  map[string]*group
}

func (b *builder) measurements() []*core.Measurement {
	out := make([]*core.Measurement, len(b.order))
	for i, g := range b.order {
		out[i] = g.meas
	}
	return out
}

func (b *builder) add(rec *row) error {
	id := strings.TrimSpace(rec.Measurement)
	if id == "" {
		return fmt.Errorf("measurement id is required")
	}

	g, ok := b.byID[id]
	if !ok {
		meas, err := b.newMeasurement(id, rec)
		if err != nil {
			return err
		}
		g = &group{meas: meas, chroms: map[string]*core.Chromatogram{}}
		b.byID[id] = g
		b.order = append(b.order, g)
	} else if err := checkConsistent(g.meas, rec); err != nil {
		return err
	}

	chrom, err := g.chromatogram(rec)
	if err != nil {
		return err
	}

	if !rec.RetentionTime.Valid {
		return nil
	}
	if !rec.Area.Valid {
		return fmt.Errorf("peak at %g in measurement %s has no area", rec.RetentionTime.Float64, id)
	}
	chrom.Peaks = append(chrom.Peaks, core.Peak{
		RetentionTime:    rec.RetentionTime.Float64,
		Area:             rec.Area.Float64,
		Amplitude:        rec.Height.Ptr(),
		Width:            rec.Width.Ptr(),
		Skew:             rec.Skew.Ptr(),
		TailingFactor:    rec.Tailing.Ptr(),
		SeparationFactor: rec.Separation.Ptr(),
	})
	return nil
}

func (b *builder) newMeasurement(id string, rec *row) (*core.Measurement, error) {
	if !rec.Value.Valid {
		return nil, fmt.Errorf("measurement %s has no %s value", id, b.mode)
	}

	meas := &core.Measurement{
		ID:         id,
		SampleName: rec.Sample.String,
		Data: core.Data{
			Value: rec.Value.Float64,
			Unit:  core.UnitFromName(rec.Unit.String),
			Kind:  b.mode,
		},
		PH:              rec.PH.Ptr(),
		Temperature:     rec.Temperature.Ptr(),
		TemperatureUnit: core.UnitFromName(rec.TemperatureUnit.String),
		DilutionFactor:  rec.Dilution.Float64,
		InjectionVolume: rec.InjectionVolume.Ptr(),
	}
	if meas.InjectionVolume != nil {
		meas.InjectionVolumeUnit = core.Microlitre
	}

	if rec.InjectionTime.Valid {
		ts, err := dateparse.ParseAny(rec.InjectionTime.String)
		if err != nil {
			return nil, fmt.Errorf("measurement %s: invalid injection time '%s': %w", id, rec.InjectionTime.String, err)
		}
		meas.Timestamp = &ts
	}
	return meas, nil
}

// checkConsistent rejects rows that redefine measurement level values.
func checkConsistent(meas *core.Measurement, rec *row) error {
	conflict := func(field string, want *float64, got null.Float) error {
		if !got.Valid {
			return nil
		}
		if want == nil || *want != got.Float64 {
			return fmt.Errorf("measurement %s has conflicting %s values", meas.ID, field)
		}
		return nil
	}

	if err := conflict("value", &meas.Data.Value, rec.Value); err != nil {
		return err
	}
	if err := conflict("ph", meas.PH, rec.PH); err != nil {
		return err
	}
	return conflict("temperature", meas.Temperature, rec.Temperature)
}

func (g *group) chromatogram(rec *row) (*core.Chromatogram, error) {
	signal, err := core.ParseSignalType(rec.Detector.String)
	if err != nil {
		return nil, err
	}
	key := string(signal)
	if rec.Wavelength.Valid {
		key += "@" + strconv.FormatFloat(rec.Wavelength.Float64, 'g', -1, 64)
	}
	if chrom, ok := g.chroms[key]; ok {
		return chrom, nil
	}

	chrom := &core.Chromatogram{
		Type:       signal,
		Wavelength: rec.Wavelength.Ptr(),
		Peaks:      []core.Peak{},
	}
	g.chroms[key] = chrom
	g.meas.Chromatograms = append(g.meas.Chromatograms, chrom)
	return chrom, nil
}
