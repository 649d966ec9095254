package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ChrisMcGann/ChromQuant/pkg/assign"
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/ChrisMcGann/ChromQuant/pkg/filter"
	"github.com/ChrisMcGann/ChromQuant/pkg/method"
	"github.com/ChrisMcGann/ChromQuant/pkg/reader/peaktable"
	"github.com/ChrisMcGann/ChromQuant/pkg/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// batch is a loaded peak table with the method applied.
type batch struct {
	method  *method.Method
	session *session.Session
	reports []*assign.Report
}

// loadBatch reads the peak table, filters its peaks and applies the method.
// Filter flags override the method's filters when given.
func loadBatch(cmd *cobra.Command) (*batch, error) {
	m := &method.Method{}
	if methodFile != "" {
		var err error
		if m, err = method.LoadFile(methodFile); err != nil {
			return nil, err
		}
	}

	kindName := mode
	if kindName == "" {
		kindName = m.Mode
	}
	if kindName == "" {
		kindName = string(core.TimeCourse)
	}
	kind, err := core.ParseDataKind(kindName)
	if err != nil {
		return nil, err
	}

	comma, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}

	inFile, err := os.Open(tableFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open peak table: %w", err)
	}
	defer inFile.Close()

	measurements, err := peaktable.ReadAll(inFile, peaktable.Options{Mode: kind, Comma: comma})
	if err != nil {
		return nil, fmt.Errorf("error reading peak table: %w", err)
	}

	filterConfig, err := m.FilterConfig()
	if err != nil {
		return nil, err
	}
	if err := applyFilterFlags(cmd, &filterConfig); err != nil {
		return nil, err
	}
	if !filterConfig.IsZero() {
		if err := filterConfig.ApplyAll(measurements); err != nil {
			return nil, err
		}
	}

	id := m.ID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(tableFile), filepath.Ext(tableFile))
	}
	opts := m.SessionOptions()
	if cmd.Flags().Changed("strict") {
		opts.StrictAssignment = strict
	}

	sess, err := session.New(id, m.Name, string(kind), opts, log)
	if err != nil {
		return nil, err
	}
	if err := sess.AddMeasurements(measurements...); err != nil {
		return nil, err
	}

	reports, err := m.Apply(sess)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dilution") {
		if err := sess.SetDilutionFactor(dilution); err != nil {
			return nil, err
		}
	}

	log.Info("batch loaded",
		zap.String("session", sess.String()),
		zap.String("mode", string(kind)),
		zap.String("table", tableFile))
	return &batch{method: m, session: sess, reports: reports}, nil
}

// applyFilterFlags overrides filter settings with the flags that were set.
func applyFilterFlags(cmd *cobra.Command, c *filter.Config) error {
	flags := cmd.Flags()
	if flags.Changed("rt-min") {
		c.MinRetentionTime = core.Float(rtMin)
	}
	if flags.Changed("rt-max") {
		c.MaxRetentionTime = core.Float(rtMax)
	}
	if flags.Changed("min-area") {
		c.MinArea = minArea
	}
	if flags.Changed("cutoff") {
		c.AreaCutoff = cutoffPercent
	}
	if flags.Changed("top-n") {
		c.TopN = topN
	}
	if flags.Changed("detectors") {
		c.Detectors = nil
		for _, d := range strings.Split(detectors, ",") {
			t, err := core.ParseSignalType(d)
			if err != nil {
				return err
			}
			if t != "" {
				c.Detectors = append(c.Detectors, t)
			}
		}
	}
	return c.Validate()
}

// parseDelimiter accepts a single character or "tab".
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid delimiter '%s', must be a single character or 'tab'", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
