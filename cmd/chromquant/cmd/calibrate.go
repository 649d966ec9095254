package cmd

import (
	"fmt"

	"github.com/ChrisMcGann/ChromQuant/pkg/conditions"
	"github.com/ChrisMcGann/ChromQuant/pkg/core"
	"github.com/ChrisMcGann/ChromQuant/pkg/quant"
	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Fit standard curves from a calibration batch",
	Long: `Fit a linear standard curve for each molecule from a calibration batch, where
each measurement's value is the known concentration and the area of the
molecule's assigned peak is the signal. Fitted curves are printed as CSV and
can be exported with --out.

Examples:
  chromquant calibrate --table standards.csv --method assay.yaml --mode calibration
  chromquant calibrate --table standards.csv --method assay.yaml --molecule caffeine --wavelength 254`,
	Args: cobra.NoArgs,
	RunE: runCalibrate,
}

// curveRow is one fitted standard curve.
type curveRow struct {
	Molecule  string  `csv:"molecule"`
	Points    int     `csv:"points"`
	Slope     float64 `csv:"slope"`
	Intercept float64 `csv:"intercept"`
	R         float64 `csv:"r"`
	Unit      string  `csv:"unit"`
	MinSignal float64 `csv:"min_signal"`
	MaxSignal float64 `csv:"max_signal"`
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	b, err := loadBatch(cmd)
	if err != nil {
		return err
	}
	if b.session.Mode != core.Calibration {
		return fmt.Errorf("calibrate requires calibration mode, batch is %s", b.session.Mode)
	}

	var targets []*core.Molecule
	if moleculeID != "" {
		mol, err := b.session.Molecule(moleculeID)
		if err != nil {
			return err
		}
		targets = append(targets, mol)
	} else {
		for _, mol := range b.session.Molecules() {
			if mol.HasRetentionTime() && !mol.InternalStandard {
				targets = append(targets, mol)
			}
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("no molecules to calibrate")
	}

	var wl *float64
	if wavelength > 0 {
		wl = core.Float(wavelength)
	}

	var rows []*curveRow
	for _, mol := range targets {
		model, err := b.session.AddStandard(mol.ID, wl)
		if err != nil {
			return fmt.Errorf("failed to calibrate %s: %w", mol.ID, err)
		}
		rows = append(rows, &curveRow{
			Molecule:  mol.ID,
			Points:    len(model.Concentrations),
			Slope:     model.Slope,
			Intercept: model.Intercept,
			R:         model.R,
			Unit:      model.ConcUnit.Name,
			MinSignal: model.MinSignal(),
			MaxSignal: model.MaxSignal(),
		})
	}
	log.Info("calibration complete", zap.Int("curves", len(rows)))

	if err := gocsv.Marshal(rows, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write curves: %w", err)
	}

	if outputFile == "" {
		return nil
	}
	cond, err := conditions.Validate(b.session.Measurements())
	if err != nil {
		return err
	}
	return writeDocument(b, &quant.Result{Strategy: quant.StrategyNone, Conditions: cond})
}
