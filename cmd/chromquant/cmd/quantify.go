package cmd

import (
	"fmt"

	"github.com/ChrisMcGann/ChromQuant/pkg/export"
	"github.com/ChrisMcGann/ChromQuant/pkg/quant"
	"github.com/ChrisMcGann/ChromQuant/pkg/writer/sqlite"
	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var quantifyCmd = &cobra.Command{
	Use:   "quantify",
	Short: "Quantify molecules over a measurement batch",
	Long: `Assign peaks and quantify every molecule of the method over the batch.
The strategy follows the method: an internal standard gives ratio based
concentrations, calibrated molecules use their standard curve, anything else
reports peak areas. Series are printed as CSV.

Examples:
  # Quantify a time course
  chromquant quantify --table peaks.csv --method assay.yaml

  # Report peak areas only, sorted by time, and export the result
  chromquant quantify --table peaks.csv --method assay.yaml --concentration=false --sort --out batch.db`,
	Args: cobra.NoArgs,
	RunE: runQuantify,
}

// seriesRow is one point of a quantified series in CSV output.
type seriesRow struct {
	Molecule    string  `csv:"molecule"`
	DataType    string  `csv:"data_type"`
	Unit        string  `csv:"unit"`
	Measurement string  `csv:"measurement"`
	X           float64 `csv:"x"`
	Value       float64 `csv:"value"`
}

func runQuantify(cmd *cobra.Command, args []string) error {
	b, err := loadBatch(cmd)
	if err != nil {
		return err
	}

	res, err := b.session.Quantify(quantOptions(cmd, b))
	if err != nil {
		return err
	}
	log.Info("quantification complete",
		zap.Stringer("strategy", res.Strategy),
		zap.Int("series", len(res.Series)),
		zap.Strings("unmeasured", res.Unmeasured),
		zap.Int("warnings", len(res.Warnings)))

	var rows []*seriesRow
	for _, s := range res.Series {
		for _, p := range s.Points {
			rows = append(rows, &seriesRow{
				Molecule:    s.MoleculeID,
				DataType:    string(s.DataType),
				Unit:        s.Unit.Name,
				Measurement: p.MeasurementID,
				X:           p.X,
				Value:       p.Value,
			})
		}
	}
	if err := gocsv.Marshal(rows, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write series: %w", err)
	}

	if outputFile == "" {
		return nil
	}
	return writeDocument(b, res)
}

// quantOptions starts from the method's options and applies the flags that
// were set. Without a method concentrations are calculated unless disabled.
func quantOptions(cmd *cobra.Command, b *batch) quant.Options {
	opts := b.method.QuantOptions()
	flags := cmd.Flags()
	if methodFile == "" || flags.Changed("concentration") {
		opts.CalculateConcentration = calcConc
	}
	if flags.Changed("extrapolate") {
		opts.Extrapolate = extrapolate
	}
	if flags.Changed("sort") {
		opts.SortByX = sortByX
	}
	return opts
}

func writeDocument(b *batch, res *quant.Result) error {
	doc, err := export.Build(b.session.ID, b.session.Name, b.session.Species(), res)
	if err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	writer.SetDescription(fmt.Sprintf("%s, %s", b.session.String(), res.Conditions))

	if err := writer.Write(doc); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write document %s: %w", doc.ID, err)
	}
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	log.Info("export complete", zap.String("output", outputFile))
	return nil
}
