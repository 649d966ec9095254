package cmd

import (
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"gopkg.in/guregu/null.v3"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign peaks to the method's molecules",
	Long: `Assign every peak within a molecule's retention window to that molecule and
print the annotated peak table as CSV. Ambiguous and missing matches are
logged as warnings; with --strict an ambiguous match is an error.

Examples:
  chromquant assign --table peaks.csv --method assay.yaml
  chromquant assign --table peaks.tsv --delimiter tab --method assay.yaml --strict`,
	Args: cobra.NoArgs,
	RunE: runAssign,
}

// peakRow is one peak of the annotated peak table.
type peakRow struct {
	Measurement   string      `csv:"measurement"`
	Detector      string      `csv:"detector"`
	Wavelength    null.Float  `csv:"wavelength"`
	RetentionTime float64     `csv:"retention_time"`
	Area          float64     `csv:"area"`
	Molecule      null.String `csv:"molecule"`
}

func runAssign(cmd *cobra.Command, args []string) error {
	b, err := loadBatch(cmd)
	if err != nil {
		return err
	}
	for _, r := range b.reports {
		log.Info(r.String())
	}

	var rows []*peakRow
	for _, meas := range b.session.Measurements() {
		for _, chrom := range meas.Chromatograms {
			for _, p := range chrom.Peaks {
				rows = append(rows, &peakRow{
					Measurement:   meas.ID,
					Detector:      string(chrom.Type),
					Wavelength:    null.FloatFromPtr(chrom.Wavelength),
					RetentionTime: p.RetentionTime,
					Area:          p.Area,
					Molecule:      null.NewString(p.MoleculeID, p.MoleculeID != ""),
				})
			}
		}
	}
	if err := gocsv.Marshal(rows, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write peak table: %w", err)
	}
	return nil
}
