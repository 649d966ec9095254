package cmd

import (
	"fmt"

	"github.com/ChrisMcGann/ChromQuant/pkg/conditions"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a peak table and method",
	Long: `Validate that a peak table is well formed, that every measurement was recorded
under the same conditions, and that the method's molecules match peaks.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	b, err := loadBatch(cmd)
	if err != nil {
		return err
	}

	measurements := b.session.Measurements()
	cond, err := conditions.Validate(measurements)
	if err != nil {
		return err
	}

	peaks := 0
	for _, meas := range measurements {
		peaks += meas.PeakCount()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session: %s\n", b.session.Name)
	fmt.Fprintf(out, "Mode: %s\n", b.session.Mode)
	fmt.Fprintf(out, "Measurements: %d\n", len(measurements))
	fmt.Fprintf(out, "Peaks: %d\n", peaks)
	fmt.Fprintf(out, "Conditions: %s\n", cond)
	fmt.Fprintf(out, "Molecules: %d\n", len(b.session.Molecules()))
	fmt.Fprintf(out, "Proteins: %d\n", len(b.session.Proteins()))
	for _, r := range b.reports {
		fmt.Fprintf(out, "  %s\n", r)
	}
	return nil
}
