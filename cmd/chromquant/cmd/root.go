// Package cmd provides CLI command implementations
package cmd

import (
	"github.com/ChrisMcGann/ChromQuant/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Batch flags shared by every command
	tableFile     string
	methodFile    string
	mode          string
	delimiter     string
	rtMin         float64
	rtMax         float64
	minArea       float64
	cutoffPercent float64
	topN          int
	detectors     string
	dilution      float64
	strict        bool
	logLevel      string
	logFormat     string

	// Quantification flags
	calcConc    bool
	extrapolate bool
	sortByX     bool
	outputFile  string

	// Calibration flags
	moleculeID string
	wavelength float64

	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "chromquant",
	Short: "ChromQuant - Chromatography peak assignment and quantification",
	Long: `ChromQuant assigns chromatographic peaks to molecules by retention time and
turns a batch of measurements into concentration or peak area series.

Input is a CSV peak table with one row per peak, plus an optional YAML method
defining molecules, proteins, standards and quantification options. Supports:
- External calibration from standard curves
- Internal standard ratio quantification
- Peak filtering (retention window, area cutoff, top-N)
- Export to a SQLite exchange database`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.NewLogger(logLevel, logFormat)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(quantifyCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&tableFile, "table", "t", "", "Input peak table (required)")
	pf.StringVarP(&methodFile, "method", "m", "", "YAML method file")
	pf.StringVar(&mode, "mode", "", "Measurement mode: timecourse or calibration (default from method, else timecourse)")
	pf.StringVar(&delimiter, "delimiter", ",", "Field delimiter of the peak table, 'tab' for tab-separated")
	pf.Float64Var(&rtMin, "rt-min", 0, "Drop peaks eluting before this retention time")
	pf.Float64Var(&rtMax, "rt-max", 0, "Drop peaks eluting after this retention time")
	pf.Float64Var(&minArea, "min-area", 0, "Drop peaks below this area")
	pf.Float64Var(&cutoffPercent, "cutoff", 0, "Area cutoff as % of the largest peak (0 = no cutoff)")
	pf.IntVar(&topN, "top-n", 0, "Keep only top N largest peaks per chromatogram (0 = no limit)")
	pf.StringVar(&detectors, "detectors", "", "Comma-separated detectors to keep (e.g., 'uv,fld')")
	pf.Float64Var(&dilution, "dilution", 0, "Dilution factor applied to every measurement")
	pf.BoolVar(&strict, "strict", false, "Fail on ambiguous peak matches instead of assigning the closest peak")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	rootCmd.MarkPersistentFlagRequired("table")

	for _, c := range []*cobra.Command{quantifyCmd, summarizeCmd} {
		c.Flags().BoolVar(&calcConc, "concentration", true, "Calculate concentrations (false reports peak areas)")
		c.Flags().BoolVar(&extrapolate, "extrapolate", false, "Extrapolate signals above the calibration range instead of reporting 0")
		c.Flags().BoolVar(&sortByX, "sort", false, "Sort the batch by data value")
	}
	quantifyCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output SQLite database")

	calibrateCmd.Flags().StringVar(&moleculeID, "molecule", "", "Fit only this molecule (default all molecules with a retention time)")
	calibrateCmd.Flags().Float64Var(&wavelength, "wavelength", 0, "Detector wavelength of the standard signals (0 = molecule wavelength)")
	calibrateCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output SQLite database")
}
