package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echovine/speechscore/configs"
	"github.com/echovine/speechscore/internal/app"
)

var (
	scoreReference string
	scoreOutput    string
)

var scoreCmd = &cobra.Command{
	Use:   "score [audio file or URL]",
	Short: "Score one recording against a reference",
	Long: `Score a learner recording against a reference script and print the
JSON report. The recording may be a local file or an HTTP URL.

The reference is resolved by name in the data directory's references
folder, or given directly as a script file path.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVarP(&scoreReference, "reference", "r", "",
		"reference script name or file path (required)")
	scoreCmd.MarkFlagRequired("reference")

	scoreCmd.Flags().StringVarP(&scoreOutput, "output", "o", "",
		"write the JSON report to this file instead of stdout")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := application.ScoreFile(ctx, scoreReference, args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if scoreOutput != "" {
		return os.WriteFile(scoreOutput, data, 0o644)
	}
	fmt.Println(string(data))
	return nil
}
