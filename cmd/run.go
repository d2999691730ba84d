package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runAddress string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Research ownership for a single property address",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runAddress == "" {
			return eris.New("--address is required")
		}

		ctx := cmd.Context()
		runner, st, err := initRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := runner.Research(ctx, runAddress)
		if err != nil {
			return eris.Wrap(err, "research run")
		}

		zap.L().Info("research complete",
			zap.String("run_id", run.ID),
			zap.String("owner", run.Record.OwnerName),
			zap.String("confidence", string(run.Record.OwnerConfidence)),
			zap.String("contact_number", run.Record.ContactNumber),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runCmd.Flags().StringVar(&runAddress, "address", "", "property address to research")
	rootCmd.AddCommand(runCmd)
}
