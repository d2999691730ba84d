package main

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Research a file of property addresses",
	Long:  "Reads one address per line (blank lines and # comments skipped) and researches them concurrently.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchFile == "" {
			return eris.New("--file is required")
		}

		addresses, err := readAddressFile(batchFile)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(addresses) > batchLimit {
			addresses = addresses[:batchLimit]
		}
		if len(addresses) == 0 {
			return eris.Errorf("no addresses in %s", batchFile)
		}

		runner, st, err := initRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		concurrency := cfg.Batch.MaxConcurrentAddresses
		if concurrency <= 0 {
			concurrency = 1
		}

		zap.L().Info("batch starting",
			zap.Int("addresses", len(addresses)),
			zap.Int("concurrency", concurrency),
		)

		var completed, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, address := range addresses {
			address := address
			g.Go(func() error {
				run, err := runner.Research(gctx, address)
				if err != nil {
					// One bad address never aborts the batch.
					failed.Add(1)
					zap.L().Error("batch address failed",
						zap.String("address", address),
						zap.Error(err),
					)
					return nil
				}
				completed.Add(1)
				zap.L().Info("batch address done",
					zap.String("address", address),
					zap.String("run_id", run.ID),
					zap.String("owner", run.Record.OwnerName),
				)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch")
		}

		zap.L().Info("batch finished",
			zap.Int64("completed", completed.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func readAddressFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open address file %s", path)
	}
	defer f.Close()

	var addresses []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addresses = append(addresses, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "read address file %s", path)
	}
	return addresses, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one address per line")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max addresses to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}
