package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slon/upgrademutex"
	"github.com/slon/upgrademutex/loadgen"
)

func newRunCmd() *cobra.Command {
	var (
		workers    int
		iterations int
		thinkTime  time.Duration
		sharedW    int
		upgradeW   int
		exclusiveW int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a synthetic shared/upgrade/exclusive workload against an in-process mutex",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			mu := upgrademutex.New()
			cfg := loadgen.Config{
				Mutex:      mu,
				Workers:    workers,
				Iterations: iterations,
				ThinkTime:  thinkTime,
				Mix: loadgen.Mix{
					upgrademutex.ModeShared:    sharedW,
					upgrademutex.ModeUpgrade:   upgradeW,
					upgrademutex.ModeExclusive: exclusiveW,
				},
			}

			logger.Info("starting load",
				zap.Int("workers", workers),
				zap.Int("iterations", iterations),
				zap.Duration("think_time", thinkTime),
			)

			stats, err := loadgen.Run(context.Background(), cfg)
			if err != nil {
				return fmt.Errorf("run load: %w", err)
			}

			for _, mode := range []upgrademutex.Mode{upgrademutex.ModeShared, upgrademutex.ModeUpgrade, upgrademutex.ModeExclusive} {
				fmt.Printf("%-10s %d\n", mode, stats.Acquired[mode])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent workers")
	cmd.Flags().IntVar(&iterations, "iterations", 100, "acquire/release cycles per worker")
	cmd.Flags().DurationVar(&thinkTime, "think-time", 0, "how long each worker holds the lock before releasing it")
	cmd.Flags().IntVar(&sharedW, "shared-weight", 1, "relative weight of shared acquisitions")
	cmd.Flags().IntVar(&upgradeW, "upgrade-weight", 1, "relative weight of upgrade acquisitions")
	cmd.Flags().IntVar(&exclusiveW, "exclusive-weight", 1, "relative weight of exclusive acquisitions")
	return cmd
}
