package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	dev, err := cmd.Flags().GetBool("dev")
	if err != nil {
		return nil, err
	}
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
