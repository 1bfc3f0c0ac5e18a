package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/kwharvest/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kwharvest",
		Short:         "Harvest autocomplete keyword suggestions from search providers",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newHarvestCmd())
	return root
}
