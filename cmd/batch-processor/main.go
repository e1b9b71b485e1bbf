package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfdigest/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "batch-processor",
		Short:         "Summarize batches of PDF documents",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(runCMD(), countsCMD())

	if err := root.Execute(); err != nil {
		logger.New("batch-processor").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
