package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfdigest/internal/dataset"
	"github.com/Lllllllleong/pdfdigest/internal/logger"
	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/services"
)

func runCMD() *cobra.Command {
	var (
		datasetPath string
		dir         string
		workers     int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every document of a dataset file or directory, then print status counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := collectRefs(datasetPath, dir, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			slog.SetDefault(logger.New("batch-processor"))

			proc, err := services.NewProcessorFromEnv(ctx, nil, services.WithWorkers(workers))
			if err != nil {
				return fmt.Errorf("failed to initialize processor: %w", err)
			}
			defer proc.Close()

			report := proc.ProcessBatch(ctx, refs)
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d documents, %d processed, %d skipped, %d failed\n",
				report.BatchID, report.Total, report.Processed, report.Skipped, report.Failed)
			return printCounts(ctx, cmd.OutOrStdout(), proc)
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "JSON file mapping names to PDF URLs")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of PDF files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent workers (default WORKER_COUNT or 5)")
	return cmd
}

func countsCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Print the number of documents in each status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slog.SetDefault(logger.New("batch-processor"))
			proc, err := services.NewProcessorFromEnv(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("failed to initialize processor: %w", err)
			}
			defer proc.Close()
			return printCounts(cmd.Context(), cmd.OutOrStdout(), proc)
		},
	}
}

// collectRefs merges the dataset file, directory and positional URLs into one list.
func collectRefs(datasetPath, dir string, urls []string) ([]models.Reference, error) {
	var refs []models.Reference
	if datasetPath != "" {
		loaded, err := dataset.Load(datasetPath)
		if err != nil {
			return nil, err
		}
		refs = append(refs, loaded...)
	}
	if dir != "" {
		scanned, err := dataset.ScanDir(dir)
		if err != nil {
			return nil, err
		}
		refs = append(refs, scanned...)
	}
	for _, u := range urls {
		refs = append(refs, models.Reference{Name: u, Origin: models.OriginRemote})
	}
	if len(refs) == 0 {
		return nil, errors.New("nothing to process: pass --dataset, --dir or document URLs")
	}
	return refs, nil
}

type statusCounter interface {
	Counts(ctx context.Context) (map[models.Status]int, error)
}

func printCounts(ctx context.Context, w io.Writer, proc statusCounter) error {
	counts, err := proc.Counts(ctx)
	if err != nil {
		return err
	}
	for _, st := range models.Statuses {
		fmt.Fprintf(w, "%-10s %d\n", st, counts[st])
	}
	return nil
}
