package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/app"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Index documents into the knowledge store",
	Long: `Index one or more files or directories. Supported formats are
PDF, DOCX, plain text, and Markdown. Re-ingesting a file replaces its
previously indexed chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context, paths []string) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if info.IsDir() {
			results, err := a.Indexer.IngestDir(ctx, path)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%s: %d chunks\n", r.DocumentID, r.Chunks)
			}
			continue
		}

		r, err := a.Indexer.IngestFile(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d chunks", r.DocumentID, r.Chunks)
		if r.Replaced > 0 {
			fmt.Printf(" (replaced %d)", r.Replaced)
		}
		fmt.Println()
	}
	return nil
}
