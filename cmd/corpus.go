package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/app"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the document index",
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCorpusList(cmd.Context())
	},
}

var corpusRemoveCmd = &cobra.Command{
	Use:   "remove [document-id]",
	Short: "Remove a document's chunks from the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCorpusRemove(cmd.Context(), args[0])
	},
}

func init() {
	corpusCmd.AddCommand(corpusListCmd, corpusRemoveCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusList(ctx context.Context) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.Indexer.Documents(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("no documents indexed")
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%s\t%d chunks\n", d.DocumentID, d.ChunkCount)
	}
	return nil
}

func runCorpusRemove(ctx context.Context, documentID string) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.Indexer.RemoveDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("document %s not found", documentID)
	}
	fmt.Printf("removed %d chunks of %s\n", removed, documentID)
	return nil
}
