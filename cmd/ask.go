package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/app"
)

var askImage string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().StringVar(&askImage, "image", "", "image URL or base64 data to attach")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, message string) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Router.Process(ctx, message, nil, askImage)
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	fmt.Println(result.Content)
	if result.Exhausted {
		fmt.Println("(stopped after the tool-call round budget)")
	}
	return nil
}
