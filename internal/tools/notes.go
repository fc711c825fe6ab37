package tools

import (
	"context"
	"fmt"
	"strings"
)

// CreateAppleNote returns the create_apple_note tool, which creates a
// note in Apple Notes via AppleScript. Available on macOS only; on
// other platforms the handler reports that to the model.
func CreateAppleNote() Tool {
	return Tool{
		Name:        "create_apple_note",
		Description: "Create a note in Apple Notes with a title and body.",
		Parameters:  schemaFor(&CreateAppleNoteInput{}),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			var input CreateAppleNoteInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			if input.Title == "" {
				return nil, fmt.Errorf("title is required")
			}
			if err := createNote(ctx, input.Title, input.Body); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Note %q created", input.Title), nil
		},
	}
}

// escapeAppleScript makes a string safe inside AppleScript double quotes.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
