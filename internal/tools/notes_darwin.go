package tools

import (
	"context"
	"fmt"
	"os/exec"
)

func createNote(ctx context.Context, title, body string) error {
	script := fmt.Sprintf(
		`tell application "Notes" to make new note at folder "Notes" with properties {name:"%s", body:"%s"}`,
		escapeAppleScript(title), escapeAppleScript(body))

	out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript: %w: %s", err, out)
	}
	return nil
}
