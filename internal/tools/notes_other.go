//go:build !darwin

package tools

import (
	"context"
	"fmt"
)

func createNote(_ context.Context, _, _ string) error {
	return fmt.Errorf("Apple Notes is only available on macOS")
}
