//go:build noview

package main

import (
	"context"
	"errors"
)

func runView(_ context.Context, _ []string) error {
	return errors.New("view is not available in this build (built with -tags noview)")
}
