package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Fepozopo/milk/pkg/milk"
)

// ConfigureLogging routes pipeline logs to w at the named level (as in
// MILK_LOG). An empty level or "off" keeps the pipeline silent.
func ConfigureLogging(w io.Writer, level string) error {
	level = strings.TrimSpace(level)
	if level == "" || strings.EqualFold(level, "off") {
		milk.SetLogger(nil)
		return nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		milk.SetLogger(nil)
		return fmt.Errorf("invalid MILK_LOG level %q: %w", level, err)
	}
	milk.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}
