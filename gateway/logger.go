package gateway

import (
	"log/slog"
	"os"
)

const logComponent = "gateway"

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("component", logComponent)

// SetLogger replaces the package logger. Records keep the component attribute.
// A nil logger is ignored.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	logger = l.With("component", logComponent)
}
