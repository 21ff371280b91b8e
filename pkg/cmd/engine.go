package cmd

import (
	"log/slog"

	"github.com/dukex/autoflow/pkg/catalog"
	"github.com/dukex/autoflow/pkg/engine"
	"go.opentelemetry.io/otel/trace"
)

// NewEngine creates an engine over the built-in catalog with in-memory rows and an outbox mailer.
func NewEngine(logger *slog.Logger, tracer trace.Tracer) (*engine.Engine, *catalog.Catalog) {
	cat := catalog.Builtin()

	return engine.New(cat, logger, engine.WithTracer(tracer)), cat
}
