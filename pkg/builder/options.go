package builder

import (
	"log/slog"

	"github.com/dukex/autoflow/pkg/catalog"
	"github.com/dukex/autoflow/pkg/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// IDGenerator returns a globally unique identity on every call.
type IDGenerator func() string

type options struct {
	name    string
	newID   IDGenerator
	catalog *catalog.Catalog
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a builder.
type Option func(*options)

// WithName sets the automation display name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithIDGenerator replaces the identity generator used for triggers and steps.
func WithIDGenerator(newID IDGenerator) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithCatalog replaces the catalog the schema fragments are read from.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(o *options) {
		if cat != nil {
			o.catalog = cat
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		newID:   uuid.NewString,
		catalog: catalog.Builtin(),
		logger:  log.WithModule("builder"),
		tracer:  otel.Tracer("github.com/dukex/autoflow/pkg/builder"),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
