package sqlite

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/techtrends/internal/adapter/observability"
)

// operation tracks one repository call for tracing and metrics.
type operation struct {
	name  string
	span  trace.Span
	start time.Time
}

func startOperation(ctx context.Context, name, sqlOp string) (context.Context, *operation) {
	ctx, span := otel.Tracer("repo.posts").Start(ctx, "posts."+name)
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", sqlOp),
		attribute.String("db.sql.table", PostsTable),
	)
	return ctx, &operation{name: name, span: span, start: time.Now()}
}

func (o *operation) end(err error) {
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
	observability.ObserveDBOperation(o.name, o.start, err)
}
