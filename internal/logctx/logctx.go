// Package logctx carries a zerolog logger through context.Context so that
// loaders and exporters log with the fields of the video and plane they work on.
//
//	ctx = logctx.WithSource(ctx, "s3://bucket/scene.4spl")
//	ctx = logctx.WithPlane(ctx, frame, depth)
//	logctx.FromContext(ctx).Debug().Msg("plane written")
package logctx

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eunmann/splat4d/pkg/logging"
)

type loggerKey struct{}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the context logger, or the global logger from
// pkg/logging when ctx is nil or carries none.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
			return logger
		}
	}
	return *logging.L()
}

// WithStr adds a string field to the context logger.
func WithStr(ctx context.Context, key, value string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Str(key, value).Logger())
}

// WithField adds an arbitrary field to the context logger.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Interface(key, value).Logger())
}

// WithSource tags the logger with the video being processed.
func WithSource(ctx context.Context, uri string) context.Context {
	return WithStr(ctx, "source", uri)
}

// WithPlane tags the logger with a (frame, depth) plane.
func WithPlane(ctx context.Context, frame, depth uint32) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().
		Uint32("frame", frame).
		Uint32("depth", depth).
		Logger())
}
