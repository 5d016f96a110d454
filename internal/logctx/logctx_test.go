package logctx

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eunmann/splat4d/pkg/logging"
)

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(zerolog.New(&buf).With().Str("global", "yes").Logger())
	defer logging.Init(false, false)

	//nolint:staticcheck // nil context is part of the contract
	for _, ctx := range []context.Context{nil, context.Background()} {
		buf.Reset()
		logger := FromContext(ctx)
		logger.Info().Msg("test")
		if !strings.Contains(buf.String(), `"global":"yes"`) {
			t.Errorf("expected global logger output, got: %s", buf.String())
		}
	}
}

func TestWithLogger_AndFromContext(t *testing.T) {
	var buf bytes.Buffer
	customLogger := zerolog.New(&buf).With().Str("custom", "field").Logger()

	ctx := WithLogger(context.Background(), customLogger)
	logger := FromContext(ctx)
	logger.Info().Msg("test")

	if !strings.Contains(buf.String(), `"custom":"field"`) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}
}

func TestWithLogger_NilContext(t *testing.T) {
	var buf bytes.Buffer

	//nolint:staticcheck // nil context is part of the contract
	ctx := WithLogger(nil, zerolog.New(&buf))
	if ctx == nil {
		t.Fatal("WithLogger(nil) returned nil context")
	}
	logger := FromContext(ctx)
	logger.Info().Msg("test")
	if buf.Len() == 0 {
		t.Error("expected logger to produce output")
	}
}

func TestDomainFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	ctx = WithSource(ctx, "s3://bucket/scene.4spl")
	ctx = WithPlane(ctx, 7, 2)
	ctx = WithField(ctx, "palette_size", 16)
	logger := FromContext(ctx)
	logger.Info().Msg("plane written")

	output := buf.String()
	for _, want := range []string{
		`"source":"s3://bucket/scene.4spl"`,
		`"frame":7`,
		`"depth":2`,
		`"palette_size":16`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %s in: %s", want, output)
		}
	}
}

func TestChildDoesNotLeakToParent(t *testing.T) {
	var buf bytes.Buffer
	parent := WithLogger(context.Background(), zerolog.New(&buf))
	_ = WithPlane(parent, 1, 1)

	logger := FromContext(parent)
	logger.Info().Msg("parent")
	if strings.Contains(buf.String(), `"frame"`) {
		t.Errorf("child field leaked into parent: %s", buf.String())
	}
}
