package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWriter(t *testing.T) {
	defer Init(false, false)

	var buf bytes.Buffer
	InitWriter(&buf, false, false)
	L().Info().Msg("decoded")
	L().Debug().Msg("hidden at info level")

	out := buf.String()
	if !strings.Contains(out, `"message":"decoded"`) {
		t.Errorf("expected JSON info line, got: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line emitted at info level: %s", out)
	}
	if IsPrettyMode() {
		t.Error("pretty mode on after JSON init")
	}

	buf.Reset()
	InitWriter(&buf, true, true)
	L().Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug line missing in debug mode: %s", buf.String())
	}
	if strings.Contains(buf.String(), `"message"`) {
		t.Errorf("human mode wrote JSON: %s", buf.String())
	}
	if !IsPrettyMode() {
		t.Error("pretty mode off after human init")
	}
}

func TestWithPhase(t *testing.T) {
	defer Init(false, false)

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	log := WithPhase("decode")
	log.Info().Msg("test message")

	if !bytes.Contains(buf.Bytes(), []byte(`"phase":"decode"`)) {
		t.Errorf("expected phase field in output, got: %s", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	defer Init(false, false)

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).With().Str("custom", "field").Logger())

	L().Info().Msg("test")

	if !bytes.Contains(buf.Bytes(), []byte(`"custom":"field"`)) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}
}
