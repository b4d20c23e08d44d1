package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentStorage, Output: &buf})
	l.Info("row written", FieldEntity, "account")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, ComponentStorage, rec[FieldComponent])
	assert.Equal(t, "account", rec[FieldEntity])
	assert.Equal(t, ComponentStorage, l.Component())
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard().WithComponent(ComponentHTTP)
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().WithOperation(OpDelete).WithEntity("alert", "a1").WithUser("u1").WithError(errors.New("boom"))
	assert.Equal(t, OpDelete, f[FieldOperation])
	assert.Equal(t, "a1", f[FieldEntityID])
	assert.Equal(t, "u1", f[FieldUserID])
	assert.Equal(t, "boom", f[FieldError])
	assert.Len(t, f.ToSlice(), 10)
}
