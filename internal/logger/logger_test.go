package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromCtx_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	ctx := WithRequestID(context.Background(), "req-42")
	FromCtx(ctx).Info("hello")
	FromCtx(context.Background()).Info("anonymous")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestRequestIDFrom_Empty(t *testing.T) {
	assert.Equal(t, "", RequestIDFrom(context.Background()))
}

func TestInit_Production(t *testing.T) {
	Init("production")
	assert.NotNil(t, L())
	Set(zap.NewNop())
}
