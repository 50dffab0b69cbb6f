package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsTrimsAndDropsEmpties(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  openai  "},
		StringField{Key: "dropped", Value: "   "},
		StringField{Key: "   ", Value: "dropped too"},
	)

	require.Len(t, fields, 1)
	assert.Equal(t, "provider", fields[0].Key)
	assert.Equal(t, "openai", fields[0].String)

	assert.Empty(t, StringFields())
}

func TestWithFieldsAttachesAndToleratesNil(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("task", "analyze")).Info("provider call")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "analyze", entries[0].ContextMap()["task"])

	fallback := WithFields(nil, zap.String("task", "match"))
	require.NotNil(t, fallback)
	fallback.Info("must not panic")
}

func TestWithCommonFieldsTagsProviderAndModel(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "openai", "gpt-4o-mini").Info("provider call")

	entries := observed.All()
	require.Len(t, entries, 1)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "openai", ctx[FieldProvider])
	assert.Equal(t, "gpt-4o-mini", ctx[FieldModel])
}

func TestCommonFieldsSkipsEmptyValues(t *testing.T) {
	fields := CommonFields("gemini", "")
	require.Len(t, fields, 1)
	assert.Equal(t, FieldProvider, fields[0].Key)

	assert.Empty(t, CommonFields("", ""))
}
