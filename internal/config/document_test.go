package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/config"
)

func TestDecodeJobDocument_DisabledShortCircuits(t *testing.T) {
	raw := []byte("disabled: true\nrefresh:\n  every: 5m\n")
	_, err := config.DecodeJobDocument(raw, newFakeExternalData())
	assert.ErrorIs(t, err, config.ErrDisabled)
}

func TestDecodeJobDocument_RejectsUnknownFields(t *testing.T) {
	raw := []byte("refresh:\n  every: 5m\nnot_a_real_field: true\n")
	_, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.Error(t, err)
}

func TestDecodeJobDocument_MergesNamedTemplate(t *testing.T) {
	ext := newFakeExternalData()
	ext.templates["base"] = []byte("tag: shared-tag\nrefresh:\n  every: 1h\n")

	raw := []byte("templates: [base]\nrefresh:\n  every: 5m\nsource:\n  http:\n    url: \"https://example.invalid\"\n")
	doc, err := config.DecodeJobDocument(raw, ext)
	require.NoError(t, err)

	assert.Equal(t, "shared-tag", doc.Tag)
	require.NotNil(t, doc.Refresh)
	assert.Equal(t, "5m", doc.Refresh.Every, "raw document's own refresh overrides the template's")
}

func TestDecodeJobDocument_TemplateLoadFailure_IsError(t *testing.T) {
	raw := []byte("templates: [missing]\nrefresh:\n  every: 5m\n")
	_, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.Error(t, err)
}
