package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arc-self/fetchd/internal/config"
)

func TestParseFormat_DefaultsToYAML(t *testing.T) {
	f, err := config.ParseFormat("")
	assert.NoError(t, err)
	assert.Equal(t, config.FormatYAML, f)
}

func TestParseFormat_RejectsUnknown(t *testing.T) {
	_, err := config.ParseFormat("toml")
	assert.Error(t, err)
}
