package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_Every_AddsDuration(t *testing.T) {
	r := Refresh{Every: 10 * time.Minute}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	next, err := r.NextWake(now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), next)
}

func TestRefresh_At_ResolvesNextOccurrence(t *testing.T) {
	r := Refresh{At: "09:30"}
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	next, err := r.NextWake(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC), next)
}

func TestRefresh_At_WrapsToNextDay(t *testing.T) {
	r := Refresh{At: "09:30"}
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	next, err := r.NextWake(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC), next)
}

func TestRefresh_Neither_Errors(t *testing.T) {
	_, err := Refresh{}.NextWake(time.Now())
	assert.Error(t, err)
}
