package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeedSampleFile(t *testing.T) {
	seed, err := readSeed(filepath.Join("..", "..", "testdata", "schedule-seed.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, seed.Departments)
	assert.NotEmpty(t, seed.Doctors)
	assert.NotEmpty(t, seed.Schedules)
}

func TestReadSeedRejectsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schedules":[{"date":"2025-01-01","doctor":"x","start_time":"late","end_time":"09:00"}]}`), 0o600))

	_, err := readSeed(path)
	assert.Error(t, err)

	_, err = readSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
