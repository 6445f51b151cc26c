package commands

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations_InvalidConnectionString(t *testing.T) {
	err := RunMigrations(slog.Default(), "postgres", "not-a-valid-dsn")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to create migrate instance")
}
