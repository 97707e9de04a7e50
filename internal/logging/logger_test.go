package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsBothModes(t *testing.T) {
	t.Parallel()

	dev, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, dev)
	defer dev.Sync() //nolint:errcheck // best-effort flush
	dev.Info("development logger ready")

	prod, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, prod)
	defer prod.Sync() //nolint:errcheck // best-effort flush
	prod.Info("production logger ready")
}
