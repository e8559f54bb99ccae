package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketCmd(t *testing.T) {
	backend := newTestBackend(t)

	out, err := executeCommand(t, "market", "--api-url", backend.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "Indices")
	assert.Contains(t, out, "日経平均")
	assert.Contains(t, out, "50123.45")
	assert.Contains(t, out, "ドル円")
	assert.Contains(t, out, "updated 2026-04-01T09:00:00Z")
}

func TestMarketCmd_ServerUnreachable(t *testing.T) {
	// Port 1 refuses connections, so the fetch fails fast.
	_, err := executeCommand(t, "market", "--api-url", "http://127.0.0.1:1", "--skip-version-check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching market overview")
}
