package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalens/capitalens/internal/cli"
)

func TestNewDashboardCmd(t *testing.T) {
	cmd := cli.NewDashboardCmd()

	assert.Equal(t, "dashboard", cmd.Use)
	assert.Contains(t, cmd.Short, "dashboard")
	assert.NotNil(t, cmd.RunE)
}
