package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	up, err := Schema("up")
	require.NoError(t, err)
	for _, table := range []string{"co2_monthly", "co2_decomposition", "co2_annual", "co2_decades"} {
		assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS "+table)
	}

	down, err := Schema("down")
	require.NoError(t, err)
	assert.Contains(t, down, "DROP TABLE IF EXISTS co2_monthly")

	_, err = Schema("sideways")
	assert.Error(t, err)
}
