package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	pair, err := GeneratePair("alice")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.AccountID)

	_, err = ParseAccess("not-a-token")
	assert.Error(t, err)

	// refresh token不能当access用
	_, err = ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	pair, err := GeneratePair("alice")
	require.NoError(t, err)

	next, err := Refresh(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := ParseAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.AccountID)
}
