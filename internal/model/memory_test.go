package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	for _, valid := range []string{"conversation", "action", "insight", "error"} {
		ct, err := ParseContentType(valid)
		require.NoError(t, err)
		require.Equal(t, ContentType(valid), ct)
	}

	_, err := ParseContentType("daydream")
	require.Error(t, err)

	_, err = ParseContentType("")
	require.Error(t, err)
}
