package cache

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryKey(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("what did we decide?"))
	require.Equal(t, "query:acme:agent-1:"+encoded, QueryKey("acme", "agent-1", "what did we decide?"))
}

func TestQueryKey_DistinctQueriesDistinctKeys(t *testing.T) {
	require.NotEqual(t,
		QueryKey("acme", "agent-1", "roadmap"),
		QueryKey("acme", "agent-1", "roadmap "))
}

func TestAgentPattern(t *testing.T) {
	require.Equal(t, "query:acme:agent-1:*", AgentPattern("acme", "agent-1"))
}
