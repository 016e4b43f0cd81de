package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moltbook/memory-bridge/internal/config"
)

func newResolver(mode string) *KeyResolver {
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.APIKeys = map[string]string{"secret-key": "acme"}
	return NewKeyResolver(&cfg)
}

func TestResolve_ValidKey(t *testing.T) {
	orgID, err := newResolver(config.ModeProd).Resolve("secret-key", "")
	require.NoError(t, err)
	require.Equal(t, "acme", orgID)
}

func TestResolve_InvalidKey(t *testing.T) {
	_, err := newResolver(config.ModeProd).Resolve("wrong-key", "")
	require.Error(t, err)
}

func TestResolve_MissingKey(t *testing.T) {
	_, err := newResolver(config.ModeProd).Resolve("", "")
	require.Error(t, err)
}

func TestResolve_OrgHeaderIgnoredInProd(t *testing.T) {
	_, err := newResolver(config.ModeProd).Resolve("", "acme")
	require.Error(t, err)
}

func TestResolve_OrgHeaderHonoredInTesting(t *testing.T) {
	orgID, err := newResolver(config.ModeTesting).Resolve("", "globex")
	require.NoError(t, err)
	require.Equal(t, "globex", orgID)
}

func TestResolve_KeyWinsOverOrgHeader(t *testing.T) {
	orgID, err := newResolver(config.ModeTesting).Resolve("secret-key", "globex")
	require.NoError(t, err)
	require.Equal(t, "acme", orgID)
}
