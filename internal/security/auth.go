package security

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moltbook/memory-bridge/internal/config"
)

const (
	// ContextKeyOrgID is the gin context key for the authenticated org ID.
	ContextKeyOrgID = "orgID"
)

// KeyResolver resolves API keys to org IDs. It is initialized once at
// startup and shared by all route plugins.
type KeyResolver struct {
	apiKeys     map[string]string // key value → orgId
	testingMode bool
}

// NewKeyResolver creates a KeyResolver from the application config.
func NewKeyResolver(cfg *config.Config) *KeyResolver {
	return &KeyResolver{
		apiKeys:     cfg.APIKeys,
		testingMode: cfg.Mode == config.ModeTesting,
	}
}

var errInvalidAPIKey = errors.New("invalid API key")

// Resolve resolves an API key (and optional X-Org-ID header) into an org ID.
// The org header is only honored in testing mode.
func (r *KeyResolver) Resolve(apiKey, orgHeader string) (string, error) {
	if key := strings.TrimSpace(apiKey); key != "" {
		if orgID, ok := r.apiKeys[key]; ok {
			return orgID, nil
		}
		log.Warn("Received invalid API key")
		return "", errInvalidAPIKey
	}
	if r.testingMode {
		if hdr := strings.TrimSpace(orgHeader); hdr != "" {
			return hdr, nil
		}
	}
	return "", errInvalidAPIKey
}

// GetOrgID returns the authenticated org ID from the gin context.
func GetOrgID(c *gin.Context) string {
	return c.GetString(ContextKeyOrgID)
}

// AuthMiddleware returns a gin middleware that resolves the caller's org
// from the X-API-Key header (or a Bearer token carrying the key).
func AuthMiddleware(resolver *KeyResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			if auth := c.GetHeader("Authorization"); auth != "" {
				token := strings.TrimPrefix(auth, "Bearer ")
				if token != auth {
					apiKey = token
				}
			}
		}

		orgID, err := resolver.Resolve(apiKey, c.GetHeader("X-Org-ID"))
		if err != nil {
			log.Info("Auth rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ContextKeyOrgID, orgID)
		c.Next()
	}
}
