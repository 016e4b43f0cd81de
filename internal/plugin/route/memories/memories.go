package memories

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moltbook/memory-bridge/internal/memory"
	"github.com/moltbook/memory-bridge/internal/model"
	registryroute "github.com/moltbook/memory-bridge/internal/registry/route"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
	"github.com/moltbook/memory-bridge/internal/security"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 100,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after store init
		},
	})
}

// MountRoutes mounts memory routes on the given router. Called after store
// and cache initialization so the service facade is available.
func MountRoutes(r *gin.Engine, svc *memory.Service, auth gin.HandlerFunc) {
	g := r.Group("/v1", auth)

	g.POST("/memories", func(c *gin.Context) {
		storeMemory(c, svc)
	})
	g.GET("/memories/query", func(c *gin.Context) {
		queryMemories(c, svc)
	})
	g.GET("/memories/timeline", func(c *gin.Context) {
		timeline(c, svc)
	})
	g.DELETE("/memories/:memoryId", func(c *gin.Context) {
		deleteMemory(c, svc)
	})
}

func storeMemory(c *gin.Context, svc *memory.Service) {
	orgID := security.GetOrgID(c)

	var req memory.StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := svc.Store(c.Request.Context(), orgID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func queryMemories(c *gin.Context, svc *memory.Service) {
	orgID := security.GetOrgID(c)

	req := memory.QueryRequest{
		AgentID: c.Query("agentId"),
		Query:   c.Query("query"),
		Limit:   queryInt(c, "limit", 0),
		Days:    queryInt(c, "days", 0),
		Project: c.Query("project"),
	}
	if raw := c.Query("contentType"); raw != "" {
		ct, err := model.ParseContentType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
			return
		}
		req.ContentType = &ct
	}

	result, err := svc.Query(c.Request.Context(), orgID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func timeline(c *gin.Context, svc *memory.Service) {
	orgID := security.GetOrgID(c)

	req := memory.TimelineRequest{
		AgentID: c.Query("agentId"),
		Days:    queryInt(c, "days", 0),
		Project: c.Query("project"),
	}
	if raw := c.Query("contentType"); raw != "" {
		ct, err := model.ParseContentType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
			return
		}
		req.ContentType = &ct
	}

	days, err := svc.Timeline(c.Request.Context(), orgID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeline": days})
}

func deleteMemory(c *gin.Context, svc *memory.Service) {
	orgID := security.GetOrgID(c)

	id, err := uuid.Parse(c.Param("memoryId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": "memory not found"})
		return
	}

	if err := svc.Delete(c.Request.Context(), orgID, c.Query("agentId"), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	var i int
	if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
		return def
	}
	return i
}
