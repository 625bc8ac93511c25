package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/middleware"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/respond"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

const devQueryMaxBody = 1 << 20

// registerDevQuery mounts the raw query endpoint. Only mounted when DEV_QUERY is set.
func registerDevQuery(rg *gin.RouterGroup, db *models.Client) {
	rg.POST("/query/:model/:operation", func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, devQueryMaxBody))
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_body", "could not read request body", nil)
			return
		}
		model, op := c.Param("model"), c.Param("operation")
		telemetry.Debug("dev.query", map[string]any{
			"model":      model,
			"operation":  op,
			"user_id":    middleware.UserIDFromContext(c),
			"request_id": middleware.RequestIDFromContext(c),
		})
		result, err := store.Execute(c.Request.Context(), db.Core(), model, op, body)
		if err != nil {
			respond.StoreError(c, err)
			return
		}
		respond.OK(c, gin.H{"data": result})
	})
}
