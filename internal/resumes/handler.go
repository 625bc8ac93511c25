package resumes

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/middleware"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/respond"
)

const maxImportSize = 1 << 20 // 1MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the shared view to rg and the owner routes to owner,
// which must already require a signed-in user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, owner *gin.RouterGroup) {
	rg.GET("/resumes/:id", h.shared)

	owner.GET("/resume", h.get)
	owner.PUT("/resume", h.save)
	owner.PATCH("/resume", h.patchHeader)
	owner.DELETE("/resume", h.remove)
	owner.GET("/resume/stats", h.stats)
	owner.POST("/resume/export", h.export)
	owner.POST("/resume/import", h.importDocument)
	owner.PUT("/resume/contact", bindAndRun(h, http.StatusOK, h.Svc.SetContact))

	owner.POST("/resume/educations", bindAndRun(h, http.StatusCreated, h.Svc.AddEducation))
	owner.PATCH("/resume/educations/:id", bindAndUpdate(h, h.Svc.UpdateEducation))
	owner.DELETE("/resume/educations/:id", h.deleteSection(h.Svc.DeleteEducation))

	owner.POST("/resume/works", bindAndRun(h, http.StatusCreated, h.Svc.AddWork))
	owner.PATCH("/resume/works/:id", bindAndUpdate(h, h.Svc.UpdateWork))
	owner.DELETE("/resume/works/:id", h.deleteSection(h.Svc.DeleteWork))

	owner.POST("/resume/skills", bindAndRun(h, http.StatusCreated, h.Svc.AddSkill))
	owner.PATCH("/resume/skills/:id", bindAndUpdate(h, h.Svc.UpdateSkill))
	owner.DELETE("/resume/skills/:id", h.deleteSection(h.Svc.DeleteSkill))

	owner.POST("/resume/projects", bindAndRun(h, http.StatusCreated, h.Svc.AddProject))
	owner.PATCH("/resume/projects/:id", bindAndUpdate(h, h.Svc.UpdateProject))
	owner.DELETE("/resume/projects/:id", h.deleteSection(h.Svc.DeleteProject))
}

func (h *Handler) fail(c *gin.Context, err error) {
	var inputErr *InputError
	switch {
	case errors.As(err, &inputErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid resume input", inputErr.Issues)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	default:
		respond.StoreError(c, err)
	}
}

func (h *Handler) shared(c *gin.Context) {
	r, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	// the shared view never exposes the owner
	r.UserID = nil
	respond.JSON(c, http.StatusOK, r)
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, r)
}

func (h *Handler) save(c *gin.Context) {
	var doc Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	r, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), doc)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, r)
}

func (h *Handler) patchHeader(c *gin.Context) {
	var patch HeaderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	r, err := h.Svc.UpdateHeader(c.Request.Context(), middleware.UserIDFromContext(c), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, r)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c)); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, st)
}

func (h *Handler) export(c *gin.Context) {
	res, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Created(c, res)
}

func (h *Handler) importDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "request body too large", nil)
		return
	}
	r, err := h.Svc.Import(c.Request.Context(), middleware.UserIDFromContext(c), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, r)
}

func bindAndRun[In, Out any](h *Handler, status int, fn func(context.Context, string, In) (Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in In
		if err := c.ShouldBindJSON(&in); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
		out, err := fn(c.Request.Context(), middleware.UserIDFromContext(c), in)
		if err != nil {
			h.fail(c, err)
			return
		}
		respond.JSON(c, status, out)
	}
}

func bindAndUpdate[In, Out any](h *Handler, fn func(context.Context, string, string, In) (Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in In
		if err := c.ShouldBindJSON(&in); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
		out, err := fn(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), in)
		if err != nil {
			h.fail(c, err)
			return
		}
		respond.JSON(c, http.StatusOK, out)
	}
}

func (h *Handler) deleteSection(fn func(context.Context, string, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
			h.fail(c, err)
			return
		}
		respond.NoContent(c)
	}
}
