package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/middleware"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.DELETE("/me", middleware.RequireUser(), h.deleteMe)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if middleware.IsGuest(c) {
		respond.JSON(c, http.StatusOK, gin.H{"userId": userID, "guest": true})
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// signed in but nothing saved yet
			respond.JSON(c, http.StatusOK, gin.H{
				"userId": userID,
				"email":  middleware.UserEmailFromContext(c),
				"name":   middleware.UserNameFromContext(c),
				"guest":  false,
			})
			return
		}
		respond.StoreError(c, err)
		return
	}
	resp := gin.H{
		"userId":    user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"guest":     false,
		"createdAt": user.CreatedAt,
	}
	if user.Resume != nil {
		resp["resumeId"] = user.Resume.ID
	}
	if picture := middleware.UserPictureFromContext(c); picture != "" {
		resp["picture"] = picture
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) deleteMe(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c))
	switch {
	case err == nil:
		respond.NoContent(c)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	default:
		respond.StoreError(c, err)
	}
}

// EnsureAccount creates the user row for a signed-in caller before any write.
// Reads pass through untouched.
func (h *Handler) EnsureAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		err := h.Svc.EnsureFromClaims(c.Request.Context(), Identity{
			ID:    middleware.UserIDFromContext(c),
			Email: middleware.UserEmailFromContext(c),
			Name:  middleware.UserNameFromContext(c),
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "token carries no email for a new account", nil)
				return
			}
			respond.StoreError(c, err)
			return
		}
		c.Next()
	}
}
