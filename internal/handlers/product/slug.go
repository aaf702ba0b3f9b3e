package product

import (
	"strings"

	"github.com/gin-gonic/gin"

	"cedra_admin/internal/apperr"
	"cedra_admin/internal/handlers"
	"cedra_admin/internal/slug"
)

// GenerateSlug - Proposer un slug libre à partir du nom
func (h *Handler) GenerateSlug(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		handlers.Fail(c, handlers.FieldError("name", "Ce champ est obligatoire."))
		return
	}

	s, err := slug.Unique(c.Request.Context(), slug.FromName(name), h.Store.SlugExists)
	if err != nil {
		handlers.Fail(c, apperr.Wrap(err))
		return
	}
	handlers.OK(c, "Slug généré", gin.H{"slug": s})
}
