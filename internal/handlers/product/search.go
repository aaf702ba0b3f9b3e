package product

import (
	"strings"

	"github.com/gin-gonic/gin"

	"cedra_admin/internal/apperr"
	"cedra_admin/internal/handlers"
	"cedra_admin/internal/search"
)

// SearchProducts - Recherche plein texte dans l'index produits
func (h *Handler) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		handlers.OK(c, "Aucune recherche", gin.H{"products": []search.Document{}})
		return
	}

	docs, err := h.Index.Search(c.Request.Context(), q)
	if err != nil {
		handlers.Fail(c, apperr.Wrap(err))
		return
	}
	handlers.OK(c, "Résultats de recherche", gin.H{"products": docs})
}
