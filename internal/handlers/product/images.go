package product

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"cedra_admin/internal/apperr"
	"cedra_admin/internal/handlers"
	"cedra_admin/internal/models"
	"cedra_admin/internal/storage"
)

const MaxImageSize = 10 << 20

// UploadImage - Upload d'une image produit (champ multipart "image")
func (h *Handler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		handlers.Fail(c, handlers.FieldError("image", "Aucune image reçue."))
		return
	}
	if header.Size > MaxImageSize {
		handlers.Fail(c, handlers.FieldError("image", "L'image dépasse 10 Mo."))
		return
	}

	file, err := header.Open()
	if err != nil {
		handlers.Fail(c, apperr.Wrap(err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		handlers.Fail(c, apperr.Wrap(err))
		return
	}
	if len(data) > MaxImageSize {
		handlers.Fail(c, handlers.FieldError("image", "L'image dépasse 10 Mo."))
		return
	}

	// Le type déclaré par le navigateur n'est pas fiable : on lit le contenu.
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		handlers.Fail(c, handlers.FieldError("image", "Le fichier n'est pas une image."))
		return
	}

	res, err := h.Storage.Put(c.Request.Context(), bytes.NewReader(data), storage.PutInput{
		Filename:    header.Filename,
		ContentType: mt.String(),
		Size:        int64(len(data)),
	})
	if err != nil {
		handlers.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    models.CodeSuccess,
		"message": "Image uploadée avec succès",
		"url":     res.URL,
	})
}
