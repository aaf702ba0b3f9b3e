package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cedra_admin/internal/apperr"
	"cedra_admin/internal/forms"
	"cedra_admin/internal/middleware"
	"cedra_admin/internal/models"
)

const msgInvalidForm = "Veuillez corriger les champs signalés."

// OK répond avec l'enveloppe de succès ; extra ajoute des champs au même niveau.
func OK(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"code": models.CodeSuccess, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail délègue le rendu de l'erreur au middleware.
func Fail(c *gin.Context, err error) {
	middleware.Fail(c, err)
}

// Invalid construit une erreur de formulaire à partir des erreurs de champ.
func Invalid(fe forms.FieldErrors) error {
	return apperr.InvalidErr(msgInvalidForm, fe)
}

// FieldError signale une seule erreur de champ.
func FieldError(field, msg string) error {
	return apperr.InvalidErr(msgInvalidForm, map[string]string{field: msg})
}

// Bind lit un payload multipart puis le valide. Les erreurs de lecture de
// forms sont de la forme "champ: cause".
func Bind[P any](c *gin.Context, parse func(func(string) string) (P, error)) (P, error) {
	p, err := parse(c.PostForm)
	if err != nil {
		fe := forms.FieldErrors{}
		if field, _, ok := strings.Cut(err.Error(), ":"); ok {
			fe.Add(field, "Valeur invalide.")
		}
		return p, &apperr.AppError{Kind: apperr.Invalid, PublicMsg: msgInvalidForm, Fields: fe, Err: err}
	}
	if fe := forms.Validate(p); !fe.Empty() {
		return p, Invalid(fe)
	}
	return p, nil
}
