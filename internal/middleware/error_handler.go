package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"cedra_admin/internal/apperr"
	"cedra_admin/internal/models"
)

// Fail enregistre l'erreur ; ErrorHandler écrit l'enveloppe.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler transforme la dernière erreur en enveloppe {code:"error"}.
// Le client lit l'enveloppe quel que soit le code HTTP.
func ErrorHandler(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		Render(c, l)
	}
}

func Render(c *gin.Context, l *slog.Logger) {
	if c.Writer.Written() || len(c.Errors) == 0 {
		return
	}

	err := c.Errors.Last().Err
	status := apperr.HTTPStatus(err)

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	l.LogAttrs(c.Request.Context(), level, "request_failed",
		slog.String("request_id", GetRequestID(c)),
		slog.Int("status", status),
		slog.Any("err", err),
	)

	c.AbortWithStatusJSON(status, models.Envelope{
		Code:    models.CodeError,
		Message: apperr.PublicMessage(err),
		Errors:  apperr.FieldErrors(err),
	})
}
