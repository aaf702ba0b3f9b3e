package middleware

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"cedra_admin/internal/apperr"
)

const UploadWindow = 1 * time.Minute

// Limiter compte les requêtes par clé sur une fenêtre (Redis en production).
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
}

// UploadRateLimit limite les uploads d'images par IP. Si le compteur est
// indisponible la requête passe.
func UploadRateLimit(l Limiter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		allowed, remaining, err := l.Allow(c.Request.Context(), "upload:"+c.ClientIP(), limit, UploadWindow)
		if err != nil {
			log.Printf("⚠️ Rate limit indisponible: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(UploadWindow.Seconds())))
			Fail(c, apperr.TooManyErr("Trop d'images envoyées. Réessayez dans 1 minute."))
			return
		}
		c.Next()
	}
}
