package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cedra_admin/internal/handlers/dealer"
	"cedra_admin/internal/handlers/product"
	"cedra_admin/internal/middleware"
	"cedra_admin/internal/models"
)

type Deps struct {
	Logger          *slog.Logger
	Products        *product.Handler
	Dealers         *dealer.Handler
	Limiter         middleware.Limiter
	UploadRateLimit int
	CORSOrigins     []string
	StaticDir       string // stockage local : répertoire servi sous /uploads
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.MaxMultipartMemory = 32 << 20
	r.Use(middleware.RequestID(), middleware.Logger(d.Logger), middleware.Recovery(d.Logger), middleware.ErrorHandler(d.Logger))

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": models.CodeSuccess, "message": "ok"})
	})
	if d.StaticDir != "" {
		r.Static("/uploads", d.StaticDir)
	}

	admin := r.Group("/admin")

	// Produits
	products := admin.Group("/product/api")
	products.POST("/upload-image", middleware.UploadRateLimit(d.Limiter, d.UploadRateLimit), d.Products.UploadImage)
	products.GET("/generate-slug", d.Products.GenerateSlug)
	products.POST("/create", d.Products.CreateProduct)
	products.GET("/product/:productId", d.Products.GetProduct)
	products.GET("/search", d.Products.SearchProducts)

	// Revendeurs
	admin.GET("/dealer/allocation/api/product-variants/:productId", d.Dealers.ProductVariants)
	admin.POST("/dealer/allocation/api/create", d.Dealers.CreateAllocation)
	admin.POST("/dealer/pricing/api/create", d.Dealers.CreatePricing)
	admin.POST("/dealer/api/create", d.Dealers.CreateDealer)
	admin.POST("/promotion/api/create", d.Dealers.CreatePromotion)
}
