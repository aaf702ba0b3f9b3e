package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cedra_admin/internal/cache"
	"cedra_admin/internal/config"
	"cedra_admin/internal/database"
	"cedra_admin/internal/handlers/dealer"
	"cedra_admin/internal/handlers/product"
	"cedra_admin/internal/middleware"
	"cedra_admin/internal/repository"
	"cedra_admin/internal/routes"
	"cedra_admin/internal/search"
	"cedra_admin/internal/storage"
)

func main() {
	config.Load()
	settings := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := connectStore(ctx, settings)
	variantCache, limiter := connectRedis(ctx, settings)
	index := connectElastic(settings)

	st, err := storage.FromSettings(ctx, settings)
	if err != nil {
		log.Fatalf("❌ Stockage des images : %v", err)
	}
	log.Printf("✅ Stockage des images : %s", st.Driver)

	products := &product.Handler{Store: store, Cache: variantCache, Index: index, Storage: st.Storage}
	deps := routes.Deps{
		Logger:          logger,
		Products:        products,
		Dealers:         &dealer.Handler{Products: store, Dealers: store, Cache: variantCache},
		Limiter:         limiter,
		UploadRateLimit: settings.UploadRateLimit,
		CORSOrigins:     settings.CORSOrigins,
	}
	if st.Driver == "local" {
		deps.StaticDir = settings.LocalUploadDir
	}

	r := gin.New()
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur admin Cedra lancé sur le port", settings.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur HTTP : %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt HTTP incomplet : %v", err)
	}
	// Les indexations Elastic lancées en arrière-plan doivent se terminer.
	products.Wait()
	database.CloseScylla()
	log.Println("👋 Serveur arrêté")
}

// connectStore ouvre ScyllaDB ; sans keyspace configuré on reste en mémoire (dev).
func connectStore(ctx context.Context, s config.Settings) repository.Store {
	if s.ScyllaKeyspace == "" {
		log.Println("⚠️ SCYLLA_KS_PRODUCTS_KEYSPACE absent : stockage en mémoire")
		return repository.NewMemory()
	}

	ks := database.ProductsKeyspace(s.ScyllaHosts, s.ScyllaKeyspace, s.ScyllaUser, s.ScyllaPassword)
	if err := database.InitScyllaDB(ctx, ks); err != nil {
		log.Fatalf("❌ Connexion ScyllaDB : %v", err)
	}
	session, err := database.GetProductsSession(s.ScyllaKeyspace)
	if err != nil {
		log.Fatalf("❌ Session ScyllaDB : %v", err)
	}

	store := repository.NewScylla(session)
	if os.Getenv("SCYLLA_AUTO_SCHEMA") == "true" {
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("❌ Création du schéma : %v", err)
		}
		log.Println("✅ Schéma ScyllaDB vérifié")
	}
	return store
}

// connectRedis renvoie le cache de variantes et le limiteur d'upload.
// Redis indisponible : on bascule en mémoire plutôt que de refuser de démarrer.
func connectRedis(ctx context.Context, s config.Settings) (cache.VariantCache, middleware.Limiter) {
	client, err := cache.NewRedis(ctx, s.RedisHost, s.RedisPassword)
	if err != nil {
		log.Printf("⚠️ %v : cache et limitation en mémoire", err)
		return cache.NewMemory(), cache.NewMemoryLimiter()
	}
	return cache.NewRedisVariants(client), cache.NewRedisLimiter(client, "ratelimit:")
}

func connectElastic(s config.Settings) search.Index {
	if s.ElasticURL == "" {
		log.Println("⚠️ ELASTIC_URL absent : recherche en mémoire")
		return search.NewMemory()
	}
	es, err := search.NewElastic(s.ElasticURL, s.ElasticUser, s.ElasticPassword, s.ElasticIndex)
	if err != nil {
		log.Fatalf("❌ Connexion Elasticsearch : %v", err)
	}
	return es
}
