package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// Settings regroupe la configuration du serveur admin et de l'outil adminctl.
type Settings struct {
	Port         string
	AdminAPIBase string

	StorageDriver string // minio | s3 | local

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string

	LocalUploadDir string
	LocalUploadURL string

	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUser     string
	ScyllaPassword string

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	CORSOrigins     []string
	UploadRateLimit int // uploads par minute et par IP
}

// FromEnv lit la configuration ; à appeler après Load.
func FromEnv() Settings {
	return Settings{
		Port:         getenv("PORT", "8080"),
		AdminAPIBase: getenv("ADMIN_API_BASE", "http://localhost:8080/admin"),

		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", "minio")),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "products"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getenv("S3_REGION", "eu-west-3"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		LocalUploadDir: getenv("LOCAL_UPLOAD_DIR", "./uploads"),
		LocalUploadURL: getenv("LOCAL_UPLOAD_URL", "/uploads"),

		ScyllaHosts:    splitList(getenv("SCYLLA_HOSTS", "127.0.0.1")),
		ScyllaKeyspace: os.Getenv("SCYLLA_KS_PRODUCTS_KEYSPACE"),
		ScyllaUser:     os.Getenv("SCYLLA_KS_PRODUCTS_ROLE"),
		ScyllaPassword: os.Getenv("SCYLLA_KS_PRODUCTS_PASSWORD"),

		RedisHost:     getenv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),
		ElasticIndex:    getenv("ELASTIC_INDEX", "products"),

		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
		UploadRateLimit: getenvInt("UPLOAD_RATE_LIMIT", 60),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
