package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gocql/gocql"
)

// --- Configuration ScyllaDB ---
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
}

var Scylla *ScyllaManager

// InitScyllaDB ouvre une session par keyspace configuré.
func InitScyllaDB(ctx context.Context, configs ...ScyllaKeyspaceConfig) error {
	Scylla = &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  make(map[string]ScyllaKeyspaceConfig),
	}
	for _, c := range configs {
		Scylla.configs[c.Keyspace] = c
	}

	for keyspace := range Scylla.configs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := Scylla.GetSession(keyspace); err != nil {
			return fmt.Errorf("initialisation keyspace %s: %w", keyspace, err)
		}
	}
	return nil
}

// ProductsKeyspace construit la configuration du keyspace produits.
func ProductsKeyspace(hosts []string, keyspace, user, password string) ScyllaKeyspaceConfig {
	return ScyllaKeyspaceConfig{
		Hosts:       hosts,
		Keyspace:    keyspace,
		Username:    user,
		Password:    password,
		SSLEnabled:  os.Getenv("SCYLLA_SSL_ENABLED") == "true",
		CACertPath:  os.Getenv("SCYLLA_SSL_CA_PATH"),
		Timeout:     5 * time.Second,
		NumConns:    20,
		Consistency: gocql.Quorum,
	}
}

// createScyllaCluster prépare le cluster : lectures/écritures en Quorum,
// LWT (slugs, codes promo, allocations) en LocalSerial.
func createScyllaCluster(cfg ScyllaKeyspaceConfig) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = cfg.Consistency
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: cfg.Username, Password: cfg.Password}
	}
	if cfg.SSLEnabled && cfg.CACertPath != "" {
		tc, err := tlsFromCA(cfg.CACertPath)
		if err != nil {
			return nil, err
		}
		cluster.SslOpts = &gocql.SslOptions{Config: tc, EnableHostVerification: true}
	}
	return cluster, nil
}

func tlsFromCA(path string) (*tls.Config, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lecture certificat CA %s: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("certificat CA %s illisible", path)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

const probeTimeout = 2 * time.Second

// probe vérifie qu'une session répond encore.
func probe(session *gocql.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
}

// GetSession renvoie la session du keyspace, recréée si elle ne répond plus.
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cfg, ok := sm.configs[keyspace]
	if !ok {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if session, ok := sm.sessions[keyspace]; ok {
		err := probe(session)
		if err == nil {
			return session, nil
		}
		log.Printf("⚠️ Session ScyllaDB '%s' invalide, reconnexion: %v", keyspace, err)
		session.Close()
		delete(sm.sessions, keyspace)
	}

	cluster, err := createScyllaCluster(cfg)
	if err != nil {
		return nil, fmt.Errorf("configuration cluster %s: %w", keyspace, err)
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("création session %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	log.Printf("✅ Session ScyllaDB ouverte pour '%s' (rôle %s)", keyspace, cfg.Username)
	return session, nil
}

// CloseScylla ferme les sessions ouvertes ; un GetSession ultérieur rouvre.
func CloseScylla() {
	if Scylla == nil {
		return
	}
	Scylla.mu.Lock()
	defer Scylla.mu.Unlock()

	for keyspace, session := range Scylla.sessions {
		session.Close()
		delete(Scylla.sessions, keyspace)
		log.Printf("🔌 Session ScyllaDB fermée pour '%s'", keyspace)
	}
}

// GetProductsSession renvoie la session du keyspace produits.
func GetProductsSession(keyspace string) (*gocql.Session, error) {
	if keyspace == "" {
		return nil, fmt.Errorf("SCYLLA_KS_PRODUCTS_KEYSPACE non configuré")
	}
	if Scylla == nil {
		return nil, fmt.Errorf("ScyllaDB non initialisé")
	}
	return Scylla.GetSession(keyspace)
}
