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
	"github.com/redis/go-redis/v9"

	"xyz_store/internal/config"
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
	products string
	orders   string
	mu       sync.Mutex
}

// =============================================
// SCYLLA DB (keyspaces produits et commandes)
// =============================================

// NewScyllaManager ouvre une session par keyspace configuré
func NewScyllaManager(cfg config.ScyllaConfig) (*ScyllaManager, error) {
	sm := &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  keyspaceConfigs(cfg),
		products: cfg.ProductsKeyspace,
		orders:   cfg.OrdersKeyspace,
	}

	if cfg.AutoMigrate {
		if err := sm.migrate(); err != nil {
			return nil, err
		}
	}

	for keyspace := range sm.configs {
		if _, err := sm.GetSession(keyspace); err != nil {
			sm.Close()
			return nil, fmt.Errorf("échec initialisation keyspace %s: %w", keyspace, err)
		}
	}
	return sm, nil
}

func keyspaceConfigs(cfg config.ScyllaConfig) map[string]ScyllaKeyspaceConfig {
	base := ScyllaKeyspaceConfig{
		Hosts:       cfg.Hosts,
		SSLEnabled:  cfg.SSLEnabled,
		CACertPath:  cfg.CACertPath,
		Timeout:     cfg.Timeout,
		NumConns:    cfg.NumConns,
		Consistency: gocql.Quorum,
	}

	products := base
	products.Keyspace = cfg.ProductsKeyspace
	products.Username = cfg.ProductsRole
	products.Password = cfg.ProductsPassword

	orders := base
	orders.Keyspace = cfg.OrdersKeyspace
	orders.Username = cfg.OrdersRole
	orders.Password = cfg.OrdersPassword

	return map[string]ScyllaKeyspaceConfig{
		products.Keyspace: products,
		orders.Keyspace:   orders,
	}
}

// createScyllaCluster crée une configuration de cluster pour un keyspace
func createScyllaCluster(config ScyllaKeyspaceConfig) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns

	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	if config.SSLEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if config.CACertPath != "" {
			caCert, err := os.ReadFile(config.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("impossible de lire le certificat CA: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("impossible de parser le certificat CA")
			}
			tlsConfig.RootCAs = caCertPool
		}
		cluster.SslOpts = &gocql.SslOptions{Config: tlsConfig, EnableHostVerification: config.CACertPath != ""}
	}

	// Politique de sélection d'hôtes optimisée
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	return cluster, nil
}

// GetSession retourne une session pour un keyspace donné
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if session, exists := sm.sessions[keyspace]; exists && !session.Closed() {
		return session, nil
	}

	cluster, err := createScyllaCluster(config)
	if err != nil {
		return nil, fmt.Errorf("erreur configuration cluster pour %s: %w", keyspace, err)
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	log.Printf("✅ Nouvelle session ScyllaDB pour keyspace '%s' (utilisateur: %s)",
		keyspace, config.Username)

	return session, nil
}

// ProductsSession retourne la session du keyspace catalogue (produits, prix, avis)
func (sm *ScyllaManager) ProductsSession() (*gocql.Session, error) {
	return sm.GetSession(sm.products)
}

// OrdersSession retourne la session du keyspace commandes (commandes, ventes)
func (sm *ScyllaManager) OrdersSession() (*gocql.Session, error) {
	return sm.GetSession(sm.orders)
}

// Close ferme toutes les sessions ScyllaDB
func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		log.Printf("🔌 Session ScyllaDB fermée pour keyspace '%s'", keyspace)
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// =============================================
// REDIS
// =============================================

// ConnectRedis ouvre le client Redis ; renvoie nil sans erreur si REDIS_HOST est vide
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Println("⚠️ REDIS_HOST non configuré, cache catalogue désactivé")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("impossible de se connecter à Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")
	return client, nil
}
