package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ScyllaConfig struct {
	Hosts            []string
	ProductsKeyspace string
	ProductsRole     string
	ProductsPassword string
	OrdersKeyspace   string
	OrdersRole       string
	OrdersPassword   string
	SSLEnabled       bool
	CACertPath       string
	Timeout          time.Duration
	NumConns         int
	AutoMigrate      bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled indique si l'envoi des confirmations est configuré
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type Config struct {
	AppEnv            string
	Port              string
	StoreBackend      string // "scylla" ou "memory"
	Scylla            ScyllaConfig
	Redis             RedisConfig
	CatalogCacheTTL   time.Duration
	JWTSecret         string
	SMTP              SMTPConfig
	LowStockThreshold int
	CORSOrigins       []string
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load lit le fichier .env s'il existe puis construit la configuration
func Load() Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv construit la configuration à partir des variables d'environnement
func FromEnv() Config {
	cfg := Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "scylla")),
		Scylla: ScyllaConfig{
			Hosts:            splitList(getEnv("SCYLLA_HOSTS", "127.0.0.1")),
			ProductsKeyspace: getEnv("SCYLLA_KS_PRODUCTS_KEYSPACE", "xyz_products"),
			ProductsRole:     os.Getenv("SCYLLA_KS_PRODUCTS_ROLE"),
			ProductsPassword: os.Getenv("SCYLLA_KS_PRODUCTS_PASSWORD"),
			OrdersKeyspace:   getEnv("SCYLLA_KS_ORDERS_KEYSPACE", "xyz_orders"),
			OrdersRole:       os.Getenv("SCYLLA_KS_ORDERS_ROLE"),
			OrdersPassword:   os.Getenv("SCYLLA_KS_ORDERS_PASSWORD"),
			SSLEnabled:       getBool("SCYLLA_SSL_ENABLED", false),
			CACertPath:       os.Getenv("SCYLLA_SSL_CA_PATH"),
			Timeout:          getDuration("SCYLLA_TIMEOUT", 5*time.Second),
			NumConns:         getInt("SCYLLA_NUM_CONNS", 20),
			AutoMigrate:      getBool("SCYLLA_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_HOST"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
		},
		LowStockThreshold: getInt("LOW_STOCK_THRESHOLD", 10),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
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

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.ToLower(v) == "true"
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
