package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
)

type Config struct {
	Port    string
	Env     string
	BaseURL string

	DBDriver    string // "postgres" ou "sqlite"
	DatabaseURL string

	RedisHost     string
	RedisPassword string

	ScyllaHosts           []string
	ScyllaJournalKeyspace string
	ScyllaJournalRole     string
	ScyllaJournalPassword string

	SessionSecret string
	JWTSecret     string
	CORSOrigins   []string

	DeliveryPrices map[models.DeliveryMethod]money.Money
	DefaultCountry string
	CartRateLimit  int
}

// Load charge le fichier .env s'il existe.
func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// FromEnv lit la configuration depuis les variables d'environnement.
func FromEnv() (Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:                  withDefault(getenv("PORT"), "8080"),
		Env:                   withDefault(getenv("APP_ENV"), "development"),
		BaseURL:               withDefault(getenv("BASE_URL"), "http://localhost:8080"),
		DBDriver:              withDefault(getenv("DB_DRIVER"), "sqlite"),
		DatabaseURL:           getenv("DATABASE_URL"),
		RedisHost:             getenv("REDIS_HOST"),
		RedisPassword:         getenv("REDIS_PASSWORD"),
		ScyllaHosts:           splitList(getenv("SCYLLA_HOSTS")),
		ScyllaJournalKeyspace: getenv("SCYLLA_KS_JOURNAL_KEYSPACE"),
		ScyllaJournalRole:     getenv("SCYLLA_KS_JOURNAL_ROLE"),
		ScyllaJournalPassword: getenv("SCYLLA_KS_JOURNAL_PASSWORD"),
		SessionSecret:         getenv("SESSION_SECRET"),
		JWTSecret:             getenv("JWT_SECRET"),
		CORSOrigins:           splitList(getenv("CORS_ORIGINS")),
		DefaultCountry:        withDefault(getenv("DEFAULT_COUNTRY"), "Poland"),
		DeliveryPrices:        map[models.DeliveryMethod]money.Money{},
	}

	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET manquant")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return Config{}, fmt.Errorf("DB_DRIVER invalide: %q", cfg.DBDriver)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DBDriver == "postgres" {
			return Config{}, fmt.Errorf("DATABASE_URL manquant pour postgres")
		}
		cfg.DatabaseURL = "file:storefront.db?_pragma=busy_timeout(5000)"
	}

	defaults := map[models.DeliveryMethod]struct {
		key   string
		value int64
	}{
		models.DeliveryCourier: {"DELIVERY_PRICE_COURIER", 1499},
		models.DeliveryLocker:  {"DELIVERY_PRICE_LOCKER", 1299},
		models.DeliveryPickup:  {"DELIVERY_PRICE_PICKUP", 0},
	}
	for method, d := range defaults {
		v, err := intFromEnv(getenv, d.key, d.value)
		if err != nil {
			return Config{}, err
		}
		price, err := money.NewMoney(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
		cfg.DeliveryPrices[method] = price
	}

	limit, err := intFromEnv(getenv, "CART_RATE_LIMIT", 20)
	if err != nil {
		return Config{}, err
	}
	cfg.CartRateLimit = int(limit)

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func intFromEnv(getenv func(string) string, key string, def int64) (int64, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s invalide (%q): %w", key, raw, err)
	}
	return v, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
