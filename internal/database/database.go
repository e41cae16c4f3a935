package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/store"
)

// Connections regroupe les connexions ouvertes au démarrage.
// Redis et Scylla sont optionnels (nil si non configurés).
type Connections struct {
	SQL     *sql.DB
	Dialect store.Dialect
	Redis   *redis.Client
	Scylla  *ScyllaManager
}

// --- Initialisation ---
func ConnectDatabases(ctx context.Context, cfg config.Config, log *zap.Logger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}

	// 1. Base SQL (source de vérité)
	dialect, err := store.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	db, err := OpenSQL(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	conns.SQL, conns.Dialect = db, dialect
	log.Info("✅ Connecté à la base SQL", zap.String("driver", cfg.DBDriver))

	// 2. Redis (notifications panier, rate limit)
	if cfg.RedisHost != "" {
		rdb, err := connectRedis(ctx, cfg.RedisHost, cfg.RedisPassword)
		if err != nil {
			conns.Close()
			return nil, err
		}
		conns.Redis = rdb
		log.Info("✅ Connecté à Redis", zap.String("addr", cfg.RedisHost))
	} else {
		log.Warn("⚠️ REDIS_HOST absent : notifications panier et rate limit désactivés")
	}

	// 3. ScyllaDB (journal des mouvements de stock et audit)
	if len(cfg.ScyllaHosts) > 0 && cfg.ScyllaJournalKeyspace != "" {
		conns.Scylla = NewScyllaManager(log, ScyllaKeyspaceConfig{
			Hosts:       cfg.ScyllaHosts,
			Keyspace:    cfg.ScyllaJournalKeyspace,
			Username:    cfg.ScyllaJournalRole,
			Password:    cfg.ScyllaJournalPassword,
			Timeout:     5 * time.Second,
			NumConns:    4,
			Consistency: gocql.Quorum,
		})
		if _, err := conns.Scylla.GetSession(cfg.ScyllaJournalKeyspace); err != nil {
			conns.Close()
			return nil, fmt.Errorf("échec initialisation keyspace %s: %w", cfg.ScyllaJournalKeyspace, err)
		}
	} else {
		log.Warn("⚠️ ScyllaDB non configuré : le journal est écrit dans les logs")
	}

	log.Info("✅ Toutes les bases de données sont connectées")
	return conns, nil
}

// OpenSQL ouvre et vérifie la base SQL. SQLite n'accepte qu'un écrivain :
// on limite le pool à une connexion.
func OpenSQL(ctx context.Context, dialect store.Dialect, dsn string) (*sql.DB, error) {
	driver := "postgres"
	if dialect == store.SQLite {
		driver = "sqlite"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ouverture %s: %w", driver, err)
	}
	if dialect == store.SQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connexion %s: %w", driver, err)
	}
	return db, nil
}

func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.SQL != nil {
		_ = c.SQL.Close()
	}
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}
	return rdb, nil
}

// =============================================
// SCYLLA DB
// =============================================

type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
	log      *zap.Logger
}

func NewScyllaManager(log *zap.Logger, configs ...ScyllaKeyspaceConfig) *ScyllaManager {
	sm := &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  make(map[string]ScyllaKeyspaceConfig),
		log:      log,
	}
	for _, c := range configs {
		sm.configs[c.Keyspace] = c
	}
	return sm
}

func createScyllaCluster(config ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns
	cluster.ReconnectInterval = 1 * time.Second
	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}
	if config.CACertPath != "" {
		cluster.SslOpts = &gocql.SslOptions{CaPath: config.CACertPath}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// GetSession retourne (et crée au besoin) la session d'un keyspace.
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

	session, err := createScyllaCluster(config).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	sm.log.Info("✅ Nouvelle session ScyllaDB",
		zap.String("keyspace", keyspace), zap.String("user", config.Username))
	return session, nil
}

func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		sm.log.Info("🔌 Session ScyllaDB fermée", zap.String("keyspace", keyspace))
	}
	sm.sessions = map[string]*gocql.Session{}
}
