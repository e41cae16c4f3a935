package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/journal"
	"storefront_back_end/internal/logger"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/routes"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

func main() {
	config.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("❌ Configuration invalide : %v", err)
	}

	zlog, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("❌ Impossible d'initialiser le logger : %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conns, err := database.ConnectDatabases(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("❌ Connexion aux bases impossible", zap.Error(err))
	}
	defer conns.Close()

	st := store.New(conns.SQL, conns.Dialect)
	if err := st.Migrate(ctx); err != nil {
		zlog.Fatal("❌ Migration du schéma impossible", zap.Error(err))
	}

	var j journal.Journal = journal.NewLogger(zlog)
	if conns.Scylla != nil {
		session, err := conns.Scylla.GetSession(cfg.ScyllaJournalKeyspace)
		if err != nil {
			zlog.Fatal("❌ Session Scylla indisponible", zap.Error(err))
		}
		j = journal.NewScylla(session, zlog)
		zlog.Info("✅ Journal ScyllaDB activé")
	}

	c := cache.New(conns.Redis)
	var notifier cache.CartNotifier
	if c != nil {
		notifier = c
	}

	carts := services.NewCartService(st, notifier, zlog)
	checkout := services.NewCheckoutService(st, j, c, services.CheckoutSettings{
		DeliveryPrices: cfg.DeliveryPrices,
		DefaultCountry: cfg.DefaultCountry,
	}, zlog)
	orders := services.NewOrderService(st, j, zlog)
	catalog := services.NewCatalogService(st, c, zlog)

	if cfg.JWTSecret == "" {
		zlog.Warn("⚠️ JWT_SECRET manquant : seules les sessions anonymes fonctionneront")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, routes.Deps{
		Carts:         carts,
		Checkout:      checkout,
		Orders:        orders,
		Catalog:       catalog,
		Cache:         c,
		Sessions:      middleware.NewCookieStore([]byte(cfg.SessionSecret), cfg.IsProduction()),
		JWTSecret:     []byte(cfg.JWTSecret),
		CORSOrigins:   cfg.CORSOrigins,
		CartRateLimit: int64(cfg.CartRateLimit),
		Log:           zlog,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("🚀 Serveur storefront lancé", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("❌ Arrêt du serveur", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("🛑 Arrêt demandé, fermeture des connexions")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("❌ Arrêt forcé du serveur", zap.Error(err))
	}
}
