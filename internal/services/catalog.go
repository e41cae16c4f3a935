package services

import (
	"context"

	"go.uber.org/zap"

	"storefront_back_end/internal/apperr"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

// CatalogService : lecture seule des fiches produit pour le storefront.
type CatalogService struct {
	store *store.Store
	cache *cache.Cache
	log   *zap.Logger
}

func NewCatalogService(st *store.Store, c *cache.Cache, log *zap.Logger) *CatalogService {
	return &CatalogService{store: st, cache: c, log: log}
}

// ProductBySlug lit d'abord Redis, puis la base. Un produit désactivé
// est introuvable.
func (s *CatalogService) ProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	if p, ok := s.cache.GetProduct(ctx, slug); ok {
		return p, nil
	}

	p, err := s.store.GetProductBySlug(ctx, slug)
	if isNotFound(err) || (err == nil && !p.Active) {
		return models.Product{}, apperr.New(apperr.NotFound, "produit introuvable")
	}
	if err != nil {
		return models.Product{}, storageErr("lecture produit", err)
	}

	if err := s.cache.SetProduct(ctx, p); err != nil {
		s.log.Warn("⚠️ Mise en cache produit échouée", zap.String("slug", slug), zap.Error(err))
	}
	return p, nil
}
