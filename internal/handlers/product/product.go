package product

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/services"
)

type Handler struct {
	catalog *services.CatalogService
	log     *zap.Logger
}

func NewHandler(catalog *services.CatalogService, log *zap.Logger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

// GetProduct : fiche produit par slug (prix, stock, images)
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.ProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
