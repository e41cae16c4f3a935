// Package handlers contient les helpers de réponse partagés par les
// handlers HTTP.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/apperr"
)

// Fail traduit une erreur de service en réponse JSON. Les erreurs métier
// gardent leur message ; les autres deviennent une 500 générique.
func Fail(c *gin.Context, log *zap.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Error("❌ Erreur interne",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne du serveur"})
		return
	}

	body := gin.H{"error": e.Error(), "kind": e.Kind}
	if e.ProductID != "" {
		body["product_id"] = e.ProductID
		body["product"] = e.ProductName
	}
	if e.Remaining != nil {
		body["left"] = *e.Remaining
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	log.Info("↩️ Refus métier", zap.String("kind", string(e.Kind)), zap.String("path", c.FullPath()))
	c.JSON(apperr.HTTPStatus(e.Kind), body)
}

// Invalid répond à un corps de requête illisible ou incomplet comme à
// toute autre erreur de validation (422, kind validation_failed).
func Invalid(c *gin.Context, log *zap.Logger, field, message string) {
	e := apperr.New(apperr.ValidationFailed, "%s", message)
	if field != "" {
		e = e.WithField(field)
	}
	Fail(c, log, e)
}
