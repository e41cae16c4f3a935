// Package services porte la logique métier du panier, du checkout et du
// registre des commandes. Les handlers HTTP ne parlent qu'à ce paquet.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront_back_end/internal/apperr"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/store"
)

var tracer = otel.Tracer("storefront_back_end/internal/services")

// clock est remplacée dans les tests.
type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// endSpan clôt le span en marquant les erreurs inattendues.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if apperr.KindOf(err) == "" {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

// notify publie un événement panier ; un échec Redis n'annule rien.
func notify(ctx context.Context, n cache.CartNotifier, log *zap.Logger, sessionKey, event string) {
	if n == nil {
		return
	}
	if err := n.NotifyCart(ctx, sessionKey, event); err != nil {
		log.Warn("⚠️ Publication événement panier échouée",
			zap.String("session", sessionKey), zap.String("event", event), zap.Error(err))
	}
}

// storageErr enveloppe une erreur de persistance qui n'est pas métier.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
