// Package journal trace les mouvements de stock et les actions admin hors
// de la base transactionnelle. L'écriture est faite après validation et ne
// fait jamais échouer l'opération métier.
package journal

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront_back_end/internal/models"
)

// LowStockThreshold : en dessous, une alerte est émise après une vente.
const LowStockThreshold = 10

type Journal interface {
	RecordMovements(ctx context.Context, movements []models.StockMovement)
	RecordAudit(ctx context.Context, entry models.AuditLog)
}

// alertType retourne "out_of_stock", "low_stock" ou "".
func alertType(newStock int64) string {
	switch {
	case newStock <= 0:
		return "out_of_stock"
	case newStock <= LowStockThreshold:
		return "low_stock"
	}
	return ""
}

// Logger écrit le journal dans les logs (ScyllaDB non configuré).
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) RecordMovements(_ context.Context, movements []models.StockMovement) {
	for _, m := range movements {
		l.log.Info("📦 Mouvement de stock",
			zap.String("product_id", m.ProductID),
			zap.String("type", m.Type),
			zap.Int64("quantity", m.Quantity),
			zap.Int64("prev_stock", m.PrevStock),
			zap.Int64("new_stock", m.NewStock),
			zap.String("order_id", m.OrderID))
		if t := alertType(m.NewStock); t != "" {
			l.log.Warn("🚨 Alerte stock", zap.String("product_id", m.ProductID), zap.String("alert_type", t))
		}
	}
}

func (l *Logger) RecordAudit(_ context.Context, e models.AuditLog) {
	l.log.Info("📝 Audit",
		zap.String("action", e.Action),
		zap.String("resource", e.Resource),
		zap.String("resource_id", e.ResourceID),
		zap.String("user_id", e.UserID),
		zap.String("old_value", e.OldValue),
		zap.String("new_value", e.NewValue),
		zap.Bool("success", e.Success))
}

// Memory garde le journal en mémoire (tests).
type Memory struct {
	mu        sync.Mutex
	movements []models.StockMovement
	audits    []models.AuditLog
}

func (m *Memory) RecordMovements(_ context.Context, movements []models.StockMovement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, movements...)
}

func (m *Memory) RecordAudit(_ context.Context, e models.AuditLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, e)
}

func (m *Memory) Movements() []models.StockMovement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.StockMovement(nil), m.movements...)
}

// Audits retourne les entrées d'audit, filtrées par action si précisé.
func (m *Memory) Audits(actions ...string) []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(actions) == 0 {
		return append([]models.AuditLog(nil), m.audits...)
	}
	var out []models.AuditLog
	for _, e := range m.audits {
		for _, a := range actions {
			if e.Action == a {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
