package journal

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront_back_end/internal/models"
)

const (
	insertMovementCQL = `INSERT INTO stock_movements (
			id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertAlertCQL = `INSERT INTO stock_alerts (
			id, product_id, current_stock, threshold_stock, alert_type, is_resolved, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertAuditCQL = `INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id,
			old_value, new_value, ip_address, user_agent, success,
			error_msg, timestamp, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Scylla écrit le journal dans le keyspace journal.
type Scylla struct {
	session *gocql.Session
	log     *zap.Logger
}

func NewScylla(session *gocql.Session, log *zap.Logger) *Scylla {
	return &Scylla{session: session, log: log}
}

func (s *Scylla) RecordMovements(ctx context.Context, movements []models.StockMovement) {
	if len(movements) == 0 {
		return
	}
	batch := s.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, m := range movements {
		batch.Query(insertMovementCQL,
			m.ID, m.ProductID, m.Type, m.Quantity, m.PrevStock, m.NewStock,
			m.Reason, m.OrderID, m.UserID, m.CreatedAt)
	}
	if err := s.session.ExecuteBatch(batch); err != nil {
		s.log.Warn("⚠️ Erreur enregistrement mouvements stock", zap.Error(err), zap.Int("count", len(movements)))
	}

	for _, m := range movements {
		t := alertType(m.NewStock)
		if t == "" {
			continue
		}
		if err := s.session.Query(insertAlertCQL,
			gocql.TimeUUID(), m.ProductID, m.NewStock, int64(LowStockThreshold), t, false, time.Now(),
		).WithContext(ctx).Exec(); err != nil {
			s.log.Warn("⚠️ Erreur création alerte stock", zap.Error(err), zap.String("product_id", m.ProductID))
			continue
		}
		s.log.Info("🚨 Alerte stock créée", zap.String("product_id", m.ProductID), zap.String("alert_type", t))
	}
}

func (s *Scylla) RecordAudit(ctx context.Context, e models.AuditLog) {
	if err := s.session.Query(insertAuditCQL,
		e.ID, e.UserID, e.UserEmail, e.Action, e.Resource, e.ResourceID,
		e.OldValue, e.NewValue, e.IPAddress, e.UserAgent, e.Success,
		e.ErrorMsg, e.Timestamp, e.SessionID,
	).WithContext(ctx).Exec(); err != nil {
		s.log.Error("❌ Erreur enregistrement log audit", zap.Error(err), zap.String("action", e.Action))
	}
}
