package services

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront_back_end/internal/apperr"
	"storefront_back_end/internal/journal"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/store"
)

type OrderService struct {
	store   *store.Store
	journal journal.Journal
	log     *zap.Logger
	now     clock
}

func NewOrderService(st *store.Store, j journal.Journal, log *zap.Logger) *OrderService {
	return &OrderService{store: st, journal: j, log: log, now: utcNow}
}

// OrderQuery : paramètres bruts de la liste admin.
type OrderQuery struct {
	Status   string
	DateFrom string // 2006-01-02, inclus
	DateTo   string // 2006-01-02, inclus
	Sort     string
	Dir      string
}

const dateLayout = "2006-01-02"

func (q OrderQuery) filter() (store.OrderFilter, error) {
	f := store.OrderFilter{Sort: store.ParseOrderSort(q.Sort), Desc: q.Dir != "asc"}
	if q.Status != "" {
		st, ok := models.ParseOrderStatus(q.Status)
		if !ok {
			return f, apperr.New(apperr.ValidationFailed, "statut inconnu: %q", q.Status).WithField("status")
		}
		f.Status = &st
	}
	if q.DateFrom != "" {
		from, err := time.Parse(dateLayout, q.DateFrom)
		if err != nil {
			return f, apperr.New(apperr.ValidationFailed, "date_from invalide").WithField("date_from")
		}
		f.From = &from
	}
	if q.DateTo != "" {
		to, err := time.Parse(dateLayout, q.DateTo)
		if err != nil {
			return f, apperr.New(apperr.ValidationFailed, "date_to invalide").WithField("date_to")
		}
		until := to.AddDate(0, 0, 1)
		f.Until = &until
	}
	return f, nil
}

// ListOrders alimente la liste admin.
func (s *OrderService) ListOrders(ctx context.Context, q OrderQuery) ([]models.OrderSummary, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, storageErr("liste commandes", err)
	}
	return orders, nil
}

// GetOrder retourne la commande, ses lignes et l'acheteur s'il est connu.
func (s *OrderService) GetOrder(ctx context.Context, id string) (models.OrderDetail, error) {
	o, err := s.loadOrder(ctx, id)
	if err != nil {
		return models.OrderDetail{}, err
	}
	detail := models.OrderDetail{Order: o}
	if o.UserID != nil {
		u, err := s.store.GetUser(ctx, *o.UserID)
		switch {
		case err == nil:
			detail.User = &u
		case !isNotFound(err):
			return models.OrderDetail{}, storageErr("lecture acheteur", err)
		}
	}
	return detail, nil
}

// Actor : l'administrateur à l'origine d'une modification.
type Actor struct {
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	SessionID string
}

// UpdateStatus applique n'importe quel statut connu. Un passage hors du
// cycle de vie est appliqué mais signalé et journalisé comme forçage.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string, actor Actor) (models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return models.Order{}, apperr.New(apperr.ValidationFailed, "statut inconnu: %q", status).WithField("status")
	}

	var (
		o    models.Order
		prev models.OrderStatus
	)
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		var err error
		o, err = q.GetOrder(ctx, id)
		if isNotFound(err) {
			return apperr.New(apperr.NotFound, "commande introuvable")
		}
		if err != nil {
			return err
		}
		prev = o.Status
		now := s.now()
		if err := q.UpdateOrderStatus(ctx, id, next, now); err != nil {
			return err
		}
		o.Status, o.UpdatedAt = next, now
		return nil
	})
	if err != nil {
		return models.Order{}, storageErr("mise à jour statut", err)
	}

	action := models.ACTION_ORDER_STATUS_UPDATE
	if prev != next && !prev.CanTransitionTo(next) {
		action = models.ACTION_ORDER_STATUS_OVERRIDE
		s.log.Warn("⚠️ Transition de statut hors cycle de vie",
			zap.String("order_id", id), zap.String("from", string(prev)), zap.String("to", string(next)),
			zap.String("by", actor.UserID))
	} else {
		s.log.Info("✅ Statut commande mis à jour",
			zap.String("order_id", id), zap.String("from", string(prev)), zap.String("to", string(next)))
	}

	if s.journal != nil {
		s.journal.RecordAudit(ctx, models.AuditLog{
			ID:         gocql.TimeUUID(),
			UserID:     actor.UserID,
			UserEmail:  actor.Email,
			Action:     action,
			Resource:   models.RESOURCE_ORDER,
			ResourceID: id,
			OldValue:   string(prev),
			NewValue:   string(next),
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
			Success:    true,
			Timestamp:  o.UpdatedAt,
			SessionID:  actor.SessionID,
		})
	}

	if o.Items, err = s.store.ListOrderItems(ctx, id); err != nil {
		return models.Order{}, storageErr("lecture lignes commande", err)
	}
	return o, nil
}

// ListUserOrders : historique du client, plus récentes d'abord.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("liste commandes client", err)
	}
	for i := range orders {
		if orders[i].Items, err = s.store.ListOrderItems(ctx, orders[i].ID); err != nil {
			return nil, storageErr("lecture lignes commande", err)
		}
	}
	return orders, nil
}

// GetUserOrder refuse l'accès à la commande d'un autre client.
func (s *OrderService) GetUserOrder(ctx context.Context, userID, orderID string) (models.Order, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return models.Order{}, apperr.New(apperr.Forbidden, "accès refusé à cette commande")
	}
	return o, nil
}

func (s *OrderService) loadOrder(ctx context.Context, id string) (models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if isNotFound(err) {
		return models.Order{}, apperr.New(apperr.NotFound, "commande introuvable")
	}
	if err != nil {
		return models.Order{}, storageErr("lecture commande", err)
	}
	if o.Items, err = s.store.ListOrderItems(ctx, id); err != nil {
		return models.Order{}, storageErr("lecture lignes commande", err)
	}
	return o, nil
}

const (
	topProductsLimit  = 10
	recentOrdersLimit = 10
)

// Dashboard : statistiques du tableau de bord admin. Le chiffre d'affaires
// exclut les commandes annulées.
func (s *OrderService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	byStatus, err := s.store.OrderStatsByStatus(ctx)
	if err != nil {
		return stats, storageErr("stats commandes", err)
	}
	stats.Orders.ByStatus = byStatus

	var billed int64
	for status, st := range byStatus {
		stats.Orders.Total += st.Count
		if status == models.StatusCancelled {
			continue
		}
		billed += st.Count
		if stats.Orders.Revenue, err = stats.Orders.Revenue.Add(st.Amount); err != nil {
			return stats, storageErr("stats commandes", err)
		}
	}
	if billed > 0 {
		stats.Orders.AverageOrderValue = money.Money(stats.Orders.Revenue.Int64() / billed)
	}
	stats.Orders.Pending = byStatus[models.StatusPending].Count

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.Orders.Today, stats.Orders.RevenueToday, err = s.store.OrdersSince(ctx, startOfDay); err != nil {
		return stats, storageErr("stats du jour", err)
	}
	if stats.RecentOrders, err = s.store.ListOrders(ctx, store.OrderFilter{
		Sort:  store.SortByCreatedAt,
		Desc:  true,
		Limit: recentOrdersLimit,
	}); err != nil {
		return stats, storageErr("commandes récentes", err)
	}

	if stats.Products, err = s.store.InventoryStats(ctx, journal.LowStockThreshold); err != nil {
		return stats, storageErr("stats produits", err)
	}
	if stats.TopProducts, err = s.store.TopProducts(ctx, topProductsLimit); err != nil {
		return stats, storageErr("top produits", err)
	}
	stats.GeneratedAt = now
	return stats, nil
}
