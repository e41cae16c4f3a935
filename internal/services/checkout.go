package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront_back_end/internal/apperr"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/journal"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/store"
)

// CheckoutSettings vient de la configuration.
type CheckoutSettings struct {
	DeliveryPrices map[models.DeliveryMethod]money.Money
	DefaultCountry string
}

type CheckoutService struct {
	store    *store.Store
	journal  journal.Journal
	cache    *cache.Cache
	notifier cache.CartNotifier
	settings CheckoutSettings
	validate *validator.Validate
	log      *zap.Logger
	now      clock
}

func NewCheckoutService(st *store.Store, j journal.Journal, c *cache.Cache, settings CheckoutSettings, log *zap.Logger) *CheckoutService {
	return &CheckoutService{
		store:    st,
		journal:  j,
		cache:    c,
		notifier: c,
		settings: settings,
		validate: newValidator(),
		log:      log,
		now:      utcNow,
	}
}

// newValidator rapporte les champs sous leur nom JSON.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type CheckoutRequest struct {
	SessionKey string
	UserID     *string
	Form       models.CheckoutForm
}

type CheckoutResult struct {
	OrderID     string
	RedirectURL string
	Total       money.Money
}

// soldLine garde de quoi journaliser et invalider après validation.
type soldLine struct {
	movement models.StockMovement
	slug     string
}

// Checkout convertit le panier de la session en commande, une seule fois.
// Commande, lignes, décréments de stock et suppression du panier sont
// validés ensemble ; toute erreur laisse le panier intact.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (res CheckoutResult, err error) {
	ctx, span := tracer.Start(ctx, "checkout", trace.WithAttributes(
		attribute.String("delivery_method", string(req.Form.DeliveryMethod)),
		attribute.String("payment_method", string(req.Form.PaymentMethod)),
	))
	defer func() { endSpan(span, err) }()

	if err := s.validateForm(req.Form); err != nil {
		return CheckoutResult{}, err
	}

	var (
		order models.Order
		sold  []soldLine
	)
	err = s.store.InTx(ctx, func(q *store.Queries) error {
		cart, err := q.GetCartBySession(ctx, req.SessionKey)
		if isNotFound(err) {
			return apperr.New(apperr.EmptyCart, "votre panier est vide")
		}
		if err != nil {
			return err
		}
		items, err := q.ListCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.New(apperr.EmptyCart, "votre panier est vide")
		}

		delivery, ok := models.ParseDeliveryMethod(string(req.Form.DeliveryMethod))
		if !ok {
			return apperr.New(apperr.UnknownDeliveryMethod, "mode de livraison inconnu: %q", req.Form.DeliveryMethod).
				WithField("delivery_method")
		}
		payment, ok := models.ParsePaymentMethod(string(req.Form.PaymentMethod))
		if !ok {
			return apperr.New(apperr.UnknownPaymentMethod, "moyen de paiement inconnu: %q", req.Form.PaymentMethod).
				WithField("payment_method")
		}
		surcharge, ok := s.settings.DeliveryPrices[delivery]
		if !ok {
			return fmt.Errorf("tarif de livraison non configuré pour %s", delivery)
		}

		// revalidation contre le stock courant ; le prix reste celui verrouillé
		products := make([]models.Product, len(items))
		subtotals := make([]money.Money, len(items))
		for i, it := range items {
			p, err := q.GetProduct(ctx, it.ProductID)
			if isNotFound(err) || (err == nil && !p.Active) {
				return apperr.New(apperr.ProductGone, "un produit de votre panier n'est plus disponible").
					WithProduct(it.ProductID, p.Name)
			}
			if err != nil {
				return err
			}
			if it.Quantity > p.Stock {
				return insufficient(p)
			}
			if subtotals[i], err = it.UnitPrice.Times(it.Quantity); err != nil {
				return err
			}
			products[i] = p
		}
		itemsTotal, err := money.Sum(subtotals...)
		if err != nil {
			return err
		}
		total, err := itemsTotal.Add(surcharge)
		if err != nil {
			return err
		}

		now := s.now()
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		order = models.Order{
			ID:             id.String(),
			CartID:         cart.ID,
			UserID:         req.UserID,
			SessionKey:     req.SessionKey,
			Status:         models.StatusPending,
			Contact:        req.Form.ContactInfo,
			Address:        req.Form.ShippingAddress,
			DeliveryMethod: delivery,
			PaymentMethod:  payment,
			DeliveryPrice:  surcharge,
			TotalAmount:    total,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := q.InsertOrder(ctx, order); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				// une autre requête de la même session vient de convertir ce panier
				return apperr.New(apperr.EmptyCart, "votre panier est vide")
			}
			return err
		}

		sold = make([]soldLine, 0, len(items))
		for i, it := range items {
			p := products[i]
			oi := models.OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
				Subtotal:    subtotals[i],
			}
			if err := q.InsertOrderItem(ctx, oi, i+1); err != nil {
				return err
			}
			left, err := q.DecrementStock(ctx, p.ID, it.Quantity, now)
			if errors.Is(err, store.ErrInsufficientStock) {
				return insufficient(p)
			}
			if err != nil {
				return err
			}
			order.Items = append(order.Items, oi)

			var userID string
			if req.UserID != nil {
				userID = *req.UserID
			}
			sold = append(sold, soldLine{
				slug: p.Slug,
				movement: models.StockMovement{
					ID:        gocql.TimeUUID(),
					ProductID: p.ID,
					Type:      models.MovementSale,
					Quantity:  it.Quantity.Int64(),
					PrevStock: left.Int64() + it.Quantity.Int64(),
					NewStock:  left.Int64(),
					Reason:    "checkout",
					OrderID:   order.ID,
					UserID:    userID,
					CreatedAt: now,
				},
			})
		}

		return q.DeleteCart(ctx, cart.ID)
	})
	if err != nil {
		if kind := apperr.KindOf(err); kind != "" {
			s.log.Info("🧾 Checkout refusé", zap.String("kind", string(kind)), zap.Error(err))
			return CheckoutResult{}, err
		}
		s.log.Error("❌ Checkout en échec", zap.Error(err))
		return CheckoutResult{}, storageErr("checkout", err)
	}

	s.afterCommit(ctx, order, sold)
	s.log.Info("✅ Commande créée",
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.String()))

	return CheckoutResult{
		OrderID:     order.ID,
		RedirectURL: "/order-success/" + order.ID,
		Total:       order.TotalAmount,
	}, nil
}

func insufficient(p models.Product) *apperr.Error {
	return apperr.New(apperr.InsufficientStock, "stock insuffisant pour %s (reste %d)", p.Name, p.Stock.Int64()).
		WithProduct(p.ID, p.Name).WithRemaining(p.Stock.Int64())
}

func (s *CheckoutService) validateForm(form models.CheckoutForm) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.New(apperr.ValidationFailed, "champ %s invalide (%s)", fe.Field(), fe.Tag()).WithField(fe.Field())
	}
	return apperr.New(apperr.ValidationFailed, "formulaire invalide")
}

// afterCommit journalise la vente, invalide les fiches produit en cache
// et prévient les onglets ouverts. Rien ici ne peut annuler la commande.
func (s *CheckoutService) afterCommit(ctx context.Context, order models.Order, sold []soldLine) {
	movements := make([]models.StockMovement, len(sold))
	slugs := make([]string, len(sold))
	for i, l := range sold {
		movements[i] = l.movement
		slugs[i] = l.slug
	}
	if s.journal != nil {
		s.journal.RecordMovements(ctx, movements)

		var userID string
		if order.UserID != nil {
			userID = *order.UserID
		}
		s.journal.RecordAudit(ctx, models.AuditLog{
			ID:         gocql.TimeUUID(),
			UserID:     userID,
			UserEmail:  order.Contact.Email,
			Action:     models.ACTION_ORDER_CREATE,
			Resource:   models.RESOURCE_ORDER,
			ResourceID: order.ID,
			NewValue:   string(order.Status),
			Success:    true,
			Timestamp:  order.CreatedAt,
			SessionID:  order.SessionKey,
		})
	}
	if err := s.cache.InvalidateProducts(ctx, slugs...); err != nil {
		s.log.Warn("⚠️ Invalidation cache produits échouée", zap.Error(err))
	}
	notify(ctx, s.notifier, s.log, order.SessionKey, cache.EventCheckedOut)
}

// Defaults pré-remplit le formulaire à partir de la dernière commande de
// l'utilisateur, sinon de son profil.
func (s *CheckoutService) Defaults(ctx context.Context, userID *string) (models.CheckoutForm, error) {
	form := models.CheckoutForm{
		DeliveryMethod: models.DeliveryCourier,
		PaymentMethod:  models.PaymentTransfer,
	}
	form.Country = s.settings.DefaultCountry
	if userID == nil {
		return form, nil
	}

	last, err := s.store.LatestOrderForUser(ctx, *userID)
	switch {
	case err == nil:
		form.ContactInfo = last.Contact
		form.ShippingAddress = last.Address
		form.DeliveryMethod = last.DeliveryMethod
		form.PaymentMethod = last.PaymentMethod
		return form, nil
	case !isNotFound(err):
		return models.CheckoutForm{}, storageErr("dernière commande", err)
	}

	u, err := s.store.GetUser(ctx, *userID)
	if isNotFound(err) {
		return form, nil
	}
	if err != nil {
		return models.CheckoutForm{}, storageErr("lecture utilisateur", err)
	}
	form.Name = u.Name
	form.Email = u.Email
	return form, nil
}

var deliveryLabels = map[models.DeliveryMethod]struct {
	name, description string
	days              int
}{
	models.DeliveryCourier: {"Livraison par coursier", "Livraison à domicile en 1-2 jours ouvrés", 2},
	models.DeliveryLocker:  {"Point relais automatique", "Retrait en consigne en 2-3 jours ouvrés", 3},
	models.DeliveryPickup:  {"Retrait en magasin", "Retrait gratuit sous 24h", 1},
}

// DeliveryOptions liste les modes de livraison avec leur supplément.
func (s *CheckoutService) DeliveryOptions() []models.DeliveryOption {
	options := make([]models.DeliveryOption, 0, len(models.DeliveryMethods))
	for _, m := range models.DeliveryMethods {
		l := deliveryLabels[m]
		options = append(options, models.DeliveryOption{
			ID:            m,
			Name:          l.name,
			Description:   l.description,
			Price:         s.settings.DeliveryPrices[m],
			EstimatedDays: l.days,
		})
	}
	return options
}

// Confirmation retourne une commande passée par cette session ou cet
// utilisateur ; toute autre commande est introuvable.
func (s *CheckoutService) Confirmation(ctx context.Context, orderID, sessionKey string, userID *string) (models.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if isNotFound(err) {
		return models.Order{}, apperr.New(apperr.NotFound, "commande introuvable")
	}
	if err != nil {
		return models.Order{}, storageErr("lecture commande", err)
	}
	ownedBySession := sessionKey != "" && o.SessionKey == sessionKey
	ownedByUser := userID != nil && o.UserID != nil && *o.UserID == *userID
	if !ownedBySession && !ownedByUser {
		return models.Order{}, apperr.New(apperr.NotFound, "commande introuvable")
	}
	if o.Items, err = s.store.ListOrderItems(ctx, o.ID); err != nil {
		return models.Order{}, storageErr("lecture lignes commande", err)
	}
	return o, nil
}
