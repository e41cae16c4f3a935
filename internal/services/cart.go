package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront_back_end/internal/apperr"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/stock"
	"storefront_back_end/internal/store"
)

type CartService struct {
	store    *store.Store
	notifier cache.CartNotifier
	log      *zap.Logger
	now      clock
}

func NewCartService(st *store.Store, notifier cache.CartNotifier, log *zap.Logger) *CartService {
	return &CartService{store: st, notifier: notifier, log: log, now: utcNow}
}

// GetOrCreateCart retourne le panier ouvert de la session, en le créant au
// besoin. Un utilisateur connecté adopte un panier encore anonyme.
func (s *CartService) GetOrCreateCart(ctx context.Context, sessionKey string, userID *string) (models.Cart, error) {
	if sessionKey == "" {
		return models.Cart{}, apperr.New(apperr.ValidationFailed, "session absente").WithField("session")
	}
	now := s.now()
	if err := s.store.CreateCartIfMissing(ctx, uuid.NewString(), sessionKey, userID, now); err != nil {
		return models.Cart{}, storageErr("création panier", err)
	}
	cart, err := s.store.GetCartBySession(ctx, sessionKey)
	if err != nil {
		return models.Cart{}, storageErr("lecture panier", err)
	}

	if userID != nil && cart.UserID == nil {
		if err := s.store.AttachCartUser(ctx, cart.ID, *userID, now); err != nil {
			return models.Cart{}, storageErr("rattachement panier", err)
		}
		cart.UserID = userID
	}

	if cart.Items, err = s.store.ListCartItems(ctx, cart.ID); err != nil {
		return models.Cart{}, storageErr("lecture lignes panier", err)
	}
	return cart, nil
}

// AddItem ajoute qty unités du produit au panier au prix courant, ou
// incrémente la ligne existante (le prix déjà verrouillé est conservé).
func (s *CartService) AddItem(ctx context.Context, cart models.Cart, productID string, qty money.Quantity) (item models.CartItem, err error) {
	ctx, span := tracer.Start(ctx, "cart.add_item", trace.WithAttributes(
		attribute.String("cart.id", cart.ID),
		attribute.String("product.id", productID),
		attribute.Int64("quantity", qty.Int64()),
	))
	defer func() { endSpan(span, err) }()

	if qty < 1 {
		return models.CartItem{}, apperr.New(apperr.ValidationFailed, "la quantité doit être au moins 1").WithField("quantity")
	}

	// une seule relance : deux ajouts simultanés du même produit par la même
	// session se heurtent à UNIQUE(cart_id, product_id)
	for attempt := 0; ; attempt++ {
		item, err = s.addItemTx(ctx, cart, productID, qty)
		if errors.Is(err, store.ErrDuplicate) && attempt == 0 {
			continue
		}
		break
	}
	if err != nil {
		if apperr.KindOf(err) != "" {
			s.log.Info("🛒 Ajout refusé", zap.String("product_id", productID), zap.Error(err))
		}
		return models.CartItem{}, storageErr("ajout au panier", err)
	}

	notify(ctx, s.notifier, s.log, cart.SessionKey, cache.EventUpdated)
	return item, nil
}

func (s *CartService) addItemTx(ctx context.Context, cart models.Cart, productID string, qty money.Quantity) (models.CartItem, error) {
	var item models.CartItem
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		p, err := q.GetProduct(ctx, productID)
		if isNotFound(err) || (err == nil && !p.Active) {
			return apperr.New(apperr.ProductUnavailable, "produit indisponible").WithProduct(productID, p.Name)
		}
		if err != nil {
			return err
		}
		if p.Stock == 0 {
			return apperr.New(apperr.OutOfStock, "%s est en rupture de stock", p.Name).
				WithProduct(p.ID, p.Name).WithRemaining(0)
		}

		existing, err := q.FindCartItem(ctx, cart.ID, p.ID)
		found := err == nil
		if err != nil && !isNotFound(err) {
			return err
		}

		var held money.Quantity
		if found {
			held = existing.Quantity
		}
		if !stock.CanSatisfy(qty, p.Stock, held) {
			return notEnoughLeft(p, held)
		}

		now := s.now()
		if found {
			// incrément en base : deux ajouts concurrents s'additionnent
			total, err := q.IncrementCartItemQuantity(ctx, existing.ID, qty, p.Stock)
			if errors.Is(err, store.ErrInsufficientStock) {
				// un ajout concurrent est passé entre la lecture et l'incrément
				fresh, ferr := q.FindCartItem(ctx, cart.ID, p.ID)
				if ferr != nil {
					return ferr
				}
				return notEnoughLeft(p, fresh.Quantity)
			}
			if err != nil {
				return err
			}
			existing.Quantity = total
			item = existing
		} else {
			item = models.CartItem{
				ID:        uuid.NewString(),
				CartID:    cart.ID,
				ProductID: p.ID,
				UnitPrice: p.Price,
				Quantity:  qty,
				CreatedAt: now,
			}
			if err := q.InsertCartItem(ctx, item); err != nil {
				return err
			}
		}
		return q.TouchCart(ctx, cart.ID, now)
	})
	return item, err
}

func notEnoughLeft(p models.Product, held money.Quantity) *apperr.Error {
	left := stock.MaxAddable(p.Stock, held)
	return apperr.New(apperr.InsufficientStock, "il ne reste que %d exemplaire(s) de %s", left.Int64(), p.Name).
		WithProduct(p.ID, p.Name).WithRemaining(left.Int64())
}

// SetQuantity remplace la quantité d'une ligne du panier de la session.
// 0 supprime la ligne.
func (s *CartService) SetQuantity(ctx context.Context, itemID string, qty money.Quantity, sessionKey string) (view models.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.set_quantity", trace.WithAttributes(
		attribute.String("cart_item.id", itemID),
		attribute.Int64("quantity", qty.Int64()),
	))
	defer func() { endSpan(span, err) }()

	var cartID string
	err = s.store.InTx(ctx, func(q *store.Queries) error {
		item, owner, err := q.GetCartItem(ctx, itemID)
		if isNotFound(err) {
			return apperr.New(apperr.NotFound, "article introuvable")
		}
		if err != nil {
			return err
		}
		if owner != sessionKey {
			return apperr.New(apperr.Forbidden, "cet article n'appartient pas à votre panier")
		}
		cartID = item.CartID

		if qty == 0 {
			if err := q.DeleteCartItem(ctx, item.ID); err != nil {
				return err
			}
			return q.TouchCart(ctx, item.CartID, s.now())
		}

		p, err := q.GetProduct(ctx, item.ProductID)
		if isNotFound(err) || (err == nil && !p.Active) {
			return apperr.New(apperr.ProductUnavailable, "produit indisponible").WithProduct(item.ProductID, p.Name)
		}
		if err != nil {
			return err
		}
		if p.Stock == 0 {
			return apperr.New(apperr.OutOfStock, "%s est en rupture de stock", p.Name).
				WithProduct(p.ID, p.Name).WithRemaining(0)
		}
		// quantité absolue : la ligne elle-même ne compte pas comme déjà détenue
		if !stock.CanSatisfy(qty, p.Stock, 0) {
			return apperr.New(apperr.InsufficientStock, "il ne reste que %d exemplaire(s) de %s", p.Stock.Int64(), p.Name).
				WithProduct(p.ID, p.Name).WithRemaining(p.Stock.Int64())
		}

		if err := q.SetCartItemQuantity(ctx, item.ID, qty); err != nil {
			return err
		}
		return q.TouchCart(ctx, item.CartID, s.now())
	})
	if err != nil {
		return models.CartView{}, storageErr("mise à jour quantité", err)
	}

	notify(ctx, s.notifier, s.log, sessionKey, cache.EventUpdated)
	return s.renderCartID(ctx, cartID)
}

// RemoveItem supprime une ligne du panier de la session.
func (s *CartService) RemoveItem(ctx context.Context, itemID, sessionKey string) error {
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		item, owner, err := q.GetCartItem(ctx, itemID)
		if isNotFound(err) {
			return apperr.New(apperr.NotFound, "article introuvable")
		}
		if err != nil {
			return err
		}
		if owner != sessionKey {
			return apperr.New(apperr.Forbidden, "cet article n'appartient pas à votre panier")
		}
		if err := q.DeleteCartItem(ctx, item.ID); err != nil {
			return err
		}
		return q.TouchCart(ctx, item.CartID, s.now())
	})
	if err != nil {
		return storageErr("suppression article", err)
	}
	notify(ctx, s.notifier, s.log, sessionKey, cache.EventUpdated)
	return nil
}

// Clear supprime le panier de la session ; sans panier, ne fait rien.
func (s *CartService) Clear(ctx context.Context, sessionKey string) error {
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		cart, err := q.GetCartBySession(ctx, sessionKey)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		return q.DeleteCart(ctx, cart.ID)
	})
	if err != nil {
		return storageErr("vidage panier", err)
	}
	notify(ctx, s.notifier, s.log, sessionKey, cache.EventCleared)
	return nil
}

// RenderCart construit la vue du panier de la session ; un panier absent
// donne une vue vide.
func (s *CartService) RenderCart(ctx context.Context, sessionKey string) (models.CartView, error) {
	cart, err := s.store.GetCartBySession(ctx, sessionKey)
	if isNotFound(err) {
		return models.EmptyCartView(), nil
	}
	if err != nil {
		return models.CartView{}, storageErr("lecture panier", err)
	}
	return s.renderCartID(ctx, cart.ID)
}

func (s *CartService) renderCartID(ctx context.Context, cartID string) (models.CartView, error) {
	if cartID == "" {
		return models.EmptyCartView(), nil
	}
	lines, err := s.store.ListCartLines(ctx, cartID)
	if err != nil {
		return models.CartView{}, storageErr("lecture lignes panier", err)
	}
	view, err := renderLines(lines)
	if err != nil {
		return models.CartView{}, storageErr("calcul panier", err)
	}
	view.CartID = cartID
	return view, nil
}

// renderLines calcule sous-totaux et total au prix verrouillé.
func renderLines(lines []models.CartLine) (models.CartView, error) {
	view := models.EmptyCartView()
	for _, l := range lines {
		sub, err := l.UnitPrice.Times(l.Quantity)
		if err != nil {
			return models.CartView{}, err
		}
		l.Subtotal = sub
		if view.Total, err = view.Total.Add(sub); err != nil {
			return models.CartView{}, err
		}
		view.Count += int(l.Quantity)
		view.Items = append(view.Items, l)
	}
	return view, nil
}
