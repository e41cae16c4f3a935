// Package apperr définit les erreurs métier attendues du panier et du
// checkout. Toute autre erreur est considérée comme inattendue (stockage
// indisponible, etc.) et remonte en 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	NotFound              Kind = "not_found"
	Forbidden             Kind = "forbidden"
	ProductUnavailable    Kind = "product_unavailable"
	OutOfStock            Kind = "out_of_stock"
	InsufficientStock     Kind = "insufficient_stock"
	EmptyCart             Kind = "empty_cart"
	ProductGone           Kind = "product_gone"
	UnknownDeliveryMethod Kind = "unknown_delivery_method"
	UnknownPaymentMethod  Kind = "unknown_payment_method"
	ValidationFailed      Kind = "validation_failed"
)

type Error struct {
	Kind        Kind
	Message     string
	ProductID   string
	ProductName string
	Field       string
	// Remaining est la quantité encore ajoutable (stock - déjà dans le panier).
	Remaining *int64
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is compare uniquement le Kind : errors.Is(err, apperr.E(apperr.EmptyCart)).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// E construit une erreur sans détail, utile comme cible pour errors.Is.
func E(kind Kind) *Error {
	return &Error{Kind: kind}
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) WithProduct(id, name string) *Error {
	e.ProductID = id
	e.ProductName = name
	return e
}

func (e *Error) WithRemaining(n int64) *Error {
	e.Remaining = &n
	return e
}

func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// KindOf retourne le Kind d'une erreur métier, ou "" si l'erreur est inattendue.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As extrait l'erreur métier si elle existe.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus donne le code HTTP équivalent d'un Kind.
func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound, ProductUnavailable:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case OutOfStock, InsufficientStock, EmptyCart, ProductGone,
		UnknownDeliveryMethod, UnknownPaymentMethod, ValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
