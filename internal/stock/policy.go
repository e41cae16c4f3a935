// Package stock contient la règle de réservation "souple" : on ne bloque
// jamais de stock à l'avance, on refuse seulement ce qui dépasse le stock
// actuellement disponible. Indicative lors des mutations du panier,
// elle fait foi au moment du checkout.
package stock

import "storefront_back_end/internal/money"

// MaxAddable retourne la quantité encore ajoutable par ce panier.
func MaxAddable(current, heldByCart money.Quantity) money.Quantity {
	return current.SubFloor(heldByCart)
}

// CanSatisfy indique si requested unités peuvent s'ajouter à heldByCart.
func CanSatisfy(requested, current, heldByCart money.Quantity) bool {
	return requested <= MaxAddable(current, heldByCart)
}
