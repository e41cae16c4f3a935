package models

import "time"

// User est géré par la partie authentification ; on ne fait que le lire
// (nom pour la liste admin, pré-remplissage du formulaire de commande).
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
}
