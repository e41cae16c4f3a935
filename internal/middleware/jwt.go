package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Clés du contexte gin posées par l'authentification.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

var errNoToken = errors.New("token manquant")

// IssueToken signe un jeton HS256 lisible par AuthRequired / OptionalAuth.
// Les comptes sont gérés par le service d'authentification ; ceci sert aux
// tests et aux outils internes.
func IssueToken(secret []byte, userID, email, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseBearer(c *gin.Context, secret []byte) (jwt.MapClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errNoToken
	}
	if len(secret) == 0 {
		return nil, errors.New("secret JWT non configuré")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("format Authorization invalide")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("token invalide")
	}
	if _, ok := claims["user_id"].(string); !ok {
		return nil, errors.New("user_id manquant")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	c.Set(CtxUserID, claims["user_id"].(string))
	if email, ok := claims["email"].(string); ok {
		c.Set(CtxEmail, email)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set(CtxRole, role)
	}
}

// AuthRequired exige un jeton valide.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide ou manquant"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifie l'utilisateur si un jeton valide est présent ;
// un visiteur anonyme passe, un jeton invalide est refusé.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c, secret)
		switch {
		case errors.Is(err, errNoToken):
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		default:
			setClaims(c, claims)
		}
		c.Next()
	}
}

// UserID retourne l'utilisateur authentifié, ou nil.
func UserID(c *gin.Context) *string {
	id := c.GetString(CtxUserID)
	if id == "" {
		return nil
	}
	return &id
}
