package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	SessionName   = "storefront_session"
	sessionKeyVal = "session_key"
	CtxSessionKey = "session_key"
)

// NewCookieStore : cookie de session du panier, 30 jours.
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session garantit qu'un visiteur porte une clé de session stable.
// La clé est générée à la première visite puis renvoyée dans le cookie.
func Session(store sessions.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionName)
		if err != nil {
			// cookie illisible (secret changé) : on repart d'une session neuve
			log.Debug("🍪 Cookie de session invalide", zap.Error(err))
		}
		if sess == nil {
			sess = sessions.NewSession(store, SessionName)
		}

		key, _ := sess.Values[sessionKeyVal].(string)
		if key == "" {
			key = uuid.NewString()
			sess.Values[sessionKeyVal] = key
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Error("❌ Erreur sauvegarde session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Session indisponible"})
				return
			}
		}

		c.Set(CtxSessionKey, key)
		c.Next()
	}
}

func SessionKey(c *gin.Context) string {
	return c.GetString(CtxSessionKey)
}
