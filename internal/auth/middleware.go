package auth

import (
	"net/http"
	"time"
)

// SessionRefresh reissues the session cookie once it is past half of its
// lifetime. It never rejects a request; operations authorize themselves.
func (h *AuthHandler) SessionRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
			h.refresh(w, cookie.Value)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, tokenString string) {
	claims, err := h.parseToken(tokenString)
	if err != nil {
		return
	}
	adminID, ok := claims["admin_id"].(float64)
	if !ok {
		return
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return
	}

	remaining := time.Unix(int64(exp), 0).Sub(h.now())
	if remaining >= TokenDuration/2 {
		return
	}

	newToken, err := h.GenerateToken(uint(adminID))
	if err != nil {
		return
	}
	cookie := h.sessionCookie(newToken)
	http.SetCookie(w, &cookie)
}
