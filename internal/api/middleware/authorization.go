package middleware

import (
	"net/http"
	"strings"

	internaljwt "gameroom/internal/jwt"
)

// ValidateSessionJWT guards lobby endpoints with the anonymous session
// credential issued at login.
func ValidateSessionJWT(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		if _, err := internaljwt.ParseToken(tokenString); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}
