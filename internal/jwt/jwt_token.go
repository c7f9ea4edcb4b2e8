package jwt

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const anonymousTokenTTL = 24 * time.Hour

var (
	mu     sync.RWMutex
	secret []byte
)

// SetSecret installs the HS256 signing secret. Called once from main
// with USER_SECRET; tests install their own.
func SetSecret(s []byte) {
	mu.Lock()
	defer mu.Unlock()
	secret = append([]byte(nil), s...)
}

func signingSecret() ([]byte, error) {
	mu.RLock()
	defer mu.RUnlock()
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt: signing secret not configured")
	}
	return secret, nil
}

// CreateAnonymousToken mints a credential for a fresh anonymous player
// id. The credential is opaque to clients; they cache it and present
// it when opening connections.
func CreateAnonymousToken(appID string) (string, Identity, error) {
	sec, err := signingSecret()
	if err != nil {
		return "", Identity{}, err
	}

	identity := Identity{
		UserID: uuid.NewString(),
		AppID:  appID,
	}

	claims := jwt.MapClaims{
		"id":    identity.UserID,
		"appId": identity.AppID,
		"exp":   time.Now().Add(anonymousTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(sec)
	if err != nil {
		return "", Identity{}, err
	}

	return tokenString, identity, nil
}

// ParseToken verifies a credential and returns the identity it carries.
func ParseToken(tokenString string) (Identity, error) {
	if len(tokenString) == 0 {
		return Identity{}, fmt.Errorf("token string is empty")
	}

	sec, err := signingSecret()
	if err != nil {
		return Identity{}, err
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return sec, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("claims of unauthorized type")
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		return Identity{}, fmt.Errorf("token missing player id")
	}
	appID, _ := claims["appId"].(string)

	return Identity{UserID: userID, AppID: appID}, nil
}
