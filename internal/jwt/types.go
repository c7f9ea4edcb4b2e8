package jwt

// Identity is what a verified credential resolves to: the anonymous
// player id minted at login.
type Identity struct {
	UserID string `json:"id"`
	AppID  string `json:"appId"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
