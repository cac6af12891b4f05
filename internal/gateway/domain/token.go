package domain

// TokenPair is what the auth endpoints return: a short-lived access token and
// a long-lived refresh token, both JWTs signed with distinct secrets.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType,omitempty"` // always "Bearer"
	ExpiresIn    int64  `json:"expiresIn"`           // seconds until access expiry
}
