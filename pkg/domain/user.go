package domain

import "time"

// User is an account on the time-tracking backend.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Name      string    `json:"name" yaml:"name"`
	PhotoURL  string    `json:"photo_url,omitempty" yaml:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthToken is the response of a successful token exchange.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// Registration is the result of creating an account. Some backends hand out
// a token together with the new user; Token is nil when they don't.
type Registration struct {
	User  User
	Token *AuthToken
}
