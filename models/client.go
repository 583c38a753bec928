package models

import "time"

// Client is an extension context (popup, background worker, tab) that has paired with the server.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

type LoginRequest struct {
	ClientName string `json:"client_name"`
	Passphrase string `json:"passphrase"`
}

type AuthResponse struct {
	Token  string `json:"token"`
	Client Client `json:"client"`
}

type BlockedPageInfo struct {
	Host  string `json:"host"`
	Quote string `json:"quote"`
}
