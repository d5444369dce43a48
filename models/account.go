package models

import "time"

// Well known provider ids written by the identity provider.
const (
	ProviderCredential = "credential"
	ProviderGoogle     = "google"
)

// Account links a user to one authentication method.
type Account struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	AccountID  string    `json:"accountId"`
	ProviderID string    `json:"providerId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AuthMethod is the public view of a linked account.
type AuthMethod struct {
	ProviderID string    `json:"providerId"`
	CreatedAt  time.Time `json:"createdAt"`
}
