package auth

import "encoding/json"

// Status is the moderation state driving every permission check.
type Status string

const (
	StatusUnauthenticated Status = "UNAUTHENTICATED"
	StatusPending         Status = "PENDING"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
)

// User is the cached profile record. It is replaced wholesale on every
// mutation; no field is ever updated in place.
type User struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Name          string  `json:"name"`
	MiddleName    *string `json:"middleName"`
	LastName      string  `json:"lastName"`
	Image         *string `json:"image"`
	DateOfBirth   *string `json:"DateOfBirth"`
	Age           *int    `json:"age"`
	Address       *string `json:"address"`
	ContactNumber *string `json:"contactNumber"`
	Status        Status  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`

	// Set when the account was created through the OAuth provider.
	OAuthRegistered bool `json:"isAlreadyRegisteredIn0auth"`
}

// decodeUser parses a cached profile, returning nil for anything
// unusable so a corrupt cache behaves like an absent one.
func decodeUser(data []byte) *User {
	if len(data) == 0 {
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil
	}
	if u.ID == 0 {
		return nil
	}
	return &u
}

func encodeUser(u *User) ([]byte, error) {
	return json.Marshal(u)
}
