package session

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Session is the token + user-id pair proving an authenticated client.
// A non-nil Session implies a previously successful authentication.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Valid reports whether the record is usable: both fields present and the
// user id numeric-parseable.
func (s *Session) Valid() bool {
	if s == nil || s.Token == "" || s.UserID == "" {
		return false
	}
	_, err := strconv.ParseInt(s.UserID, 10, 64)
	return err == nil
}

// UserIDInt returns the numeric user id, or 0 for an invalid session.
func (s *Session) UserIDInt() int64 {
	if s == nil {
		return 0
	}
	id, err := strconv.ParseInt(s.UserID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// storedSession tolerates userId arriving as either a JSON string or number.
type storedSession struct {
	Token     string `json:"token"`
	UserID    any    `json:"userId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ParseStored decodes a persisted session value. Two formats are accepted:
// a JSON object carrying token+userId, or a raw bearer-token string whose
// payload is decoded to recover the user id. Anything else is treated as an
// absent session; this function never fails outward.
func ParseStored(raw string) *Session {
	if raw == "" {
		return nil
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err == nil {
		userID := stringifyID(stored.UserID)
		s := &Session{Token: stored.Token, UserID: userID}
		if stored.ExpiresAt > 0 {
			s.ExpiresAt = time.Unix(stored.ExpiresAt, 0)
		}
		if s.Valid() {
			return s
		}
		return nil
	}

	// Legacy format: the raw token itself was stored.
	if strings.HasPrefix(raw, "ey") {
		if s := fromBearerToken(raw); s.Valid() {
			return s
		}
	}

	return nil
}

// fromBearerToken recovers a session from a JWT-shaped token by reading the
// user id out of the payload claims.
func fromBearerToken(token string) *Session {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil
	}

	var claims struct {
		UserID any   `json:"userId"`
		ID     any   `json:"id"`
		Exp    int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}

	userID := stringifyID(claims.UserID)
	if userID == "" {
		userID = stringifyID(claims.ID)
	}

	s := &Session{Token: token, UserID: userID}
	if claims.Exp > 0 {
		s.ExpiresAt = time.Unix(claims.Exp, 0)
	}
	return s
}

func decodeSegment(seg string) ([]byte, error) {
	if data, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(seg)
}

func stringifyID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// Encode serializes a session for storage.
func Encode(s *Session) (string, error) {
	stored := storedSession{Token: s.Token, UserID: s.UserID}
	if !s.ExpiresAt.IsZero() {
		stored.ExpiresAt = s.ExpiresAt.Unix()
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
