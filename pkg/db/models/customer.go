package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Customer identifies the owner of a cart: either an authenticated user or
// an anonymous session. Exactly one of the two fields is set.
type Customer struct {
	UserID    *int64
	SessionID *uuid.UUID
}

// UserCustomer builds a Customer for an authenticated user.
func UserCustomer(userID int64) Customer {
	return Customer{UserID: &userID}
}

// SessionCustomer builds a Customer for an anonymous session.
func SessionCustomer(sessionID uuid.UUID) Customer {
	return Customer{SessionID: &sessionID}
}

// IsUser reports whether the customer is an authenticated user.
func (c Customer) IsUser() bool {
	return c.UserID != nil
}

// IsSession reports whether the customer is an anonymous session.
func (c Customer) IsSession() bool {
	return c.SessionID != nil
}

// IsZero reports whether neither identity is set.
func (c Customer) IsZero() bool {
	return c.UserID == nil && c.SessionID == nil
}

// String implements fmt.Stringer.
func (c Customer) String() string {
	switch {
	case c.UserID != nil:
		return fmt.Sprintf("user:%d", *c.UserID)
	case c.SessionID != nil:
		return fmt.Sprintf("session:%s", c.SessionID.String())
	default:
		return "customer:unset"
	}
}

type customerJSON struct {
	Kind      string     `json:"kind"`
	UserID    *int64     `json:"user_id,omitempty"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Customer) MarshalJSON() ([]byte, error) {
	payload := customerJSON{}
	switch {
	case c.UserID != nil:
		payload.Kind = "user"
		payload.UserID = c.UserID
	case c.SessionID != nil:
		payload.Kind = "anonymous"
		payload.SessionID = c.SessionID
	default:
		return nil, fmt.Errorf("customer has no identity")
	}
	return json.Marshal(payload)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Customer) UnmarshalJSON(data []byte) error {
	var payload customerJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	switch payload.Kind {
	case "user":
		if payload.UserID == nil {
			return fmt.Errorf("user customer requires user_id")
		}
		c.UserID = payload.UserID
		c.SessionID = nil
	case "anonymous":
		if payload.SessionID == nil {
			return fmt.Errorf("anonymous customer requires session_id")
		}
		c.SessionID = payload.SessionID
		c.UserID = nil
	default:
		return fmt.Errorf("unknown customer kind %q", payload.Kind)
	}
	return nil
}
