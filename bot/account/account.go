// Package account talks to the remote account service: identity login and
// balance lookup.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnauthorized means the service rejected the credential (HTTP 401).
var ErrUnauthorized = errors.New("account: unauthorized")

// LoginRequest carries the identity collected during onboarding.
type LoginRequest struct {
	DisplayName string `json:"displayName"`
	PhoneNumber string `json:"phoneNumber"`
	Birthday    string `json:"birthday"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Balance is the account summary shown to authenticated users. Numbers are
// kept as sent so they render without float noise.
type Balance struct {
	Balance           json.Number `json:"balance"`
	MerchantName      string      `json:"merchantName"`
	LoyaltyPercentage json.Number `json:"loyaltyPercentage"`
}

// StatusError reports a non-2xx answer other than 401.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("account %s: http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("account %s: http %d: %s", e.Op, e.Status, e.Body)
}

// Code feeds the err_code log attribute.
func (e *StatusError) Code() string {
	return "ACCOUNT_HTTP_" + strconv.Itoa(e.Status)
}
