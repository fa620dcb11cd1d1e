package permissions

import (
	"fmt"

	"github.com/fsonnyboy/medcare/internal/auth"
)

// Denial classifies why a gated action is unavailable. The three causes
// call for different user actions (wait, contact support, wait for reset),
// so they are never collapsed into a generic "forbidden".
type Denial string

const (
	DenialNone         Denial = ""
	DenialPending      Denial = "pending"
	DenialRejected     Denial = "rejected"
	DenialLimitReached Denial = "limit_reached"
	DenialSignedOut    Denial = "signed_out"
)

// ExplainRequestDenial reports why CanRequestMedicine is false right now,
// or DenialNone with an empty message when it is allowed.
func (e *Engine) ExplainRequestDenial() (Denial, string) {
	switch e.UserStatus() {
	case auth.StatusUnauthenticated:
		return DenialSignedOut, "Please sign in to request medicine."
	case auth.StatusPending:
		return DenialPending, "Your account is pending approval. You can request medicine once an administrator approves it."
	case auth.StatusRejected:
		return DenialRejected, "Your account was not approved. Please contact support for assistance."
	}

	if !e.CanMakeRequestThisMonth() {
		if info := e.RequestLimits(); info != nil {
			return DenialLimitReached, RequestLimitMessage(*info)
		}
		return DenialLimitReached, "Request limits are still loading. Please try again in a moment."
	}

	return DenialNone, ""
}

// ExplainCartDenial reports why CanAddToCart is false right now.
func (e *Engine) ExplainCartDenial() (Denial, string) {
	switch e.UserStatus() {
	case auth.StatusUnauthenticated:
		return DenialSignedOut, "Please sign in to add items to your cart."
	case auth.StatusPending:
		return DenialPending, "Your account is pending approval. You can add items to your cart once approved."
	case auth.StatusRejected:
		return DenialRejected, "Your account was not approved. Please contact support for assistance."
	}
	return DenialNone, ""
}

// RequestLimitMessage renders a user-facing summary of the quota snapshot.
func RequestLimitMessage(info RequestLimitInfo) string {
	if info.CanMakeRequest {
		return fmt.Sprintf("You can make %d more request(s) this month.", info.RemainingRequests)
	}
	if info.CurrentCount >= MaxRequestsPerMonth {
		return fmt.Sprintf(
			"You have reached your monthly limit of %d requests. Limit resets on %s.",
			info.MaxAllowed, info.ResetDate.Format("Jan 2, 2006"),
		)
	}
	return "You have reached the maximum number of approved requests."
}
