package store

import "fmt"

// ValidationError is a local precondition failure (duplicate name, empty
// message, non-PDF file). It never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubscriptionRequired is a feature-gate refusal, issued before any network
// call. Expired distinguishes a lapsed entitlement from a missing one so the
// caller can word the prompt accordingly.
type SubscriptionRequired struct {
	Expired bool
}

func (e *SubscriptionRequired) Error() string {
	if e.Expired {
		return "subscription has expired, renew to access this feature"
	}
	return "a valid subscription is required for this feature"
}

// PartialFailure marks a multi-step operation where an earlier step succeeded
// and a later one failed. It must stay distinguishable from total failure so
// the user can be told exactly what to retry.
type PartialFailure struct {
	Succeeded string
	Failed    string
	Err       error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s, but %s failed: %v", e.Succeeded, e.Failed, e.Err)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}
