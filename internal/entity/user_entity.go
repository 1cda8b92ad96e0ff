package entity

import "time"

type User struct {
	Id    int64
	Email string
	Name  string
}

// Session holds identity, credential and subscription validity.
// SubscriptionValid is true only while the backend reports validity AND the
// expiry is strictly in the future; any check failure forces it false.
type Session struct {
	User               *User
	Token              string
	SubscriptionValid  bool
	SubscriptionExpiry *time.Time
	Loading            bool
}

func (s Session) Authenticated() bool {
	return s.User != nil && s.Token != ""
}
