package models

import "time"

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued by the token manager. Not persisted as a whole: only the
// refresh value is stored on the user row for later comparison.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
