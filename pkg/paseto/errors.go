package pasetotoken

import (
	"errors"
	"fmt"
)

// ErrWrongTokenType is wrapped in ErrInvalidToken when a token verifies but
// was not issued for API access.
var ErrWrongTokenType = errors.New("token is not an access token")

type ErrConfig struct{ Msg string }

func (e ErrConfig) Error() string { return "paseto config error: " + e.Msg }

type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return fmt.Sprintf("invalid token: %v", e.Err) }
func (e ErrInvalidToken) Unwrap() error { return e.Err }
