// Package secretstore persists the session's access and refresh tokens.
package secretstore

import (
	"context"
	"errors"
)

// Keys under which the tokens are stored.
const (
	KeyAccessToken  = "jwt_token"
	KeyRefreshToken = "refresh_token"
)

var (
	ErrNotFound = errors.New("no stored credentials")
	ErrDecrypt  = errors.New("stored secret cannot be decrypted")
)

type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Store is implemented by every backend. Save writes both tokens atomically and
// Clear is idempotent.
type Store interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
}
