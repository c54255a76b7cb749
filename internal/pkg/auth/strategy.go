package auth

import (
	"time"

	"github.com/polkiloo/marketplace/internal/domain/model"
)

// Identity is the authenticated principal carried by a token.
type Identity struct {
	UserID int64
	Role   model.Role
}

type Strategy interface {
	IssueToken(identity Identity) (string, error)
	ParseToken(token string) (Identity, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
