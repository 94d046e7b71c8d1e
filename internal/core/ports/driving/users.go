package driving

import (
	"context"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// UserService looks up forum user profiles.
type UserService interface {
	// UserProfile returns a user's profile on a forum instance.
	// Returns domain.ErrUnknownInstance if the instance is not a configured forum.
	UserProfile(ctx context.Context, instanceID, username string) (*domain.UserProfile, error)
}
