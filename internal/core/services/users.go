package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
)

// Ensure UserService implements the interface.
var _ driving.UserService = (*UserService)(nil)

// UserService routes profile lookups to the directory of each forum instance.
type UserService struct {
	directories map[string]driven.UserDirectory
}

// NewUserService creates a user service over per-instance directories.
func NewUserService(directories map[string]driven.UserDirectory) *UserService {
	return &UserService{directories: directories}
}

// UserProfile returns a user's profile on a forum instance.
func (s *UserService) UserProfile(ctx context.Context, instanceID, username string) (*domain.UserProfile, error) {
	dir, ok := s.directories[instanceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownInstance, instanceID)
	}
	return dir.UserProfile(ctx, username)
}
