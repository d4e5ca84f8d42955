package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"task-manager/server/apierror"
	"task-manager/server/logging"
	"task-manager/server/models"
	"task-manager/server/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const bearerPrefix = "Bearer "

// AuthGuard turns an Authorization header into an Identity and checks roles.
type AuthGuard struct {
	tokens *JWTService
	users  UserStore
}

func NewAuthGuard(tokens *JWTService, users UserStore) *AuthGuard {
	return &AuthGuard{tokens: tokens, users: users}
}

// Authenticate verifies the bearer token and re-reads the user it names, so a
// deleted account is rejected even while its token is still valid.
func (g *AuthGuard) Authenticate(ctx context.Context, rawHeader string) (models.Identity, error) {
	if !strings.HasPrefix(rawHeader, bearerPrefix) {
		return models.Identity{}, apierror.Unauthenticated("No token provided")
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(rawHeader, bearerPrefix))
	if tokenStr == "" {
		return models.Identity{}, apierror.Unauthenticated("No token provided")
	}

	claims, err := g.tokens.ParseToken(tokenStr)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return models.Identity{}, apierror.Unauthenticated("Token expired")
	case err != nil:
		return models.Identity{}, apierror.Unauthenticated("Invalid token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Identity{}, apierror.Unauthenticated("Invalid token")
	}

	user, err := g.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		logging.Logger.Warnf("Event ID: AUTH_SUBJECT_MISSING, Description: Valid token for user %s that no longer exists", claims.UserID)
		return models.Identity{}, apierror.Unauthenticated("User no longer exists")
	}
	if err != nil {
		return models.Identity{}, apierror.Internal(err)
	}
	return user.Identity(), nil
}

func (g *AuthGuard) Authorize(identity models.Identity, allowed ...models.Role) error {
	return authorize(identity, allowed...)
}

func authorize(identity models.Identity, allowed ...models.Role) error {
	if !slices.Contains(allowed, identity.Role) {
		return apierror.Forbidden("Not authorized to access this resource")
	}
	return nil
}
