package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/config"
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/utils"
)

// CasdoorAuthMiddleware authenticates requests against Casdoor issued tokens
// and mirrors the user into the local users table
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	logger   utils.Logger
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Application,
		cfg.Organization,
	)

	return &CasdoorAuthMiddleware{
		client:   client,
		userRepo: userRepo,
		logger:   logger,
	}
}

// AuthMiddleware validates the bearer token and sets the user in the context
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed authorization header",
			})
			c.Abort()
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
				Details: err.Error(),
			})
			c.Abort()
			return
		}

		user, err := cam.resolveUser(c.Request.Context(), claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Failed to resolve user",
				Details: err.Error(),
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)

		c.Next()
	}
}

// RequireRoleMiddleware gates a route group by role. Admin passes every gate.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "User role not found in context",
			})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Invalid user role format",
			})
			c.Abort()
			return
		}

		allowed := role == models.RoleAdmin
		for _, required := range requiredRoles {
			if role == required {
				allowed = true
				break
			}
		}
		if !allowed {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: fmt.Sprintf("Insufficient permissions, required role: %v", requiredRoles),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// resolveUser mirrors the token's user into the local table. The mirror is
// refreshed on every authenticated request so role changes in Casdoor take
// effect without a redeploy.
func (cam *CasdoorAuthMiddleware) resolveUser(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	user := userFromClaims(claims)
	if user == nil {
		return nil, fmt.Errorf("token carries no user id")
	}

	if err := cam.userRepo.Upsert(ctx, nil, user); err != nil {
		cam.logger.Warn("failed to mirror user", "user_id", user.ID, "error", err)

		stored, lookupErr := cam.userRepo.GetByID(ctx, nil, user.ID)
		if lookupErr != nil {
			return nil, fmt.Errorf("user mirror unavailable: %w", err)
		}
		return stored, nil
	}

	return user, nil
}

func userFromClaims(claims *casdoorsdk.Claims) *models.User {
	if claims.Id == "" {
		return nil
	}

	avatar := claims.User.Avatar
	user := &models.User{
		ID:    claims.Id,
		Name:  claims.User.DisplayName,
		Email: claims.User.Email,
		Role:  mapCasdoorRole(claims.User.Type),
	}
	if avatar != "" {
		user.Avatar = &avatar
	}
	return user
}

func mapCasdoorRole(casdoorType string) models.UserRole {
	switch strings.ToLower(casdoorType) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "editor", "author", "content-editor":
		return models.RoleEditor
	default:
		return models.RoleStudent
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// GetUserFromContext extracts the authenticated user from the Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}
	return userModel, nil
}
