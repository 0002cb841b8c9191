package middleware

import (
	"strings"

	"iceberg_backend/internal/auth"
	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/repositories"
	"iceberg_backend/pkg/apperrors"
	"iceberg_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware проверяет access-токен: подпись, срок, тип и черный
// список. Роль берется из БД, а не из claims: смена роли действует
// немедленно, не дожидаясь истечения старого токена.
func AuthMiddleware(tokens *auth.TokenIssuer, revokedRepo repositories.RevokedTokenRepository, userRepo repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, apperrors.ErrUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.ParseAccessToken(tokenStr)
		if err != nil {
			if apperrors.Is(err, auth.ErrTokenExpired) {
				abortUnauthorized(c, apperrors.ErrTokenExpired)
				return
			}
			abortUnauthorized(c, apperrors.ErrInvalidToken)
			return
		}

		db := dbFromContext(c)

		revoked, err := revokedRepo.IsRevoked(db, tokenStr)
		if err != nil {
			logger.CtxWithError(c.Request.Context(), err, "blacklist check failed")
			apperrors.HandleError(c, apperrors.InternalError(err))
			c.Abort()
			return
		}
		if revoked {
			abortUnauthorized(c, apperrors.ErrTokenRevoked)
			return
		}

		user, err := userRepo.FindByID(db, claims.UserID)
		if err != nil {
			abortUnauthorized(c, apperrors.ErrInvalidToken)
			return
		}

		ctx := logger.WithUserID(c.Request.Context(), user.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("userID", user.ID)
		c.Set("role", user.Role)
		c.Set("accessToken", tokenStr)
		c.Next()
	}
}

// RequireRoles пропускает только перечисленные роли
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists {
			apperrors.HandleError(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		role, ok := roleVal.(models.UserRole)
		if !ok {
			roleStr, isString := roleVal.(string)
			if !isString {
				apperrors.HandleError(c, apperrors.ErrForbidden)
				c.Abort()
				return
			}
			role = models.UserRole(roleStr)
		}

		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}

	id, ok := userID.(string)
	if !ok {
		return ""
	}

	return id
}

// GetAccessToken извлекает сырой access-токен из контекста
func GetAccessToken(c *gin.Context) string {
	token, exists := c.Get("accessToken")
	if !exists {
		return ""
	}
	str, ok := token.(string)
	if !ok {
		return ""
	}
	return str
}

func abortUnauthorized(c *gin.Context, err *apperrors.AppError) {
	apperrors.HandleError(c, err)
	c.Abort()
}

// dbFromContext достает *gorm.DB, положенный DBMiddleware
func dbFromContext(c *gin.Context) *gorm.DB {
	val, ok := c.Get(string(contextkeys.DBContextKey))
	if !ok {
		panic("critical error: DBMiddleware did not set the db key")
	}
	db, ok := val.(*gorm.DB)
	if !ok {
		panic("critical error: db in context has incorrect type")
	}
	return db
}
