package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/domain/auth"
	"github.com/yungbote/neurobridge-grading/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

// CallerClaims is what the platform's identity service signs into access tokens.
type CallerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("Middleware", "AuthMiddleware"),
		secret: []byte(secret),
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			abortUnauthorized(c, "missing or invalid token")
			return
		}
		caller, err := am.CallerFromToken(tokenString)
		if err != nil {
			am.log.Debug("rejected token", "error", err)
			abortUnauthorized(c, err.Error())
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// CallerFromToken verifies an HS256 token and turns its subject and role into a Caller.
func (am *AuthMiddleware) CallerFromToken(tokenString string) (auth.Caller, error) {
	if len(am.secret) == 0 {
		return auth.Caller{}, errors.New("token verification is not configured")
	}
	claims := &CallerClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return auth.Caller{}, err
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	var uid uuid.UUID
	if role != auth.RoleSystem {
		uid, err = uuid.Parse(claims.Subject)
		if err != nil {
			return auth.Caller{}, errors.New("token subject is not a user id")
		}
	}
	caller := auth.Caller{UserID: uid, Role: role}
	if !caller.Valid() {
		return auth.Caller{}, errors.New("token carries an unknown role")
	}
	return caller, nil
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": msg, "code": "unauthorized"},
	})
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
