package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the freelancer session carried in the JWT.
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a session JWT for user.
func IssueSessionToken(user users.User, now time.Time) (string, error) {
	cfg := config.App.JWT
	if cfg.Secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	claims := SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// ParseSessionToken validates signature, expiry, issuer and audience.
func ParseSessionToken(raw string) (*SessionClaims, error) {
	cfg := config.App.JWT
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	},
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}

// SetSessionCookie stores the session token as an HttpOnly cookie.
func SetSessionCookie(c *gin.Context, token string) {
	cfg := config.App.JWT
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Cookie, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

func ClearSessionCookie(c *gin.Context) {
	cfg := config.App.JWT
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Cookie, "", -1, "/", "", cfg.Secure, true)
}

// sessionToken reads the cookie first, then a Bearer header.
func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(config.App.JWT.Cookie); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if t := strings.TrimPrefix(h, "Bearer "); t != h {
		return strings.TrimSpace(t)
	}
	return ""
}

// AuthMiddleware resolves the freelancer session and sets user_id, email and role.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.App.JWT.Secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "JWT secret not configured"})
			return
		}
		raw := sessionToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not signed in"})
			return
		}
		claims, err := ParseSessionToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Role not found in session"})
			return
		}
		if value != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}
