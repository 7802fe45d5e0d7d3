// utils/auth.go
package utils

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"visadesk-backend/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	ContextUserID   = "userId"
	ContextAgencyID = "agencyId"
)

var ErrMissingSecret = errors.New("JWT_SECRET not set")

// Hash password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// Check password
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken signs a session token for a staff user of an agency
func GenerateToken(userID, agencyID string) (string, error) {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		return "", ErrMissingSecret
	}

	expiryHours := config.AppConfig.JWTExpiryHours
	if expiryHours <= 0 {
		expiryHours = 24
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID,
		"agencyId": agencyID,
		"exp":      now.Add(time.Duration(expiryHours) * time.Hour).Unix(),
		"iat":      now.Unix(),
	})

	return token.SignedString([]byte(secret))
}

// Auth middleware
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			if cookie, err := c.Cookie("token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		if len(tokenString) > 7 && strings.EqualFold(tokenString[0:6], "BEARER") {
			tokenString = tokenString[7:]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(config.AppConfig.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		userID, _ := claims["sub"].(string)
		agencyID, _ := claims["agencyId"].(string)
		if userID == "" || agencyID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextAgencyID, agencyID)
		c.Next()
	}
}

// CurrentAgency reads the authenticated agency and user ids from the context.
// It writes the error response itself and returns ok=false when they are missing.
func CurrentAgency(c *gin.Context) (agencyID, userID uuid.UUID, ok bool) {
	rawAgency, exists := c.Get(ContextAgencyID)
	if !exists {
		RespondWithError(c, http.StatusUnauthorized, "Agency ID not found in context")
		return uuid.Nil, uuid.Nil, false
	}
	agencyID, err := uuid.Parse(rawAgency.(string))
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, "Invalid agency ID format")
		return uuid.Nil, uuid.Nil, false
	}

	if rawUser, exists := c.Get(ContextUserID); exists {
		userID, _ = uuid.Parse(rawUser.(string))
	}
	return agencyID, userID, true
}

// ParamUUID parses a path parameter, answering 400 when it is not a UUID
func ParamUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
