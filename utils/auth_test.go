package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"visadesk-backend/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: secret, JWTExpiryHours: 1}
	t.Cleanup(func() { config.AppConfig = prev })
}

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(), func(c *gin.Context) {
		agencyID, userID, ok := CurrentAgency(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"agencyId": agencyID, "userId": userID})
	})
	return r
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGenerateToken_MissingSecret(t *testing.T) {
	withSecret(t, "")
	_, err := GenerateToken(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestAuthMiddleware(t *testing.T) {
	withSecret(t, "test-secret")
	userID, agencyID := uuid.New(), uuid.New()

	token, err := GenerateToken(userID.String(), agencyID.String())
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID.String(),
		"agencyId": agencyID.String(),
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID.String(),
		"agencyId": agencyID.String(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	forgedToken, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"cookie", "", token, http.StatusOK},
		{"missing token", "", "", http.StatusUnauthorized},
		{"expired token", "Bearer " + expiredToken, "", http.StatusUnauthorized},
		{"wrong signature", "Bearer " + forgedToken, "", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", "", http.StatusUnauthorized},
	}

	router := protectedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, agencyID.String(), body["agencyId"])
				assert.Equal(t, userID.String(), body["userId"])
			}
		})
	}
}

func TestCurrentAgency_MissingContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, _, ok := CurrentAgency(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParamUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok := ParamUUID(c, "id", "client")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "Invalid client ID format"}`, w.Body.String())

	id := uuid.New()
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := ParamUUID(c, "id", "client")
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestGenerateRandomString(t *testing.T) {
	s := GenerateRandomString(6)
	assert.Len(t, s, 6)
	assert.Regexp(t, `^[A-HJ-NP-Z2-9]{6}$`, s)
}
