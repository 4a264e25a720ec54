package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"drachma/internal/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupUserContextRouter() *gin.Engine {
	r := gin.New()
	r.Use(UserContext())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})
	return r
}

func doRequest(r *gin.Engine, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserContext(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		wantStatus int
	}{
		{"valid_uuid", uuid.New(), http.StatusOK},
		{"missing_header", "", http.StatusUnauthorized},
		{"malformed_id", "not-a-uuid", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(setupUserContextRouter(), tt.userID)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var result map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
				t.Fatalf("failed to parse response body: %v", err)
			}
			if result["user_id"] != tt.userID {
				t.Errorf("expected user id %q on the context, got %q", tt.userID, result["user_id"])
			}
		})
	}
}
