package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/domain/auth"
	"github.com/yungbote/neurobridge-grading/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

const testSecret = "grading-test-secret"

func signToken(t *testing.T, secret, subject, role string, exp time.Time) string {
	t.Helper()
	claims := CallerClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func authRouter(t *testing.T, got *auth.Caller) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), testSecret)
	r := gin.New()
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) {
		*got = ctxutil.GetCaller(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuthAttachesCaller(t *testing.T) {
	var got auth.Caller
	r := authRouter(t, &got)
	uid := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, uid.String(), "Teacher", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got.UserID != uid || got.Role != auth.RoleTeacher {
		t.Fatalf("unexpected caller %+v", got)
	}
}

func TestRequireAuthAcceptsQueryToken(t *testing.T) {
	var got auth.Caller
	r := authRouter(t, &got)

	tok := signToken(t, testSecret, "", auth.RoleSystem, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent || !got.IsSystem() {
		t.Fatalf("status=%d caller=%+v", rec.Code, got)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	uid := uuid.New().String()
	cases := map[string]string{
		"missing":      "",
		"wrong secret": signToken(t, "other", uid, auth.RoleTeacher, time.Now().Add(time.Hour)),
		"expired":      signToken(t, testSecret, uid, auth.RoleTeacher, time.Now().Add(-time.Minute)),
		"bad subject":  signToken(t, testSecret, "not-a-uuid", auth.RoleStudent, time.Now().Add(time.Hour)),
		"unknown role": signToken(t, testSecret, uid, "parent", time.Now().Add(time.Hour)),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			var got auth.Caller
			r := authRouter(t, &got)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("want 401, got %d", rec.Code)
			}
			if got.Valid() {
				t.Fatalf("handler should not run, got caller %+v", got)
			}
		})
	}
}
