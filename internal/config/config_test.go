package config

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWT(t *testing.T) *JWT {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewJWTFromKeys(key, &key.PublicKey, time.Hour)
}

func TestPort(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"", ":8080"},
		{"3000", ":3000"},
		{"127.0.0.1:9000", "127.0.0.1:9000"},
	}
	for _, test := range tests {
		t.Run(test.env, func(t *testing.T) {
			t.Setenv("APP_PORT", test.env)
			assert.Equal(t, test.want, Port())
		})
	}
}

func TestDevelopment(t *testing.T) {
	t.Setenv("DEVELOPMENT", "0")
	assert.False(t, Development())
	t.Setenv("DEVELOPMENT", "1")
	assert.True(t, Development())
}

func TestCorsOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Nil(t, CorsOrigins())

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, CorsOrigins())
}

func TestNewSessions(t *testing.T) {
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_SWEEP_INTERVAL", "")
	t.Setenv("SESSION_DB_PATH", "/tmp/s.db")

	s, err := NewSessions()
	require.NoError(t, err)
	assert.Equal(t, &Sessions{
		DBPath:        "/tmp/s.db",
		TTL:           2 * time.Hour,
		SweepInterval: 10 * time.Minute,
	}, s)

	t.Setenv("SESSION_TTL", "-1s")
	_, err = NewSessions()
	assert.Error(t, err)
}

func TestDbURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://u:p@db:5432/mines")
	url, err := DbURL()
	require.NoError(t, err)
	assert.Equal(t, "postgresql://u:p@db:5432/mines", url)

	db := Database{
		Username: "mines", Password: "p@ss word", Host: "db",
		Port: 5433, DBName: "mines", SSLMode: "disable",
	}
	assert.Equal(t, "postgresql://mines:p%40ss+word@db:5433/mines?sslmode=disable", db.URL())
}

func TestJWTRoundTrip(t *testing.T) {
	j := testJWT(t)

	token, err := j.Sign(NewPlayerClaims(42, "alice", "admin"))
	require.NoError(t, err)

	claims, err := j.ParsePlayerClaims(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.PlayerId)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = testJWT(t).ParsePlayerClaims(token)
	assert.Error(t, err, "token signed by another key")
}

func TestCookiesRoundTrip(t *testing.T) {
	j := testJWT(t)
	t.Setenv("COOKIES_DOMAIN", "localhost")
	cookies, err := NewCookies(j)
	require.NoError(t, err)
	assert.True(t, cookies.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookies.SameSite)

	token, err := j.Sign(NewPlayerClaims(1, "bob", "user"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, cookies.Refresh(rec, token))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	claims, err := cookies.ParsePlayerClaims(req)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Username)

	assert.Error(t, cookies.Refresh(rec, "not-a-token"))
}
