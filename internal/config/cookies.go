package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Cookies splits a token between a script-readable "auth" cookie holding the
// header and payload and an http-only "sign" cookie holding the signature.
type Cookies struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	jwt      *JWT
}

func NewCookies(jwt *JWT) (*Cookies, error) {
	domain, ok := os.LookupEnv("COOKIES_DOMAIN")
	if !ok {
		return nil, fmt.Errorf("COOKIES_DOMAIN env variable is not set")
	}

	secure := lookupEnvOr("COOKIES_SECURE", "1") != "0"

	sameSite := http.SameSiteStrictMode
	switch strings.ToUpper(lookupEnvOr("COOKIES_SAMESITE", "STRICT")) {
	case "DEFAULT":
		sameSite = http.SameSiteDefaultMode
	case "LAX":
		sameSite = http.SameSiteLaxMode
	case "STRICT":
		sameSite = http.SameSiteStrictMode
	case "NONE":
		sameSite = http.SameSiteNoneMode
	}

	cookies := &Cookies{
		Domain:   domain,
		Secure:   secure,
		SameSite: sameSite,
		jwt:      jwt,
	}

	return cookies, nil
}

func (c *Cookies) set(w http.ResponseWriter, name, value string, httpOnly bool, expires time.Time, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/",
		Value:    value,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	c.set(w, "auth", "delete", false, time.Time{}, -1)
	c.set(w, "sign", "delete", true, time.Time{}, -1)
}

func (c *Cookies) Refresh(w http.ResponseWriter, token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("malformed JWT token generated")
	}
	header, payload, signature := parts[0], parts[1], parts[2]
	expires := time.Now().Add(c.jwt.tokenLifetime)
	c.set(w, "auth", header+"."+payload, false, expires, 0)
	c.set(w, "sign", signature, true, expires, 0)
	return nil
}

func (c *Cookies) ParsePlayerClaims(r *http.Request) (*PlayerClaims, error) {
	authCookie, err := r.Cookie("auth")
	if err != nil {
		return nil, err
	}
	signCookie, err := r.Cookie("sign")
	if err != nil {
		return nil, err
	}
	return c.jwt.ParsePlayerClaims(authCookie.Value + "." + signCookie.Value)
}
