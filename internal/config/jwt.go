package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWT struct {
	publicKey     *rsa.PublicKey
	privateKey    *rsa.PrivateKey
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

type PlayerClaims struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewPlayerClaims(playerId int64, username, role string) *PlayerClaims {
	return &PlayerClaims{
		PlayerId: playerId,
		Username: username,
		Role:     role,
	}
}

func loadPrivateKey() (*rsa.PrivateKey, error) {
	privateKeyStr, ok := os.LookupEnv("JWT_PRIVATE_KEY")
	if ok {
		return jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyStr))
	}
	privateKeyPath, ok := os.LookupEnv("JWT_PRIVATE_KEY_FILE")
	if !ok {
		return nil, fmt.Errorf("no JWT_PRIVATE_KEY or JWT_PRIVATE_KEY_FILE env variable set")
	}
	privateKeyBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read JWT private key: %w", err)
	}
	return jwt.ParseRSAPrivateKeyFromPEM(privateKeyBytes)
}

func loadPublicKey() (*rsa.PublicKey, error) {
	publicKeyStr, ok := os.LookupEnv("JWT_PUBLIC_KEY")
	if ok {
		return jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyStr))
	}
	publicKeyPath, ok := os.LookupEnv("JWT_PUBLIC_KEY_FILE")
	if !ok {
		return nil, fmt.Errorf("no JWT_PUBLIC_KEY or JWT_PUBLIC_KEY_FILE env variable set")
	}
	publicKeyBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read JWT public key: %w", err)
	}
	return jwt.ParseRSAPublicKeyFromPEM(publicKeyBytes)
}

func NewJWT() (*JWT, error) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return nil, err
	}

	publicKey, err := loadPublicKey()
	if err != nil {
		return nil, err
	}

	lifetime := time.Hour * 24 * 30
	if s, ok := os.LookupEnv("JWT_TOKEN_LIFETIME"); ok {
		lifetime, err = time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("unable to parse JWT_TOKEN_LIFETIME: %w", err)
		}
	}

	return NewJWTFromKeys(privateKey, publicKey, lifetime), nil
}

func NewJWTFromKeys(
	privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, lifetime time.Duration,
) *JWT {
	return &JWT{
		privateKey:    privateKey,
		publicKey:     publicKey,
		signingMethod: jwt.SigningMethodRS256,
		tokenLifetime: lifetime,
	}
}

func (j *JWT) TokenLifetime() time.Duration {
	return j.tokenLifetime
}

// Sign stamps claims with a fresh expiry and signs them.
func (j *JWT) Sign(claims *PlayerClaims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.tokenLifetime))
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.privateKey)
}

func (j *JWT) ParsePlayerClaims(tokenString string) (*PlayerClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&PlayerClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return j.publicKey, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*PlayerClaims)
	if !ok {
		return nil, fmt.Errorf("malformed claims")
	}
	return claims, nil
}
