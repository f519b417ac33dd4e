package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Fallback key so the binary runs without an env file. main() overrides
// it with the configured secret on startup.
var jwtSecretKey = []byte("A_VERY_SECURE_SECRET_KEY_REPLACE_LATER")

// SetSecret installs the signing key from configuration. Call once at
// startup, before the server accepts requests.
func SetSecret(secret string) {
	if secret != "" {
		jwtSecretKey = []byte(secret)
	}
}

// Claims is what we carry inside a token: the account ID and the role
// ("user" for subscribers, "administrator" for the admin console).
type Claims struct {
	AccountID int64
	Role      string
}

// GenerateToken creates a signed JWT for the given account and role.
func GenerateToken(accountID int64, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  accountID,
		"role": role,
		"exp":  time.Now().Add(time.Hour * 72).Unix(), // Expires in 3 days
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string and returns the
// claims it carries.
func ValidateToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but our HMAC method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecretKey, nil
	})
	if err != nil {
		return Claims{}, err // Token parsing failed (e.g., expired, malformed)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return Claims{}, errors.New("invalid subject claim")
	}
	role, _ := claims["role"].(string)

	return Claims{AccountID: int64(sub), Role: role}, nil
}
