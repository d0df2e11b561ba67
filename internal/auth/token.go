package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService выпускает и проверяет сессионные токены {sub, iat, exp}.
type JWTService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewJWTService(secret, algorithm string, expiresMinutes int) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is empty", ErrConfig)
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrConfig, algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: algorithm %q is not an HMAC method", ErrConfig, algorithm)
	}
	if expiresMinutes <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", ErrConfig)
	}
	return &JWTService{
		secret: []byte(secret),
		method: method,
		ttl:    time.Duration(expiresMinutes) * time.Minute,
	}, nil
}

// TTL — время жизни выпускаемых токенов.
func (s *JWTService) TTL() time.Duration { return s.ttl }

// Issue выпускает токен для username. Возвращает подписанную строку и момент
// истечения (с точностью до секунды, как в exp).
func (s *JWTService) Issue(username string, now time.Time) (string, time.Time, error) {
	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub": username,
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify проверяет подпись и срок действия токена и возвращает subject.
// Срок проверяется вручную с той же секундной точностью, что и при выпуске:
// токен валиден ровно в exp и невалиден строго после.
func (s *JWTService) Verify(tokenString string, now time.Time) (string, error) {
	if tokenString == "" {
		return "", ErrTokenMissing
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", fmt.Errorf("%w: exp claim missing", ErrTokenInvalid)
	}
	if now.Unix() > exp.Unix() {
		return "", ErrTokenExpired
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: sub claim missing", ErrTokenInvalid)
	}
	return sub, nil
}
