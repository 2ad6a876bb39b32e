package membership

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const verificationTokenPurpose = "email_verification"

// VerificationTokenClaims are the claims carried by an email verification
// token. Purpose keeps the token from being replayed against any other
// token-consuming surface.
type VerificationTokenClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// VerificationTokenService mints and validates the short-lived tokens
// embedded in verification emails.
type VerificationTokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	now        func() time.Time
	logger     Logger
}

type VerificationTokenOption func(*VerificationTokenService)

// WithVerificationTokenClock injects a custom clock (useful for tests).
func WithVerificationTokenClock(clock func() time.Time) VerificationTokenOption {
	return func(ts *VerificationTokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithVerificationTokenLogger overrides the default logger.
func WithVerificationTokenLogger(logger Logger) VerificationTokenOption {
	return func(ts *VerificationTokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

func NewVerificationTokenService(signingKey []byte, ttl time.Duration, issuer string, opts ...VerificationTokenOption) *VerificationTokenService {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}

	ts := &VerificationTokenService{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		now:        time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// Mint issues a verification token bound to the user's id.
func (ts *VerificationTokenService) Mint(user *User) (string, error) {
	if user == nil {
		return "", goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &VerificationTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		Purpose: verificationTokenPurpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign verification token")
	}

	return signed, nil
}

// Validate parses and checks a token, returning the user id it was minted
// for.
func (ts *VerificationTokenService) Validate(tokenString string) (uuid.UUID, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))

	token, err := jwt.ParseWithClaims(tokenString, &VerificationTokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("verification token carries unexpected signing method: %v", t.Header["alg"])
			return nil, ErrVerificationTokenMalformed
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrVerificationTokenExpired
		}
		return uuid.Nil, ErrVerificationTokenMalformed.WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}

	claims, ok := token.Claims.(*VerificationTokenClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrVerificationTokenMalformed
	}

	if claims.Purpose != verificationTokenPurpose {
		return uuid.Nil, ErrVerificationTokenMalformed.WithMetadata(map[string]any{
			"purpose": claims.Purpose,
		})
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrVerificationTokenMalformed.WithMetadata(map[string]any{
			"subject": claims.Subject,
		})
	}

	return id, nil
}
