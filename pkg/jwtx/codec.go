package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed      = errors.New("jwtx: malformed token")
	ErrBadSignature   = errors.New("jwtx: bad signature")
	ErrExpired        = errors.New("jwtx: token expired")
	ErrNotYetValid    = errors.New("jwtx: token not yet valid")
	ErrIssuedInFuture = errors.New("jwtx: token issued in the future")
	ErrIssuer         = errors.New("jwtx: issuer mismatch")
	ErrAudience       = errors.New("jwtx: audience mismatch")

	ErrNoSigningKey  = errors.New("jwtx: no signing key loaded")
	ErrInvalidExpiry = errors.New("jwtx: expiry must be after issue time")
)

// Validator validates a JWT and gives you back the claims if it's legit.
type Validator interface {
	Validate(token string) (Claims, error)
}

// CodecOptions configures a Codec.
type CodecOptions struct {
	// Issuer expected in the iss claim when ValidateIssuer is set.
	Issuer string

	// Audience values of which at least one must appear in aud when
	// ValidateAudience is set.
	Audience []string

	// ValidateIssuer and ValidateAudience toggle the iss/aud checks.
	ValidateIssuer   bool
	ValidateAudience bool

	// Leeway allows small clock skew when validating exp/nbf/iat.
	Leeway time.Duration

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Codec issues and validates HS256 access tokens against a KeyManager.
type Codec struct {
	keys *KeyManager
	opts CodecOptions
}

// NewCodec wires a Codec to its key material.
func NewCodec(keys *KeyManager, opts CodecOptions) *Codec {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Codec{keys: keys, opts: opts}
}

// Keys returns the underlying key manager.
func (c *Codec) Keys() *KeyManager { return c.keys }

// Now returns the codec's current time.
func (c *Codec) Now() time.Time { return c.opts.Now() }

// Issue fills in the registered claims and signs them with the active key.
// iat and nbf are set to now; jti is generated when empty.
func (c *Codec) Issue(issuer string, audience []string, claims Claims, expiresAt time.Time) (string, error) {
	now := c.opts.Now()
	if !expiresAt.Truncate(jwt.TimePrecision).After(now.Truncate(jwt.TimePrecision)) {
		return "", ErrInvalidExpiry
	}

	claims.Issuer = issuer
	claims.Audience = jwt.ClaimStrings(audience)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	if claims.ID == "" {
		claims.ID = NewJTI()
	}

	return c.sign(claims, AccessType)
}

// Decode parses a token without checking its signature or any claim. Only
// use it to inspect tokens; Validate is the authoritative path.
func (c *Codec) Decode(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// Validate verifies the signature first, then exp, nbf and iat, then
// issuer and audience when enabled. Every failure wraps one of the named
// errors of this package.
func (c *Codec) Validate(token string) (Claims, error) {
	var claims Claims
	if err := c.verify(token, &claims, AccessType); err != nil {
		return Claims{}, err
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub", ErrMalformed)
	}

	if err := claims.ValidateTimes(c.opts.Now(), c.opts.Leeway); err != nil {
		return Claims{}, err
	}

	if c.opts.ValidateIssuer {
		if err := claims.ValidateIssuer(c.opts.Issuer); err != nil {
			return Claims{}, err
		}
	}
	if c.opts.ValidateAudience {
		if err := claims.ValidateAudience(c.opts.Audience); err != nil {
			return Claims{}, err
		}
	}

	return claims, nil
}

// SignValue signs arbitrary claims with the active key. Used for values
// other than access tokens, like the session cookie. The result carries
// typ ValueType, which Validate refuses.
func (c *Codec) SignValue(claims jwt.Claims) (string, error) {
	return c.sign(claims, ValueType)
}

func (c *Codec) sign(claims jwt.Claims, typ string) (string, error) {
	signer := c.keys.GetSigner()
	if signer == nil {
		return "", ErrNoSigningKey
	}
	return signer.SignTyped(claims, typ)
}

// VerifyValue checks the signature of a value produced by SignValue and
// its exp claim.
func (c *Codec) VerifyValue(token string, claims jwt.Claims) error {
	if err := c.verify(token, claims, ValueType); err != nil {
		return err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fmt.Errorf("%w: missing exp", ErrMalformed)
	}
	if !c.opts.Now().Before(exp.Add(c.opts.Leeway)) {
		return ErrExpired
	}
	return nil
}

// verify checks structure, signature and the typ header. Claim validation
// is done by the callers so the failure order stays under our control.
func (c *Codec) verify(token string, claims jwt.Claims, typ string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}
		secret, err := c.keys.KeySet.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
		}
		return secret, nil
	})
	if err == nil {
		if got, _ := parsed.Header["typ"].(string); got != typ {
			return fmt.Errorf("%w: typ %q, want %q", ErrMalformed, got, typ)
		}
		return nil
	}

	if errors.Is(err, jwt.ErrTokenMalformed) {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fmt.Errorf("%w: %v", ErrBadSignature, err)
}
