package jwt

import (
	"errors"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned for any token that cannot be parsed, fails the
// signature check, or does not carry a well-formed claim record.
var ErrMalformedToken = errors.New("malformed token")

var (
	errMissingClaims = errors.New("required claims missing")
	errUnknownKind   = errors.New("unknown token kind")
	errWrongKind     = errors.New("unexpected token kind")
	errIssuer        = errors.New("unexpected issuer")
)

// Config holds the process-wide signing parameters. It is loaded once at startup.
type Config struct {
	Secret []byte
	// Issuer is written to and required on every token when non-empty.
	Issuer string
}

// Codec signs and verifies goSession credentials with a fixed HS256 secret.
//
// Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	config Config
	parser *gjwt.Parser
}

// NewCodec validates cfg and returns a ready [Codec].
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires secret")
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	return &Codec{
		config: cfg,
		// Expiry is evaluated by the caller; strict decoding rejects
		// non-canonical base64 so a flipped trailing character never verifies.
		parser: gjwt.NewParser(
			gjwt.WithValidMethods([]string{gjwt.SigningMethodHS256.Alg()}),
			gjwt.WithoutClaimsValidation(),
			gjwt.WithStrictDecoding(),
		),
	}, nil
}

// EncodeAccess signs an access claim record.
func (c *Codec) EncodeAccess(claims AccessClaims) (string, error) {
	if claims.SubjectID == "" || claims.TokenID == "" || claims.RefreshID == "" {
		return "", errMissingClaims
	}
	if claims.ExpiresAt.IsZero() {
		return "", errors.New("access token requires expiry")
	}
	return c.sign(accessToWire(claims, c.config.Issuer))
}

// EncodeRefresh signs a refresh claim record.
func (c *Codec) EncodeRefresh(claims RefreshClaims) (string, error) {
	if claims.SubjectID == "" || claims.TokenID == "" {
		return "", errMissingClaims
	}
	if claims.ExpiresAt.IsZero() {
		return "", errors.New("refresh token requires expiry")
	}
	return c.sign(refreshToWire(claims, c.config.Issuer))
}

func (c *Codec) sign(w wireClaims) (string, error) {
	token := gjwt.NewWithClaims(gjwt.SigningMethodHS256, w)
	return token.SignedString(c.config.Secret)
}

// Decode verifies the signature and claim shape of tokenStr and returns the
// decoded record. Expiry is not checked. Every failure wraps [ErrMalformedToken].
func (c *Codec) Decode(tokenStr string) (Claims, error) {
	wire := &wireClaims{}
	token, err := c.parser.ParseWithClaims(tokenStr, wire, c.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !token.Valid {
		return nil, ErrMalformedToken
	}
	if c.config.Issuer != "" && wire.Issuer != c.config.Issuer {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, errIssuer)
	}

	claims, err := wire.toClaims()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// DecodeAccess decodes tokenStr and requires it to be an access token.
func (c *Codec) DecodeAccess(tokenStr string) (*AccessClaims, error) {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return nil, err
	}
	access, ok := claims.(*AccessClaims)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, errWrongKind)
	}
	return access, nil
}

// DecodeRefresh decodes tokenStr and requires it to be a refresh token.
func (c *Codec) DecodeRefresh(tokenStr string) (*RefreshClaims, error) {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return nil, err
	}
	refresh, ok := claims.(*RefreshClaims)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, errWrongKind)
	}
	return refresh, nil
}

func (c *Codec) keyFunc(t *gjwt.Token) (interface{}, error) {
	if t.Method.Alg() != gjwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	return c.config.Secret, nil
}
