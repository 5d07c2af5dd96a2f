package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crm-app/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxUserID   = "user_id"
	ctxEmail    = "email"
	ctxIssuedAt = "issued_at"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the part of a session token this service cares about.
type Claims struct {
	UserID   uuid.UUID
	Email    string
	IssuedAt time.Time
}

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error)
}

// HMACVerifier checks HS256 tokens signed with the auth provider's shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (Claims, error) {
	if len(v.secret) == 0 {
		return Claims{}, fmt.Errorf("%w: JWT secret not configured", ErrInvalidToken)
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	subject, _ := mc.GetSubject()
	if subject == "" {
		subject, _ = mc["user_id"].(string)
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	out := Claims{UserID: userID}
	if email, ok := mc["email"].(string); ok {
		out.Email = email
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}

// OIDCVerifier checks tokens against an issuer's published signing keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider %s: %w", issuer, err)
	}
	cfg := &oidc.Config{ClientID: clientID}
	if clientID == "" {
		cfg.SkipClientIDCheck = true
	}
	return &OIDCVerifier{verifier: provider.Verifier(cfg)}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (Claims, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := uuid.Parse(tok.Subject)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	var extra struct {
		Email string `json:"email"`
	}
	_ = tok.Claims(&extra)

	return Claims{UserID: userID, Email: extra.Email, IssuedAt: tok.IssuedAt}, nil
}

type Authenticator struct {
	verifier TokenVerifier
	revoked  RevocationChecker
	log      logger.Logger
}

func NewAuthenticator(v TokenVerifier, revoked RevocationChecker, log logger.Logger) *Authenticator {
	return &Authenticator{
		verifier: v,
		revoked:  revoked,
		log:      log.Component("auth"),
	}
}

// Required rejects requests without a valid, unrevoked bearer token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}
		if !a.authenticate(c, authHeader) {
			return
		}
		c.Next()
	}
}

// Optional authenticates when a token is present and lets anonymous callers through.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !a.authenticate(c, authHeader) {
			return
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context, authHeader string) bool {
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token malformed"})
		return false
	}

	claims, err := a.verifier.Verify(c.Request.Context(), tokenString)
	if err != nil {
		a.log.Debug("token rejected", map[string]interface{}{"error": err.Error()})
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return false
	}

	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(c.Request.Context(), claims.UserID, claims.IssuedAt)
		if err != nil {
			// a redis outage must not lock everybody out
			a.log.Warn("revocation check failed", map[string]interface{}{
				"userId": claims.UserID.String(),
				"error":  err.Error(),
			})
		} else if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session has been terminated"})
			return false
		}
	}

	SetIdentity(c, claims)
	return true
}

// SetIdentity stores the verified caller on the request context.
func SetIdentity(c *gin.Context, claims Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxIssuedAt, claims.IssuedAt)
}

// UserID returns the authenticated user's id, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func Email(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

func IssuedAt(c *gin.Context) time.Time {
	return c.GetTime(ctxIssuedAt)
}
