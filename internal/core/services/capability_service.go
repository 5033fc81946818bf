package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"
	apperrors "mediagate/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CapabilityConfig bounds credential lifetimes. Callers can request any
// TTL; the issuer clamps it into [TTLFloor, TTLCeiling] rather than
// rejecting, so no caller can mint an unbounded credential.
type CapabilityConfig struct {
	TTLFloor   time.Duration
	TTLCeiling time.Duration
	TTLDefault time.Duration
}

// DefaultCapabilityConfig returns the default TTL bounds.
func DefaultCapabilityConfig() CapabilityConfig {
	return CapabilityConfig{
		TTLFloor:   15 * time.Minute,
		TTLCeiling: 60 * time.Minute,
		TTLDefault: 30 * time.Minute,
	}
}

type capabilityService struct {
	bindingSecret []byte
	cfg           CapabilityConfig
	urlProvider   ports.SignedURLProvider
	tokenProvider ports.PlaybackTokenProvider
	logger        *zap.SugaredLogger

	now func() time.Time
}

func NewCapabilityService(
	bindingSecret string,
	cfg CapabilityConfig,
	urlProvider ports.SignedURLProvider,
	tokenProvider ports.PlaybackTokenProvider,
	logger *zap.SugaredLogger,
) ports.CapabilityService {
	return &capabilityService{
		bindingSecret: []byte(bindingSecret),
		cfg:           cfg,
		urlProvider:   urlProvider,
		tokenProvider: tokenProvider,
		logger:        logger,
		now:           time.Now,
	}
}

// ClampTTL forces a requested TTL into the configured bounds. A zero or
// negative request gets the default.
func (s *capabilityService) ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.cfg.TTLDefault
	}
	if ttl < s.cfg.TTLFloor {
		return s.cfg.TTLFloor
	}
	if ttl > s.cfg.TTLCeiling {
		return s.cfg.TTLCeiling
	}
	return ttl
}

// Issue mints a capability for an already-allowed (principal, resource)
// pair. The provider-signed locator proves the URL was not tampered with;
// the binding token proves who is allowed to use it.
func (s *capabilityService) Issue(ctx context.Context, principal domain.PrincipalID, resource *domain.Resource, ttl time.Duration) (*domain.Capability, error) {
	if len(s.bindingSecret) == 0 {
		return nil, apperrors.NewConfigurationError("capability binding secret not configured")
	}

	ttl = s.ClampTTL(ttl)
	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	nonce := uuid.NewString()

	var locator string
	var err error
	switch resource.MediaKind {
	case domain.MediaKindVideo:
		if s.tokenProvider == nil {
			return nil, apperrors.NewConfigurationError("no playback token provider configured")
		}
		claim := domain.NewWatermarkClaim(principal, resource.ID)
		locator, err = s.tokenProvider.IssuePlaybackToken(ctx, resource.MediaLocator, claim, expiresAt)
	case domain.MediaKindAudio, domain.MediaKindImage:
		if s.urlProvider == nil {
			return nil, apperrors.NewConfigurationError("no signed URL provider configured")
		}
		locator, err = s.urlProvider.SignGetURL(ctx, resource.MediaLocator, ttl)
	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unsupported media kind %q", resource.MediaKind))
	}
	if err != nil {
		if errors.Is(err, domain.ErrMissingSigningKey) {
			return nil, apperrors.WrapError(err, apperrors.ErrCodeConfiguration, "media signing misconfigured", 500)
		}
		s.logger.Errorw("provider signing failed",
			"resource_id", resource.ID,
			"media_kind", resource.MediaKind,
			"error", err,
		)
		return nil, apperrors.NewProviderUnavailableError(err)
	}

	return &domain.Capability{
		SignedLocator: locator,
		Binding:       s.signBinding(principal, resource.ID, expiresAt, nonce),
		PrincipalID:   principal,
		ResourceID:    resource.ID,
		MediaKind:     resource.MediaKind,
		IssuedAt:      issuedAt,
		ExpiresAt:     expiresAt,
	}, nil
}

// signBinding produces `base64(payload).base64(hmac)` where payload is
// principal|resource|expiresAtUnix|nonce. The payload travels with the
// token so the MAC is re-derivable server-side from the secret alone.
func (s *capabilityService) signBinding(principal domain.PrincipalID, resource domain.ResourceID, expiresAt time.Time, nonce string) string {
	payload := fmt.Sprintf("%s|%s|%d|%s", principal, resource, expiresAt.Unix(), nonce)
	mac := hmac.New(sha256.New, s.bindingSecret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyBinding checks that a binding token was minted for exactly this
// principal and resource and has not expired. The MAC comparison is
// constant-time; an HMAC forgery attempt must not leak through timing.
func (s *capabilityService) VerifyBinding(token string, principal domain.PrincipalID, resourceID domain.ResourceID) bool {
	if len(s.bindingSecret) == 0 {
		return false
	}

	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	gotMAC, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.bindingSecret)
	mac.Write(payload)
	if subtle.ConstantTimeCompare(mac.Sum(nil), gotMAC) != 1 {
		return false
	}

	fields := strings.Split(string(payload), "|")
	if len(fields) != 4 {
		return false
	}
	if fields[0] != string(principal) || fields[1] != string(resourceID) {
		return false
	}

	expUnix, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return false
	}
	return s.now().Unix() <= expUnix
}
