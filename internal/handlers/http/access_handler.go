package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"
	"mediagate/internal/infrastructure/middleware"
	"mediagate/internal/infrastructure/monitoring"
	"mediagate/internal/infrastructure/notify"
	"mediagate/pkg/tracing"
	"mediagate/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccessHandler struct {
	entitlements ports.EntitlementService
	capabilities ports.CapabilityService
	audit        ports.AuditSink
	resources    ports.ResourceRepository

	notifyServer *notify.WebSocketServer
	health       *monitoring.HealthChecker
	metrics      *monitoring.PrometheusCollector

	ttlDefault         time.Duration
	revalidateInterval time.Duration

	logger *zap.SugaredLogger
}

func NewAccessHandler(
	entitlements ports.EntitlementService,
	capabilities ports.CapabilityService,
	audit ports.AuditSink,
	resources ports.ResourceRepository,
	notifyServer *notify.WebSocketServer,
	health *monitoring.HealthChecker,
	metrics *monitoring.PrometheusCollector,
	ttlDefault time.Duration,
	revalidateInterval time.Duration,
	logger *zap.SugaredLogger,
) *AccessHandler {
	return &AccessHandler{
		entitlements:       entitlements,
		capabilities:       capabilities,
		audit:              audit,
		resources:          resources,
		notifyServer:       notifyServer,
		health:             health,
		metrics:            metrics,
		ttlDefault:         ttlDefault,
		revalidateInterval: revalidateInterval,
		logger:             logger,
	}
}

func (h *AccessHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/media/:id/access", h.RequestAccess)
		api.GET("/media/:id/revalidate", h.Revalidate)
		api.GET("/notify", h.Notify)
	}

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

// RequestAccess runs the full access flow: evaluate entitlement, then
// mint a capability. A denial and an issuance are the only two outcomes;
// there is no partial grant.
func (h *AccessHandler) RequestAccess(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	resourceID := domain.ResourceID(c.Param("id"))

	// A malformed id is indistinguishable from a missing resource.
	if err := validation.ValidateResourceID(string(resourceID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"reason": domain.DenyResourceUnavailable})
		return
	}

	ctx, span := tracing.TraceDecision(c.Request.Context(), string(principal), string(resourceID))
	defer span.End()

	start := time.Now()
	decision, resource, err := h.entitlements.Check(ctx, principal, resourceID)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			decision = domain.Deny(domain.DenyResourceUnavailable)
			h.recordAudit(principal, nil, resourceID, decision)
			h.renderDenial(c, decision, nil)
			return
		}
		tracing.RecordError(ctx, err)
		c.Error(err)
		return
	}
	h.metrics.RecordDecision(decision, time.Since(start))
	tracing.AddSpanAttributes(ctx,
		tracing.DecisionKey.Bool(decision.Allowed),
		tracing.ReasonKey.String(string(decision.Reason)),
	)

	if !decision.Allowed {
		h.recordAudit(principal, resource, resourceID, decision)
		h.renderDenial(c, decision, resource)
		return
	}

	ttl := h.ttlDefault
	if raw := c.Query("ttl"); raw != "" {
		if parsed, perr := time.ParseDuration(raw); perr == nil {
			ttl = parsed // clamped by the issuer
		}
	}

	issueCtx, issueSpan := tracing.TraceIssuance(ctx, string(resourceID), string(resource.MediaKind))
	capability, err := h.capabilities.Issue(issueCtx, principal, resource, ttl)
	issueSpan.End()
	if err != nil {
		tracing.RecordError(ctx, err)
		h.recordAudit(principal, resource, resourceID, decision)
		c.Error(err)
		return
	}
	h.metrics.RecordIssuance(resource.MediaKind)
	h.recordAudit(principal, resource, resourceID, decision)

	c.JSON(http.StatusOK, gin.H{
		"locator":               capability.SignedLocator,
		"binding":               capability.Binding,
		"kind":                  capability.MediaKind,
		"expires_at":            capability.ExpiresAt.UTC(),
		"revalidate_in_seconds": int(h.revalidateInterval.Seconds()),
	})
}

// Revalidate answers "may this principal keep playing this resource".
// Players call it on a timer mid-playback. It runs the same decision
// path as access and additionally checks the presented binding token,
// but never mints a new capability.
func (h *AccessHandler) Revalidate(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	resourceID := domain.ResourceID(c.Param("id"))

	if err := validation.ValidateResourceID(string(resourceID)); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid":  false,
			"reason": domain.DenyResourceUnavailable,
		})
		return
	}

	ctx, span := tracing.TraceDecision(c.Request.Context(), string(principal), string(resourceID))
	defer span.End()

	start := time.Now()
	decision, resource, err := h.entitlements.Check(ctx, principal, resourceID)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"valid":  false,
				"reason": domain.DenyResourceUnavailable,
			})
			return
		}
		tracing.RecordError(ctx, err)
		c.Error(err)
		return
	}
	h.metrics.RecordDecision(decision, time.Since(start))

	if !decision.Allowed {
		h.recordAudit(principal, resource, resourceID, decision)
		resp := gin.H{
			"valid":  false,
			"reason": decision.Reason,
		}
		if owner := h.ownerSummaryFor(ctx, decision, resource); owner != nil {
			resp["owner"] = owner
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	if binding := c.Query("binding"); binding != "" {
		ok := h.capabilities.VerifyBinding(binding, principal, resourceID)
		h.metrics.RecordVerification(ok)
		if !ok {
			c.JSON(http.StatusOK, gin.H{
				"valid":  false,
				"reason": "invalid_binding",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":                 true,
		"revalidate_in_seconds": int(h.revalidateInterval.Seconds()),
	})
}

// Notify upgrades the connection to the revocation push channel.
func (h *AccessHandler) Notify(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	h.notifyServer.HandleWebSocket(c.Writer, c.Request, principal)
}

func (h *AccessHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (h *AccessHandler) Ready(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// renderDenial maps a deny decision to its HTTP shape. Only the
// no-entitlement case carries an owner summary: the caller needs it to
// render the paywall prompt. Unavailable resources reveal nothing.
func (h *AccessHandler) renderDenial(c *gin.Context, decision domain.Decision, resource *domain.Resource) {
	switch decision.Reason {
	case domain.DenyNotAuthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"reason": decision.Reason})
	case domain.DenyNoEntitlement:
		resp := gin.H{"reason": decision.Reason}
		if owner := h.ownerSummaryFor(c.Request.Context(), decision, resource); owner != nil {
			resp["owner"] = owner
		}
		c.JSON(http.StatusForbidden, resp)
	default:
		c.JSON(http.StatusNotFound, gin.H{"reason": domain.DenyResourceUnavailable})
	}
}

func (h *AccessHandler) ownerSummaryFor(ctx context.Context, decision domain.Decision, resource *domain.Resource) *domain.OwnerSummary {
	if decision.Reason != domain.DenyNoEntitlement || resource == nil {
		return nil
	}
	owner, err := h.resources.GetOwnerSummary(ctx, resource.OwnerID)
	if err != nil {
		h.logger.Warnw("owner summary lookup failed", "owner_id", resource.OwnerID, "error", err)
		return nil
	}
	return owner
}

func (h *AccessHandler) recordAudit(principal domain.PrincipalID, resource *domain.Resource, resourceID domain.ResourceID, decision domain.Decision) {
	event := domain.AuditEvent{
		Principal:  principal,
		ResourceID: resourceID,
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
		Timestamp:  time.Now().UTC(),
	}
	if resource != nil {
		event.OwnerID = resource.OwnerID
		event.MediaKind = resource.MediaKind
	}
	h.audit.Record(event)
}
