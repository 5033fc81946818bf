package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mediagate/internal/core/domain"
	"mediagate/internal/infrastructure/middleware"
	"mediagate/internal/infrastructure/monitoring"
	"mediagate/internal/infrastructure/notify"
	apperrors "mediagate/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// promauto registers against the default registry; one collector shared
// across every test avoids duplicate registration panics.
var testMetrics = monitoring.NewPrometheusCollector()

type fakeEntitlements struct {
	decision domain.Decision
	resource *domain.Resource
	err      error
}

func (f *fakeEntitlements) Decide(principal domain.PrincipalID, resource *domain.Resource, snapshot domain.EntitlementSnapshot) domain.Decision {
	return f.decision
}

func (f *fakeEntitlements) Check(ctx context.Context, principal domain.PrincipalID, resourceID domain.ResourceID) (domain.Decision, *domain.Resource, error) {
	return f.decision, f.resource, f.err
}

type fakeCapabilities struct {
	capability *domain.Capability
	err        error
	verifyOK   bool

	issuedTTL time.Duration
}

func (f *fakeCapabilities) Issue(ctx context.Context, principal domain.PrincipalID, resource *domain.Resource, ttl time.Duration) (*domain.Capability, error) {
	f.issuedTTL = ttl
	return f.capability, f.err
}

func (f *fakeCapabilities) VerifyBinding(token string, principal domain.PrincipalID, resourceID domain.ResourceID) bool {
	return f.verifyOK
}

type fakeAudit struct {
	events []domain.AuditEvent
}

func (f *fakeAudit) Record(event domain.AuditEvent) { f.events = append(f.events, event) }
func (f *fakeAudit) Close() error                   { return nil }

type fakeResources struct {
	owner *domain.OwnerSummary
	err   error
}

func (f *fakeResources) GetByID(ctx context.Context, id domain.ResourceID) (*domain.Resource, error) {
	return nil, domain.ErrResourceNotFound
}

func (f *fakeResources) GetOwnerSummary(ctx context.Context, owner domain.CreatorID) (*domain.OwnerSummary, error) {
	return f.owner, f.err
}

func paidVideoResource() *domain.Resource {
	return &domain.Resource{
		ID:           "post-1",
		OwnerID:      "creator-1",
		AccessClass:  domain.AccessClassPaid,
		Status:       domain.ResourceStatusPublished,
		MediaKind:    domain.MediaKindVideo,
		MediaLocator: "media/post-1/master.m3u8",
	}
}

func newTestRouter(ent *fakeEntitlements, caps *fakeCapabilities, audit *fakeAudit, resources *fakeResources, principal domain.PrincipalID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop().Sugar()

	handler := NewAccessHandler(
		ent, caps, audit, resources,
		notify.NewWebSocketServer(logger),
		monitoring.NewHealthChecker(),
		testMetrics,
		30*time.Minute,
		45*time.Second,
		logger,
	)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	router.Use(func(c *gin.Context) {
		c.Set("principal_id", principal)
		c.Next()
	})
	handler.SetupRoutes(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
	}
	return w, body
}

func TestRequestAccess_Allowed(t *testing.T) {
	caps := &fakeCapabilities{
		capability: &domain.Capability{
			SignedLocator: "https://cdn.example.com/signed",
			Binding:       "payload.mac",
			PrincipalID:   "user-1",
			ResourceID:    "post-1",
			MediaKind:     domain.MediaKindVideo,
			ExpiresAt:     time.Now().Add(30 * time.Minute),
		},
	}
	audit := &fakeAudit{}
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Allow(), resource: paidVideoResource()},
		caps, audit, &fakeResources{}, "user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/access")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body["locator"] != "https://cdn.example.com/signed" {
		t.Errorf("unexpected locator: %v", body["locator"])
	}
	if body["binding"] != "payload.mac" {
		t.Errorf("unexpected binding: %v", body["binding"])
	}
	if body["kind"] != "video" {
		t.Errorf("unexpected kind: %v", body["kind"])
	}
	if body["revalidate_in_seconds"] != float64(45) {
		t.Errorf("unexpected revalidate interval: %v", body["revalidate_in_seconds"])
	}

	if len(audit.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(audit.events))
	}
	if !audit.events[0].Allowed || audit.events[0].OwnerID != "creator-1" {
		t.Errorf("unexpected audit event: %+v", audit.events[0])
	}
}

func TestRequestAccess_TTLQueryForwarded(t *testing.T) {
	caps := &fakeCapabilities{capability: &domain.Capability{MediaKind: domain.MediaKindAudio}}
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Allow(), resource: paidVideoResource()},
		caps, &fakeAudit{}, &fakeResources{}, "user-1",
	)

	w, _ := doRequest(t, router, "/api/v1/media/post-1/access?ttl=20m")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if caps.issuedTTL != 20*time.Minute {
		t.Errorf("expected requested TTL to reach issuer, got %v", caps.issuedTTL)
	}
}

func TestRequestAccess_NotAuthenticated(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Deny(domain.DenyNotAuthenticated), resource: paidVideoResource()},
		&fakeCapabilities{}, &fakeAudit{}, &fakeResources{}, domain.AnonymousPrincipal,
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/access")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["reason"] != "not_authenticated" {
		t.Errorf("unexpected reason: %v", body["reason"])
	}
}

func TestRequestAccess_NoEntitlementIncludesOwner(t *testing.T) {
	audit := &fakeAudit{}
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Deny(domain.DenyNoEntitlement), resource: paidVideoResource()},
		&fakeCapabilities{}, audit,
		&fakeResources{owner: &domain.OwnerSummary{ID: "creator-1", DisplayName: "Creator One", MonthlyPrice: 500}},
		"user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/access")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if body["reason"] != "no_entitlement" {
		t.Errorf("unexpected reason: %v", body["reason"])
	}
	owner, ok := body["owner"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected owner summary in response, got %v", body)
	}
	if owner["display_name"] != "Creator One" {
		t.Errorf("unexpected owner: %v", owner)
	}

	if len(audit.events) != 1 || audit.events[0].Allowed {
		t.Errorf("expected a denial audit event, got %+v", audit.events)
	}
}

func TestRequestAccess_OwnerLookupFailureOmitsOwner(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Deny(domain.DenyNoEntitlement), resource: paidVideoResource()},
		&fakeCapabilities{}, &fakeAudit{},
		&fakeResources{err: context.DeadlineExceeded},
		"user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/access")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if _, present := body["owner"]; present {
		t.Errorf("owner must be omitted when lookup fails, got %v", body["owner"])
	}
}

func TestRequestAccess_ResourceUnavailable(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Deny(domain.DenyResourceUnavailable)},
		&fakeCapabilities{}, &fakeAudit{}, &fakeResources{}, "user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/missing/access")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body["reason"] != "resource_unavailable" {
		t.Errorf("unexpected reason: %v", body["reason"])
	}
}

func TestRequestAccess_ProviderFailure(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Allow(), resource: paidVideoResource()},
		&fakeCapabilities{err: apperrProviderUnavailable()},
		&fakeAudit{}, &fakeResources{}, "user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/access")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
	if body["error"] != "PROVIDER_UNAVAILABLE" {
		t.Errorf("unexpected error code: %v", body["error"])
	}
}

func apperrProviderUnavailable() error {
	return apperrors.NewProviderUnavailableError(errors.New("cdn down"))
}

func TestRevalidate_Valid(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Allow(), resource: paidVideoResource()},
		&fakeCapabilities{verifyOK: true}, &fakeAudit{}, &fakeResources{}, "user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/revalidate?binding=payload.mac")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["valid"] != true {
		t.Errorf("expected valid=true, got %v", body)
	}
}

func TestRevalidate_InvalidBinding(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Allow(), resource: paidVideoResource()},
		&fakeCapabilities{verifyOK: false}, &fakeAudit{}, &fakeResources{}, "user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/revalidate?binding=tampered")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["valid"] != false || body["reason"] != "invalid_binding" {
		t.Errorf("expected invalid_binding, got %v", body)
	}
}

func TestRevalidate_EntitlementRevoked(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Deny(domain.DenyNoEntitlement), resource: paidVideoResource()},
		&fakeCapabilities{verifyOK: true}, &fakeAudit{},
		&fakeResources{owner: &domain.OwnerSummary{ID: "creator-1", DisplayName: "Creator One"}},
		"user-1",
	)

	w, body := doRequest(t, router, "/api/v1/media/post-1/revalidate?binding=payload.mac")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["valid"] != false || body["reason"] != "no_entitlement" {
		t.Errorf("expected revoked result, got %v", body)
	}
	if _, ok := body["owner"]; !ok {
		t.Errorf("expected owner summary on revoked revalidation, got %v", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(
		&fakeEntitlements{decision: domain.Allow()},
		&fakeCapabilities{}, &fakeAudit{}, &fakeResources{}, "user-1",
	)

	w, body := doRequest(t, router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected status: %v", body["status"])
	}
}
