package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"calldata-platform/internal/aggregator"
	"calldata-platform/internal/audit"
	"calldata-platform/internal/auth"
	"calldata-platform/internal/cache"
	"calldata-platform/internal/ingest"
	"calldata-platform/internal/rbac"
	"calldata-platform/internal/sources"
	"calldata-platform/internal/tenants"
	"calldata-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const maxWebhookBody = 1 << 20

// Fetcher is the aggregation entry point used by the dashboard endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, tc tenants.TenantContext, f sources.Filters, opts aggregator.Options) (aggregator.Result, error)
}

// Ingester accepts provider callbacks.
type Ingester interface {
	Ingest(ctx context.Context, tenantID string, payload []byte) (ingest.Ack, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	Tenants  tenants.Registry
	Fetcher  Fetcher
	Ingester Ingester
	Cache    cache.Store
	Audit    *audit.Service

	// FallbackToSynthetic is the process default for degrade-to-synthetic.
	FallbackToSynthetic bool
}

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// --- Auth ---

type loginRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	TenantID string `json:"tenant_id" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// Login issues a JWT token pair.
//
// NOTE: This endpoint is for local and dev environments only; it does not check credentials.
func (h *Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, tenant_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.TenantID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Call data ---

type fetchQuery struct {
	Phone     string `form:"phone" validate:"omitempty,max=32"`
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To        string `form:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Status    string `form:"status" validate:"omitempty,max=32"`
	Synthetic bool   `form:"synthetic"`
	Fresh     bool   `form:"fresh"`
}

func (q fetchQuery) filters() (sources.Filters, error) {
	f := sources.Filters{Phone: q.Phone, Status: q.Status}
	var err error
	if q.From != "" {
		if f.From, err = time.Parse(time.RFC3339, q.From); err != nil {
			return f, err
		}
	}
	if q.To != "" {
		if f.To, err = time.Parse(time.RFC3339, q.To); err != nil {
			return f, err
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return f, errors.New("from must be before to")
	}
	return f, nil
}

// GetCallData aggregates the caller's tenant data.
// RBAC: dashboard roles. The tenant always comes from the token, never from the query.
func (h *Handlers) GetCallData(c *gin.Context) {
	if h.Fetcher == nil || h.Tenants == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "aggregator not configured"})
		return
	}
	ctx := c.Request.Context()
	log := logger.FromGin(c)

	tenantID, err := auth.TenantID(ctx)
	if err != nil || tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}

	var q fetchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if err := validate.Struct(q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := q.filters()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tc, err := h.Tenants.Resolve(ctx, tenantID)
	if errors.Is(err, tenants.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}
	if err != nil {
		log.Error("tenant resolve failed", "tenant_id", tenantID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant lookup failed"})
		return
	}

	res, err := h.Fetcher.Fetch(logger.With(ctx, log), tc, f, aggregator.Options{
		UseSynthetic:        q.Synthetic,
		ForceFresh:          q.Fresh,
		FallbackToSynthetic: h.FallbackToSynthetic,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, aggregator.ErrPhoneNotInTenant):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "phone not in tenant"})
	case errors.Is(err, aggregator.ErrAllSourcesUnavailable):
		log.Warn("all sources unavailable", "tenant_id", tenantID, "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "all sources unavailable"})
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		c.Abort()
	default:
		log.Error("fetch failed", "tenant_id", tenantID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "fetch failed"})
	}
}

// --- Webhooks ---

// IngestVoiceWebhook accepts a provider callback for the tenant in the path.
// Public route: the tenant id is checked against the registry, never trusted.
func (h *Handlers) IngestVoiceWebhook(c *gin.Context) {
	if h.Ingester == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"accepted": false})
		return
	}
	log := logger.FromGin(c)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"accepted": false})
		return
	}

	ctx := ingest.WithClientIP(logger.With(c.Request.Context(), log), c.ClientIP())
	ack, err := h.Ingester.Ingest(ctx, c.Param("tenant_id"), body)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, ack)
	case errors.Is(err, ingest.ErrUnknownTenant):
		c.AbortWithStatusJSON(http.StatusNotFound, ack)
	case errors.Is(err, ingest.ErrWorkflowMismatch):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ack)
	default:
		log.Error("webhook ingest failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ack)
	}
}

// --- Admin ---

// GetSyncState returns a tenant's staleness metadata.
// RBAC: operator or super_admin.
func (h *Handlers) GetSyncState(c *gin.Context) {
	if h.Cache == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cache not configured"})
		return
	}
	e, ok, err := h.Cache.Get(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		logger.FromGin(c).Error("cache read failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cache read failed"})
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no sync state"})
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteSyncState drops a deprovisioned tenant's staleness metadata.
// A tenant the registry still resolves is refused with 409.
// RBAC: operator or super_admin.
func (h *Handlers) DeleteSyncState(c *gin.Context) {
	if h.Cache == nil || h.Tenants == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cache not configured"})
		return
	}
	ctx := c.Request.Context()
	log := logger.FromGin(c)
	tenantID := c.Param("tenant_id")

	_, err := h.Tenants.Resolve(ctx, tenantID)
	if err == nil {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "tenant is still provisioned"})
		return
	}
	if !errors.Is(err, tenants.ErrNotFound) {
		log.Error("tenant resolve failed", "tenant_id", tenantID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant lookup failed"})
		return
	}

	if err := h.Cache.Delete(ctx, tenantID); err != nil {
		log.Error("cache delete failed", "tenant_id", tenantID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cache delete failed"})
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogCacheDeleted(ctx, tenantID, c.ClientIP()); err != nil {
			log.Warn("audit append failed", "err", err)
		}
	}
	c.Status(http.StatusNoContent)
}

// Convenience middleware bundles.

func RequireTenantAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireTenant(), rbac.RequireAnyRole(roles...)}
}
