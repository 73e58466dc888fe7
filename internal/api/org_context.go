package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/ignite/campaign-intelligence/internal/pkg/httputil"
)

// OrgContextKey is the key for storing the organization ID in the request
// context.
type OrgContextKey struct{}

// ErrNoOrganization is returned when a request carries no usable
// organization ID.
var ErrNoOrganization = errors.New("organization ID not found in request")

// OrgResolver extracts the tenant of a request.
type OrgResolver struct {
	defaultOrgID uuid.UUID
}

// NewOrgResolver creates a resolver. In dev mode (DEV_MODE=true or
// ENVIRONMENT=development) DEFAULT_ORG_ID is used when a request names no
// organization.
func NewOrgResolver() *OrgResolver {
	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"
	var def uuid.UUID
	if devMode {
		if parsed, err := uuid.Parse(os.Getenv("DEFAULT_ORG_ID")); err == nil {
			def = parsed
		}
	}
	return &OrgResolver{defaultOrgID: def}
}

// ExtractOrgID resolves the organization.
// Priority: 1. context (set by auth middleware), 2. X-Organization-ID header,
// 3. org_id query param, 4. dev mode default.
func (p *OrgResolver) ExtractOrgID(r *http.Request) (uuid.UUID, error) {
	if id, ok := r.Context().Value(OrgContextKey{}).(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	for _, raw := range []string{r.Header.Get("X-Organization-ID"), r.URL.Query().Get("org_id")} {
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, errors.New("organization ID must be a UUID")
		}
		return id, nil
	}
	if p.defaultOrgID != uuid.Nil {
		return p.defaultOrgID, nil
	}
	return uuid.Nil, ErrNoOrganization
}

// RequireOrg rejects requests without an organization and stores the
// resolved ID in the context.
func (p *OrgResolver) RequireOrg(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := p.ExtractOrgID(r)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "missing_organization", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), OrgContextKey{}, id)))
	})
}

// orgID returns the organization stored by RequireOrg.
func orgID(r *http.Request) string {
	id, _ := r.Context().Value(OrgContextKey{}).(uuid.UUID)
	return id.String()
}
