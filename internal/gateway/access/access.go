package access

import (
	"errors"
	"strings"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/registry"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSubscriptionRequired   = errors.New("subscription required")
	ErrRegionRestricted       = errors.New("model not available in your region")
	ErrAdminRequired          = errors.New("admin access required")
)

// Denial reasons, stable for clients.
const (
	ReasonModelNotFound          = "model_not_found"
	ReasonAuthenticationRequired = "authentication_required"
	ReasonSubscriptionRequired   = "subscription_required"
	ReasonRegionRestricted       = "region_restricted"
)

const (
	UploadImages       = "image/*"
	UploadImagesAndPdf = "image/*,.pdf"
)

// Entitlement is the caller state access decisions are made on.
type Entitlement struct {
	UserID        string `json:"userId,omitempty"`
	Email         string `json:"email,omitempty"`
	Authenticated bool   `json:"authenticated"`
	Pro           bool   `json:"pro"`
	Admin         bool   `json:"admin"`
	CountryCode   string `json:"countryCode,omitempty"`
}

// Decision is the outcome of CanUse. Reason is empty when allowed.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Err maps a denial to its sentinel error, or nil when allowed.
func (d Decision) Err() error {
	switch d.Reason {
	case "":
		return nil
	case ReasonModelNotFound:
		return registry.ErrModelNotFound
	case ReasonAuthenticationRequired:
		return ErrAuthenticationRequired
	case ReasonSubscriptionRequired:
		return ErrSubscriptionRequired
	case ReasonRegionRestricted:
		return ErrRegionRestricted
	}
	return errors.New(d.Reason)
}

var (
	defaultRestrictedCountries = []string{"CN", "KP", "RU"}
	defaultRestrictedFamilies  = []string{registry.FamilyOpenAI, registry.FamilyAnthropic}
)

// Controller answers access questions against a registry. All methods are
// pure apart from the denial counter.
type Controller struct {
	registry  *registry.Registry
	countries map[string]bool
	families  map[string]bool
	metrics   *metrics.Metrics
}

// NewController creates a controller with the default region policy. m may
// be nil.
func NewController(reg *registry.Registry, m *metrics.Metrics) *Controller {
	c := &Controller{
		registry:  reg,
		countries: make(map[string]bool),
		families:  make(map[string]bool),
		metrics:   m,
	}
	for _, cc := range defaultRestrictedCountries {
		c.countries[cc] = true
	}
	for _, f := range defaultRestrictedFamilies {
		c.families[f] = true
	}
	return c
}

// CanUse applies the admission rules in order; the first failing rule
// decides the reason.
func (c *Controller) CanUse(modelID string, ent Entitlement) Decision {
	d := c.decide(modelID, ent)
	if !d.Allowed && c.metrics != nil {
		c.metrics.AccessDenials.WithLabelValues(d.Reason).Inc()
	}
	return d
}

func (c *Controller) decide(modelID string, ent Entitlement) Decision {
	m, err := c.registry.GetModel(modelID)
	if err != nil {
		return Decision{Reason: ReasonModelNotFound}
	}
	if m.RequiresAuth && !ent.Authenticated {
		return Decision{Reason: ReasonAuthenticationRequired}
	}
	if m.RequiresSubscription && !ent.Pro {
		return Decision{Reason: ReasonSubscriptionRequired}
	}
	if c.restricted(m, ent.CountryCode) {
		return Decision{Reason: ReasonRegionRestricted}
	}
	return Decision{Allowed: true}
}

func (c *Controller) restricted(m registry.ModelDescriptor, country string) bool {
	return c.countries[strings.ToUpper(strings.TrimSpace(country))] && c.families[m.Family]
}

// IsRestrictedInRegion reports whether modelID is blocked for country.
// Unknown models are not region restricted.
func (c *Controller) IsRestrictedInRegion(modelID, country string) bool {
	m, err := c.registry.GetModel(modelID)
	if err != nil {
		return false
	}
	return c.restricted(m, country)
}

// FilteredModels lists the catalogue minus models blocked for country.
func (c *Controller) FilteredModels(country string) []registry.ModelDescriptor {
	all := c.registry.ListModels()
	out := all[:0]
	for _, m := range all {
		if !c.restricted(m, country) {
			out = append(out, m)
		}
	}
	return out
}

// ShouldBypassRateLimit is true for signed-in callers on free unlimited
// models.
func (c *Controller) ShouldBypassRateLimit(modelID string, ent Entitlement) bool {
	m, err := c.registry.GetModel(modelID)
	if err != nil {
		return false
	}
	return ent.Authenticated && m.FreeUnlimited
}

// AcceptedUploadTypes returns the file accept list for the upload picker.
func (c *Controller) AcceptedUploadTypes(modelID string, ent Entitlement) string {
	m, err := c.registry.GetModel(modelID)
	if err == nil && m.SupportsPdf && ent.Pro {
		return UploadImagesAndPdf
	}
	return UploadImages
}

// RequireAdmin gates the admin surface on the user's role.
func (c *Controller) RequireAdmin(ent Entitlement) error {
	if !ent.Authenticated {
		return ErrAuthenticationRequired
	}
	if !ent.Admin {
		return ErrAdminRequired
	}
	return nil
}
