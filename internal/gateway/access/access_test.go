package access

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/registry"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		registry.ModelDescriptor{ID: "open", Family: registry.FamilyGoogle, MaxOutputTokens: 100, SupportsPdf: true},
		registry.ModelDescriptor{ID: "signed-in", Family: registry.FamilyMeta, RequiresAuth: true, FreeUnlimited: true, MaxOutputTokens: 100},
		registry.ModelDescriptor{
			ID: "pro-claude", Family: registry.FamilyAnthropic, MaxOutputTokens: 100,
			RequiresAuth: true, RequiresSubscription: true, SupportsPdf: true,
		},
		registry.ModelDescriptor{ID: "pro-grok", Family: registry.FamilyXAI, RequiresAuth: true, RequiresSubscription: true, MaxOutputTokens: 100},
	)
	require.NoError(t, err)
	return reg
}

var (
	anonymous = Entitlement{}
	signedIn  = Entitlement{UserID: "u1", Authenticated: true}
	pro       = Entitlement{UserID: "u2", Authenticated: true, Pro: true}
)

func TestCanUse(t *testing.T) {
	c := NewController(testRegistry(t), nil)

	tests := []struct {
		name   string
		model  string
		ent    Entitlement
		reason string
	}{
		{"unknown model", "nope", pro, ReasonModelNotFound},
		{"open model anonymous", "open", anonymous, ""},
		{"auth before subscription", "pro-claude", anonymous, ReasonAuthenticationRequired},
		{"signed in without subscription", "pro-claude", signedIn, ReasonSubscriptionRequired},
		{"pro subscriber", "pro-claude", pro, ""},
		{"auth only model", "signed-in", signedIn, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.CanUse(tt.model, tt.ent)
			assert.Equal(t, tt.reason == "", d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestCanUseRegionRestriction(t *testing.T) {
	c := NewController(testRegistry(t), nil)

	ru := pro
	ru.CountryCode = "RU"
	us := pro
	us.CountryCode = "US"
	lower := pro
	lower.CountryCode = "cn"

	assert.Equal(t, Decision{Reason: ReasonRegionRestricted}, c.CanUse("pro-claude", ru))
	assert.Equal(t, Decision{Allowed: true}, c.CanUse("pro-claude", us))
	assert.Equal(t, Decision{Reason: ReasonRegionRestricted}, c.CanUse("pro-claude", lower))
	// other families stay available
	assert.Equal(t, Decision{Allowed: true}, c.CanUse("pro-grok", ru))
}

func TestCanUseRegionCheckedLast(t *testing.T) {
	c := NewController(testRegistry(t), nil)

	ent := signedIn
	ent.CountryCode = "KP"
	assert.Equal(t, ReasonSubscriptionRequired, c.CanUse("pro-claude", ent).Reason)
}

func TestCanUseCountsDenials(t *testing.T) {
	m := metrics.New()
	c := NewController(testRegistry(t), m)

	c.CanUse("pro-claude", anonymous)
	c.CanUse("pro-claude", signedIn)
	c.CanUse("open", anonymous)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccessDenials.WithLabelValues(ReasonAuthenticationRequired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccessDenials.WithLabelValues(ReasonSubscriptionRequired)))
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())
	assert.ErrorIs(t, Decision{Reason: ReasonModelNotFound}.Err(), registry.ErrModelNotFound)
	assert.ErrorIs(t, Decision{Reason: ReasonAuthenticationRequired}.Err(), ErrAuthenticationRequired)
	assert.ErrorIs(t, Decision{Reason: ReasonSubscriptionRequired}.Err(), ErrSubscriptionRequired)
	assert.ErrorIs(t, Decision{Reason: ReasonRegionRestricted}.Err(), ErrRegionRestricted)
}

func TestShouldBypassRateLimit(t *testing.T) {
	c := NewController(testRegistry(t), nil)

	assert.True(t, c.ShouldBypassRateLimit("signed-in", signedIn))
	assert.False(t, c.ShouldBypassRateLimit("signed-in", anonymous))
	assert.False(t, c.ShouldBypassRateLimit("open", signedIn))
	assert.False(t, c.ShouldBypassRateLimit("nope", signedIn))
}

func TestAcceptedUploadTypes(t *testing.T) {
	c := NewController(testRegistry(t), nil)

	assert.Equal(t, UploadImagesAndPdf, c.AcceptedUploadTypes("pro-claude", pro))
	assert.Equal(t, UploadImages, c.AcceptedUploadTypes("pro-claude", signedIn))
	assert.Equal(t, UploadImages, c.AcceptedUploadTypes("pro-grok", pro))
	assert.Equal(t, UploadImages, c.AcceptedUploadTypes("nope", pro))
}

func TestFilteredModels(t *testing.T) {
	c := NewController(testRegistry(t), nil)

	ids := func(ms []registry.ModelDescriptor) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []string{"open", "signed-in", "pro-grok"}, ids(c.FilteredModels("CN")))
	assert.Equal(t, []string{"open", "signed-in", "pro-claude", "pro-grok"}, ids(c.FilteredModels("IN")))
	assert.True(t, c.IsRestrictedInRegion("pro-claude", "ru"))
	assert.False(t, c.IsRestrictedInRegion("nope", "RU"))
}

func TestDefaultCatalogueRegionPolicy(t *testing.T) {
	c := NewController(registry.Default(), nil)

	assert.True(t, c.IsRestrictedInRegion("scira-anthropic", "CN"))
	assert.True(t, c.IsRestrictedInRegion("scira-gpt-4o-mini", "RU"))
	assert.False(t, c.IsRestrictedInRegion("scira-default", "RU"))
	assert.False(t, c.IsRestrictedInRegion("scira-anthropic", "US"))
}

func TestRequireAdmin(t *testing.T) {
	c := NewController(testRegistry(t), nil)

	assert.ErrorIs(t, c.RequireAdmin(anonymous), ErrAuthenticationRequired)
	assert.ErrorIs(t, c.RequireAdmin(pro), ErrAdminRequired)
	assert.NoError(t, c.RequireAdmin(Entitlement{UserID: "a", Authenticated: true, Admin: true}))
}
