package entitlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/cache"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/database"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

// Sources of pro access.
const (
	SourceNone       = "none"
	SourcePayment    = "payment"
	SourceAdminGrant = "admin_grant"
)

// Subscription states reported by Status.
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
	SubscriptionNone    = "none"
)

const expiringSoonDays = 7

// Store is the data the service reads. *database.DB implements it.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ActiveGrant(ctx context.Context, userID string, now time.Time) (*models.AdminGrant, error)
	LatestSucceededPayment(ctx context.Context, userID string) (*models.PaymentRecord, error)
}

// Status is the subscription document served to a signed-in user.
type Status struct {
	IsProUser           bool       `json:"isProUser"`
	ProSource           string     `json:"proSource"`
	SubscriptionStatus  string     `json:"subscriptionStatus"`
	ExpiresAt           *time.Time `json:"expiresAt"`
	DaysUntilExpiration *int       `json:"daysUntilExpiration"`
	IsExpiringSoon      bool       `json:"isExpiringSoon"`
}

// Service derives caller entitlements from users, grants and payments.
type Service struct {
	store     Store
	cache     *cache.EntitlementCache
	proPeriod time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates an entitlement service. A succeeded payment grants pro
// for proPeriodDays. c may be nil to disable caching.
func NewService(store Store, c *cache.EntitlementCache, proPeriodDays int, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		cache:     c,
		proPeriod: time.Duration(proPeriodDays) * 24 * time.Hour,
		now:       time.Now,
		logger:    logger.OrDefault(log),
	}
}

// Load returns the entitlement of userID as seen from country. An empty
// userID, or one that no longer exists, yields an anonymous entitlement.
func (s *Service) Load(ctx context.Context, userID, country string) (access.Entitlement, error) {
	anonymous := access.Entitlement{CountryCode: country}
	if userID == "" {
		return anonymous, nil
	}

	var gen string
	if s.cache != nil {
		ent, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("entitlement cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if ok {
			ent.CountryCode = country
			return ent, nil
		}
		// Must be read before the database so an Invalidate during the load
		// outdates what we are about to cache.
		if gen, err = s.cache.Generation(ctx, userID); err != nil {
			s.logger.Warn("entitlement cache generation read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return anonymous, nil
	}
	if err != nil {
		return anonymous, fmt.Errorf("load user %s: %w", userID, err)
	}

	status, err := s.Status(ctx, userID)
	if err != nil {
		return anonymous, err
	}

	ent := access.Entitlement{
		UserID:        user.ID,
		Email:         user.Email,
		Authenticated: true,
		Pro:           status.IsProUser,
		Admin:         user.IsAdmin(),
	}
	if s.cache != nil && gen != "" {
		if err := s.cache.Set(ctx, userID, gen, ent); err != nil {
			s.logger.Warn("entitlement cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	ent.CountryCode = country
	return ent, nil
}

// Invalidate drops any cached entitlement for userID.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, userID)
}

// Status reports where pro access comes from and when it ends. An active
// admin grant takes precedence over payments.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	now := s.now()

	grant, err := s.store.ActiveGrant(ctx, userID, now)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("load grant for %s: %w", userID, err)
	}
	if grant != nil {
		st := &Status{
			IsProUser:          true,
			ProSource:          SourceAdminGrant,
			SubscriptionStatus: SubscriptionActive,
		}
		if grant.ExpiresAt != nil {
			s.setExpiry(st, *grant.ExpiresAt, now)
		}
		return st, nil
	}

	payment, err := s.store.LatestSucceededPayment(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return &Status{ProSource: SourceNone, SubscriptionStatus: SubscriptionNone}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load payment for %s: %w", userID, err)
	}

	expires := payment.CreatedAt.Add(s.proPeriod)
	if !now.Before(expires) {
		return &Status{
			ProSource:          SourceNone,
			SubscriptionStatus: SubscriptionExpired,
			ExpiresAt:          &expires,
		}, nil
	}

	st := &Status{
		IsProUser:          true,
		ProSource:          SourcePayment,
		SubscriptionStatus: SubscriptionActive,
	}
	s.setExpiry(st, expires, now)
	return st, nil
}

func (s *Service) setExpiry(st *Status, expires, now time.Time) {
	days := int(math.Ceil(expires.Sub(now).Hours() / 24))
	st.ExpiresAt = &expires
	st.DaysUntilExpiration = &days
	st.IsExpiringSoon = days <= expiringSoonDays
}

// CountryFromHeaders reads the caller country set by the edge network.
func CountryFromHeaders(get func(string) string) string {
	for _, h := range []string{"X-Vercel-IP-Country", "CF-IPCountry"} {
		if v := get(h); v != "" {
			return v
		}
	}
	return ""
}
