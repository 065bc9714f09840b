package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/entitlement"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Premium access actions.
const (
	ActionGrant  = "grant"
	ActionRevoke = "revoke"
)

var (
	// ErrNoActiveGrant is returned when revoking a user without an active grant.
	ErrNoActiveGrant = errors.New("user has no active grant")
	ErrInvalidExpiry = errors.New("expiresAt must be in the future")
)

// Store is the data the admin service reads and writes. *database.DB
// implements it.
type Store interface {
	ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	CountUsers(ctx context.Context, search string) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertGrant(ctx context.Context, g *models.AdminGrant) error
	RevokeGrants(ctx context.Context, userID, revokedBy, reason string, at time.Time) (int64, error)
	ListGrants(ctx context.Context) ([]models.AdminGrantView, error)
}

// Entitlements reports and refreshes subscription state.
// *entitlement.Service implements it.
type Entitlements interface {
	Status(ctx context.Context, userID string) (*entitlement.Status, error)
	Invalidate(ctx context.Context, userID string) error
}

// Query selects a page of users.
type Query struct {
	Page   int
	Limit  int
	Search string
}

// PremiumRequest is the body of a grant or revoke.
type PremiumRequest struct {
	UserEmail string     `json:"userEmail" validate:"required,email"`
	Action    string     `json:"action" validate:"required,oneof=grant revoke"`
	Reason    string     `json:"reason" validate:"max=500"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// UserView is a user annotated with subscription state.
type UserView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastSignIn    time.Time  `json:"lastSignIn"`
	IsProUser     bool       `json:"isProUser"`
	ProSource     *string    `json:"proSource"`
	ProExpiresAt  *time.Time `json:"proExpiresAt"`
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Success    bool       `json:"success"`
	Users      []UserView `json:"users"`
	Pagination Pagination `json:"pagination"`
	Search     string     `json:"search"`
	Timestamp  time.Time  `json:"timestamp"`
}

// PremiumResult reports a completed grant or revoke.
type PremiumResult struct {
	Success    bool      `json:"success"`
	Action     string    `json:"action"`
	UserEmail  string    `json:"userEmail"`
	Reason     string    `json:"reason"`
	GrantID    string    `json:"grantId,omitempty"`
	Revoked    int64     `json:"revoked,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	AdminEmail string    `json:"adminEmail"`
}

// GrantView is one grant in the audit listing.
type GrantView struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	GrantedBy    string     `json:"grantedBy"`
	GrantedAt    time.Time  `json:"grantedAt"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	RevokedAt    *time.Time `json:"revokedAt"`
	RevokedBy    *string    `json:"revokedBy"`
	RevokeReason *string    `json:"revokeReason"`
	UserEmail    *string    `json:"userEmail"`
	UserName     *string    `json:"userName"`
}

// GrantList is the grant audit listing with counts.
type GrantList struct {
	Total         int         `json:"total"`
	ActiveGrants  int         `json:"activeGrants"`
	RevokedGrants int         `json:"revokedGrants"`
	Grants        []GrantView `json:"grants"`
}

// Service implements the admin operations.
type Service struct {
	store        Store
	entitlements Entitlements
	validate     *validator.Validate
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(store Store, ent Entitlements, log *zap.Logger) *Service {
	return &Service{
		store:        store,
		entitlements: ent,
		validate:     validator.New(),
		now:          time.Now,
		logger:       logger.OrDefault(log),
	}
}

// ListUsers returns a page of users, newest first.
func (s *Service) ListUsers(ctx context.Context, q Query) (*UserPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)

	total, err := s.store.CountUsers(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, q.Search, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, s.userView(ctx, u))
	}

	return &UserPage{
		Success: true,
		Users:   views,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: (total + q.Limit - 1) / q.Limit,
			HasNext:    q.Page*q.Limit < total,
			HasPrev:    q.Page > 1,
		},
		Search:    q.Search,
		Timestamp: s.now().UTC(),
	}, nil
}

func (s *Service) userView(ctx context.Context, u models.User) UserView {
	v := UserView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		LastSignIn:    u.UpdatedAt,
	}
	if s.entitlements == nil {
		return v
	}
	st, err := s.entitlements.Status(ctx, u.ID)
	if err != nil {
		// listing still renders, the user shows as free
		s.logger.Warn("failed to load subscription status", zap.String("user_id", u.ID), zap.Error(err))
		return v
	}
	v.IsProUser = st.IsProUser
	if st.IsProUser {
		v.ProSource = &st.ProSource
		v.ProExpiresAt = st.ExpiresAt
	}
	return v
}

// SetPremium applies a validated grant or revoke on behalf of the admin.
func (s *Service) SetPremium(ctx context.Context, adminUser *models.User, req PremiumRequest) (*PremiumResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Action == ActionGrant {
		return s.GrantPremium(ctx, adminUser, req.UserEmail, req.Reason, req.ExpiresAt)
	}
	return s.RevokePremium(ctx, adminUser, req.UserEmail, req.Reason)
}

// GrantPremium gives the user pro access until expiresAt, or indefinitely
// when expiresAt is nil. Unknown emails return database.ErrNotFound.
func (s *Service) GrantPremium(ctx context.Context, adminUser *models.User, email, reason string, expiresAt *time.Time) (*PremiumResult, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, ErrInvalidExpiry
	}
	if reason == "" {
		reason = "Granted by admin"
	}

	g := &models.AdminGrant{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		GrantedBy: adminUser.ID,
		GrantedAt: now,
		ExpiresAt: expiresAt,
		Reason:    reason,
		Status:    models.GrantActive,
	}
	if err := s.store.InsertGrant(ctx, g); err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)

	s.logger.Info("premium access granted",
		zap.String("user_id", user.ID),
		zap.String("admin_id", adminUser.ID),
		zap.String("grant_id", g.ID),
	)
	return &PremiumResult{
		Success:    true,
		Action:     ActionGrant,
		UserEmail:  user.Email,
		Reason:     reason,
		GrantID:    g.ID,
		Timestamp:  now,
		AdminEmail: adminUser.Email,
	}, nil
}

// RevokePremium revokes every active grant of the user. Payments are not
// affected.
func (s *Service) RevokePremium(ctx context.Context, adminUser *models.User, email, reason string) (*PremiumResult, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if reason == "" {
		reason = "Revoked by admin"
	}

	n, err := s.store.RevokeGrants(ctx, user.ID, adminUser.ID, reason, now)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoActiveGrant
	}
	s.invalidate(ctx, user.ID)

	s.logger.Info("premium access revoked",
		zap.String("user_id", user.ID),
		zap.String("admin_id", adminUser.ID),
		zap.Int64("grants", n),
	)
	return &PremiumResult{
		Success:    true,
		Action:     ActionRevoke,
		UserEmail:  user.Email,
		Reason:     reason,
		Revoked:    n,
		Timestamp:  now,
		AdminEmail: adminUser.Email,
	}, nil
}

// ListGrants returns every grant with its user, oldest first.
func (s *Service) ListGrants(ctx context.Context) (*GrantList, error) {
	grants, err := s.store.ListGrants(ctx)
	if err != nil {
		return nil, err
	}

	out := &GrantList{Total: len(grants), Grants: make([]GrantView, 0, len(grants))}
	for _, g := range grants {
		switch g.Status {
		case models.GrantActive:
			out.ActiveGrants++
		case models.GrantRevoked:
			out.RevokedGrants++
		}
		out.Grants = append(out.Grants, GrantView{
			ID:           g.ID,
			UserID:       g.UserID,
			GrantedBy:    g.GrantedBy,
			GrantedAt:    g.GrantedAt,
			ExpiresAt:    g.ExpiresAt,
			Reason:       g.Reason,
			Status:       g.Status,
			RevokedAt:    g.RevokedAt,
			RevokedBy:    g.RevokedBy,
			RevokeReason: g.RevokeReason,
			UserEmail:    g.UserEmail,
			UserName:     g.UserName,
		})
	}
	return out, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.entitlements == nil {
		return
	}
	if err := s.entitlements.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate entitlement", zap.String("user_id", userID), zap.Error(err))
	}
}
