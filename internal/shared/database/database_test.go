package database

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return Wrap(conn), mock
}

func TestFindUserIDByEmail(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM users WHERE lower(email) = lower($1)`)).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user_1"))

	id, err := db.FindUserIDByEmail(context.Background(), " a@b.com ")
	require.NoError(t, err)
	assert.Equal(t, "user_1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserIDByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs("nobody@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := db.FindUserIDByEmail(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPayment_InsertThenReplay(t *testing.T) {
	db, mock := newMock(t)
	userID := "user_1"

	rec := &models.PaymentRecord{
		ID:            "CF_ORDER_1",
		Status:        models.PaymentSucceeded,
		TotalAmount:   decimal.NewFromInt(249),
		Currency:      "INR",
		PaymentMethod: "upi",
		UserID:        &userID,
		Metadata:      map[string]any{"provider": "cashfree"},
		CreatedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	upsert := regexp.QuoteMeta(`ON CONFLICT (id) DO UPDATE SET`)
	args := []driver.Value{
		"CF_ORDER_1", "succeeded", sqlmock.AnyArg(), "INR", "upi", sqlmock.AnyArg(),
		nil, nil, `{"provider":"cashfree"}`, nil, sqlmock.AnyArg(),
	}

	mock.ExpectQuery(upsert).WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"status", "inserted"}).AddRow("succeeded", true))
	mock.ExpectQuery(upsert).WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"status", "inserted"}).AddRow("succeeded", false))

	first, err := db.UpsertPayment(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, first.Inserted)
	assert.Equal(t, models.PaymentSucceeded, first.Status)

	second, err := db.UpsertPayment(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, second.Inserted)
	assert.Equal(t, models.PaymentSucceeded, second.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPayment_KeepsFirstTerminalStatus(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "inserted"}).AddRow("succeeded", false))

	res, err := db.UpsertPayment(context.Background(), &models.PaymentRecord{
		ID:          "cf_987",
		Status:      models.PaymentFailed,
		TotalAmount: decimal.NewFromInt(249),
		Currency:    "INR",
	})
	require.NoError(t, err)
	assert.False(t, res.Inserted)
	assert.Equal(t, models.PaymentSucceeded, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers_Search(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "email_verified", "image", "role", "created_at", "updated_at"}).
		AddRow("u2", "Asha", "asha@ajstudioz.com", true, nil, "user", now, now)

	mock.ExpectQuery(`FROM users\s+WHERE \$1 = '' OR name ILIKE \$2 OR email ILIKE \$2`).
		WithArgs("ash", "%ash%", 20, 0).
		WillReturnRows(rows)

	users, err := db.ListUsers(context.Background(), "ash", 20, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "asha@ajstudioz.com", users[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, searchPattern(" 50%_off "))
}

func TestRevokeGrants(t *testing.T) {
	db, mock := newMock(t)
	at := time.Now()

	mock.ExpectExec(`UPDATE admin_grants`).
		WithArgs("user_1", at, "admin_1", "expired").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := db.RevokeGrants(context.Background(), "user_1", "admin_1", "expired", at)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveGrant_NotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`FROM admin_grants`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := db.ActiveGrant(context.Background(), "user_1", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPing(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectPing()
	assert.NoError(t, Wrap(conn).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogChatUsage(t *testing.T) {
	db, mock := newMock(t)
	userID := "user_1"
	started := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO chat_usage`).
		WithArgs(&userID, "scira-default", "groq", "llama-3.3-70b-versatile", 120, 3, 2, 5, false, false, 200, nil, started).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.LogChatUsage(context.Background(), &models.ChatUsage{
		UserID:           &userID,
		ModelID:          "scira-default",
		Provider:         "groq",
		BackendModel:     "llama-3.3-70b-versatile",
		LatencyMs:        120,
		PromptTokens:     3,
		CompletionTokens: 2,
		TotalTokens:      5,
		StatusCode:       200,
		CreatedAt:        started,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
