package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-app/internal/domain/profiles"
	"crm-app/internal/domain/subscriptions"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return db, mock
}

var profileColumns = []string{
	"id", "tenant_id", "email", "name", "permission_level", "active", "is_platform_operator", "created_at", "updated_at",
}

func TestProfileStore_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	id, tenant := uuid.New(), uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "user_profiles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(id.String(), tenant.String(), "ana@example.com", "Ana", "editor", true, false, created, created))

	p, err := NewProfileStore(db).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, tenant, p.TenantID)
	assert.Equal(t, profiles.LevelEditor, p.PermissionLevel)
	assert.True(t, p.Active)
	assert.False(t, p.IsPlatformOperator)
}

func TestProfileStore_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "user_profiles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(profileColumns))

	_, err := NewProfileStore(db).GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileStore_GetByID_TransientError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT \* FROM "user_profiles"`).WillReturnError(boom)

	_, err := NewProfileStore(db).GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, boom)
}

func TestProfileStore_ListByTenant(t *testing.T) {
	db, mock := newMockDB(t)
	tenant := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "user_profiles" WHERE tenant_id = \$1 ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(uuid.NewString(), tenant.String(), "a@example.com", "A", "admin", true, false, now, now).
			AddRow(uuid.NewString(), tenant.String(), "b@example.com", "B", "view_only", false, false, now, now))

	list, err := NewProfileStore(db).ListByTenant(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, profiles.LevelAdmin, list[0].PermissionLevel)
	assert.False(t, list[1].Active)
}

func TestProfileStore_SetActive(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE "user_profiles" SET "active"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewProfileStore(db).SetActive(context.Background(), uuid.New(), false))
}

func TestProfileStore_SetPermissionLevel_MissingRow(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE "user_profiles" SET "permission_level"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewProfileStore(db).SetPermissionLevel(context.Background(), uuid.New(), profiles.LevelAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileStore_SetPlatformOperator(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE "user_profiles" SET "is_platform_operator"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewProfileStore(db).SetPlatformOperator(context.Background(), uuid.New(), true))
}

var subscriptionColumns = []string{
	"id", "tenant_id", "status", "trial_start_date", "trial_end_date", "current_period_end",
	"monthly_value", "stripe_customer_id", "stripe_subscription_id", "created_at", "updated_at",
}

func TestSubscriptionStore_GetByTenant(t *testing.T) {
	db, mock := newMockDB(t)
	tenant := uuid.New()
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE tenant_id = \$1`).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow(3, tenant.String(), "trial", nil, end, nil, 99.9, nil, nil, end, end))

	sub, err := NewSubscriptionStore(db).GetByTenant(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, uint(3), sub.ID)
	assert.Equal(t, subscriptions.StatusTrial, sub.Status)
	require.NotNil(t, sub.TrialEndDate)
	assert.True(t, end.Equal(*sub.TrialEndDate))
	assert.Nil(t, sub.TrialStartDate)
	assert.Nil(t, sub.StripeSubscriptionID)
}

func TestSubscriptionStore_GetByTenant_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE tenant_id = \$1`).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns))

	_, err := NewSubscriptionStore(db).GetByTenant(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionStore_GetByStripeSubscriptionID(t *testing.T) {
	db, mock := newMockDB(t)
	tenant := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE stripe_subscription_id = \$1`).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow(9, tenant.String(), "active", nil, nil, now, 49.0, "cus_1", "sub_1", now, now))

	sub, err := NewSubscriptionStore(db).GetByStripeSubscriptionID(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, tenant, sub.TenantID)
	require.NotNil(t, sub.StripeCustomerID)
	assert.Equal(t, "cus_1", *sub.StripeCustomerID)
}

func TestSubscriptionStore_UpsertForTenant(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT INTO "subscriptions" .* ON CONFLICT \("tenant_id"\) DO UPDATE SET .*"status"="excluded"."status"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	sub := &subscriptions.Subscription{TenantID: uuid.New(), Status: subscriptions.StatusActive}
	require.NoError(t, NewSubscriptionStore(db).UpsertForTenant(context.Background(), sub))
	assert.Equal(t, uint(11), sub.ID)
}

func TestSubscriptionStore_UpsertForTenant_RequiresTenant(t *testing.T) {
	db, _ := newMockDB(t)

	err := NewSubscriptionStore(db).UpsertForTenant(context.Background(), &subscriptions.Subscription{Status: subscriptions.StatusTrial})
	assert.Error(t, err)
}
