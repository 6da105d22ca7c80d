package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/q-up/queue-backend/internal/database"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFavoritesTestService(t *testing.T) (*FavoritesService, sqlmock.Sqlmock, redismock.ClientMock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	redisClient, redisMock := redismock.NewClientMock()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	businesses := database.NewBusinessRepository(sqlxDB, nil, 3)
	users := database.NewUserRepository(sqlxDB)
	presence := NewPresenceService(redisClient, 15*time.Minute)

	service := NewFavoritesService(businesses, users, presence, logger)
	return service, mock, redisMock, func() { sqlxDB.Close() }
}

func favouriteUserRows(email, favourites string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "user_type", "business_name", "current_queue", "favorite_businesses", "created_at", "updated_at"}).
		AddRow(uuid.NewString(), email, "customer", nil, nil, favourites, time.Now(), time.Now())
}

func TestFavoritesToggle_AddsWhenAbsent(t *testing.T) {
	service, mock, _, cleanup := newFavoritesTestService(t)
	defer cleanup()

	business := testBusiness("Corner Cafe", models.Queue{IsActive: true})

	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1`).
		WithArgs("Corner Cafe").
		WillReturnRows(businessRows(t, business))
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(favouriteUserRows("alice@example.com", "{}"))
	mock.ExpectExec(`UPDATE users`).
		WithArgs("alice@example.com", "Corner Cafe").
		WillReturnResult(sqlmock.NewResult(0, 1))

	added, err := service.Toggle(context.Background(), customer("alice@example.com"), "Corner Cafe")
	require.NoError(t, err)
	assert.True(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoritesToggle_RemovesWhenPresent(t *testing.T) {
	service, mock, _, cleanup := newFavoritesTestService(t)
	defer cleanup()

	business := testBusiness("Corner Cafe", models.Queue{IsActive: true})

	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1`).
		WithArgs("Corner Cafe").
		WillReturnRows(businessRows(t, business))
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(favouriteUserRows("alice@example.com", `{"Corner Cafe"}`))
	mock.ExpectExec(`UPDATE users`).
		WithArgs("alice@example.com", "Corner Cafe").
		WillReturnResult(sqlmock.NewResult(0, 1))

	added, err := service.Toggle(context.Background(), customer("alice@example.com"), "Corner Cafe")
	require.NoError(t, err)
	assert.False(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoritesToggle_UnknownBusiness(t *testing.T) {
	service, mock, _, cleanup := newFavoritesTestService(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1`).
		WithArgs("Nowhere").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := service.Toggle(context.Background(), customer("alice@example.com"), "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFavoritesToggle_RequiresCustomer(t *testing.T) {
	service, _, _, cleanup := newFavoritesTestService(t)
	defer cleanup()

	_, err := service.Toggle(context.Background(), employee("Corner Cafe"), "Corner Cafe")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFavoritesList_SkipsVanishedBusinesses(t *testing.T) {
	service, mock, redisMock, cleanup := newFavoritesTestService(t)
	defer cleanup()

	business := testBusiness("Corner Cafe", models.Queue{
		IsActive: true,
		Slots:    []models.QueueSlot{{Customer: "someone@example.com", TicketNumber: 0}},
	})

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(favouriteUserRows("alice@example.com", `{"Corner Cafe","Ghost Shop"}`))
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1`).
		WithArgs("Corner Cafe").
		WillReturnRows(businessRows(t, business))
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1`).
		WithArgs("Ghost Shop").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	redisMock.ExpectSCard("staff:online:Corner Cafe").SetVal(1)

	favourites, err := service.List(context.Background(), customer("alice@example.com"))
	require.NoError(t, err)

	require.Len(t, favourites, 1)
	info, ok := favourites["Corner Cafe"]
	require.True(t, ok)
	assert.True(t, info.IsActive)
	assert.Equal(t, 1, info.QueueLength)
	require.NotNil(t, info.CurrentWaitTime)
	assert.InDelta(t, 5.0, *info.CurrentWaitTime, 0.001)
	assert.NotEmpty(t, info.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
