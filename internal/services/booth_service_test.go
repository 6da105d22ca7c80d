package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/q-up/queue-backend/internal/database"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/internal/queue"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newBoothTestService(t *testing.T) (*BoothService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	booths := database.NewBoothRepository(sqlxDB)
	businesses := database.NewBusinessRepository(sqlxDB, nil, 3)
	factory := queue.NewSlotFactory(8)

	service := NewBoothService(booths, businesses, factory, bcrypt.MinCost, logger)
	return service, mock, func() { sqlxDB.Close() }
}

func boothRows(id uuid.UUID, businessName, keyHash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "business_name", "name", "api_key_hash", "created_at"}).
		AddRow(id.String(), businessName, "Front Door", keyHash, time.Now())
}

func TestCreateBooth_ReturnsUsableKeyOnce(t *testing.T) {
	service, mock, cleanup := newBoothTestService(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO booths`).
		WithArgs(sqlmock.AnyArg(), "Corner Cafe", "Front Door", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	booth, apiKey, err := service.CreateBooth(context.Background(), manager("Corner Cafe"), "Front Door")
	require.NoError(t, err)

	assert.Equal(t, "Corner Cafe", booth.BusinessName)
	assert.NotEmpty(t, apiKey)
	// The stored hash verifies against the plaintext key handed out
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(booth.APIKeyHash), []byte(apiKey)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooth_RequiresManager(t *testing.T) {
	service, _, cleanup := newBoothTestService(t)
	defer cleanup()

	_, _, err := service.CreateBooth(context.Background(), employee("Corner Cafe"), "Front Door")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBoothEnterQueue_AppendsWalkInSlot(t *testing.T) {
	service, mock, cleanup := newBoothTestService(t)
	defer cleanup()

	boothID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("booth-key"), bcrypt.MinCost)
	require.NoError(t, err)

	business := testBusiness("Corner Cafe", models.Queue{
		IsActive: true,
		Slots:    []models.QueueSlot{{Customer: "alice@example.com", TicketNumber: 2}},
	})

	mock.ExpectQuery(`SELECT (.+) FROM booths WHERE id = \$1`).
		WithArgs(boothID).
		WillReturnRows(boothRows(boothID, "Corner Cafe", string(hash)))

	var persisted models.Queue
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Corner Cafe").
		WillReturnRows(businessRows(t, business))
	mock.ExpectExec(`UPDATE businesses SET queue`).
		WithArgs(business.ID.String(), queueCapture(t, &persisted)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	slot, err := service.EnterQueue(context.Background(), boothID, "booth-key", "0415551234")
	require.NoError(t, err)

	assert.True(t, slot.FromBooth)
	assert.Equal(t, "0415551234", slot.Customer)
	assert.Equal(t, 3, slot.TicketNumber)

	require.Len(t, persisted.Slots, 2)
	assert.True(t, persisted.Slots[1].FromBooth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoothEnterQueue_WrongKey(t *testing.T) {
	service, mock, cleanup := newBoothTestService(t)
	defer cleanup()

	boothID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("booth-key"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM booths WHERE id = \$1`).
		WithArgs(boothID).
		WillReturnRows(boothRows(boothID, "Corner Cafe", string(hash)))

	_, err = service.EnterQueue(context.Background(), boothID, "stolen-key", "0415551234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBoothEnterQueue_UnknownBooth(t *testing.T) {
	service, mock, cleanup := newBoothTestService(t)
	defer cleanup()

	boothID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM booths WHERE id = \$1`).
		WithArgs(boothID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := service.EnterQueue(context.Background(), boothID, "any", "0415551234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoothEnterQueue_PhoneAlreadyWaiting(t *testing.T) {
	service, mock, cleanup := newBoothTestService(t)
	defer cleanup()

	boothID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("booth-key"), bcrypt.MinCost)
	require.NoError(t, err)

	business := testBusiness("Corner Cafe", models.Queue{
		IsActive: true,
		Slots:    []models.QueueSlot{{Customer: "0415551234", TicketNumber: 0, FromBooth: true}},
	})

	mock.ExpectQuery(`SELECT (.+) FROM booths WHERE id = \$1`).
		WithArgs(boothID).
		WillReturnRows(boothRows(boothID, "Corner Cafe", string(hash)))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Corner Cafe").
		WillReturnRows(businessRows(t, business))
	mock.ExpectRollback()

	_, err = service.EnterQueue(context.Background(), boothID, "booth-key", "0415551234")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoothEnterQueue_InactiveQueue(t *testing.T) {
	service, mock, cleanup := newBoothTestService(t)
	defer cleanup()

	boothID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("booth-key"), bcrypt.MinCost)
	require.NoError(t, err)

	business := testBusiness("Corner Cafe", models.Queue{IsActive: false})

	mock.ExpectQuery(`SELECT (.+) FROM booths WHERE id = \$1`).
		WithArgs(boothID).
		WillReturnRows(boothRows(boothID, "Corner Cafe", string(hash)))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Corner Cafe").
		WillReturnRows(businessRows(t, business))
	mock.ExpectRollback()

	_, err = service.EnterQueue(context.Background(), boothID, "booth-key", "0415551234")
	assert.ErrorIs(t, err, ErrQueueInactive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
