package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresence_SetOnlineRefreshesTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	service := NewPresenceService(client, 15*time.Minute)

	mock.ExpectSAdd("staff:online:Corner Cafe", "staff@corner.cafe").SetVal(1)
	mock.ExpectExpire("staff:online:Corner Cafe", 15*time.Minute).SetVal(true)

	err := service.SetOnline(context.Background(), "Corner Cafe", "staff@corner.cafe")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresence_SetOffline(t *testing.T) {
	client, mock := redismock.NewClientMock()
	service := NewPresenceService(client, 15*time.Minute)

	mock.ExpectSRem("staff:online:Corner Cafe", "staff@corner.cafe").SetVal(1)

	err := service.SetOffline(context.Background(), "Corner Cafe", "staff@corner.cafe")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresence_OnlineCount(t *testing.T) {
	client, mock := redismock.NewClientMock()
	service := NewPresenceService(client, 15*time.Minute)

	mock.ExpectSCard("staff:online:Corner Cafe").SetVal(3)

	count, err := service.OnlineCount(context.Background(), "Corner Cafe")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPresence_OnlineStaff(t *testing.T) {
	client, mock := redismock.NewClientMock()
	service := NewPresenceService(client, 15*time.Minute)

	mock.ExpectSMembers("staff:online:Corner Cafe").
		SetVal([]string{"a@corner.cafe", "b@corner.cafe"})

	staff, err := service.OnlineStaff(context.Background(), "Corner Cafe")
	require.NoError(t, err)
	assert.Len(t, staff, 2)
}

func TestPresence_KeysAreScopedPerBusiness(t *testing.T) {
	client, mock := redismock.NewClientMock()
	service := NewPresenceService(client, 15*time.Minute)

	mock.ExpectSCard("staff:online:Corner Cafe").SetVal(2)
	mock.ExpectSCard("staff:online:Other Shop").SetVal(0)

	count, err := service.OnlineCount(context.Background(), "Corner Cafe")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = service.OnlineCount(context.Background(), "Other Shop")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
