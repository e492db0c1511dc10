package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilpoint/vpn-backend/internal/database"
	"github.com/veilpoint/vpn-backend/internal/models"
	"github.com/veilpoint/vpn-backend/internal/repository"
	"github.com/veilpoint/vpn-backend/internal/service"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// setupConnectionServiceTest wires the service against a mocked database,
// with real repositories so the transactional flows are exercised end to end.
func setupConnectionServiceTest(t *testing.T) (*service.ConnectionService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbPool := &database.Pool{DB: db}

	svc := service.NewConnectionService(
		dbPool,
		repository.NewServerRepository(dbPool),
		repository.NewSessionRepository(dbPool),
		repository.NewProfileRepository(dbPool),
	)

	return svc, mock, func() {
		db.Close()
	}
}

func TestConnectionService_ListServers(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{
		"server_id", "name", "country_code", "flag_emoji", "ip_address",
		"port", "protocol", "ping_ms", "load_percent", "current_users",
		"max_users", "is_active",
	}).
		AddRow("lu", "Люксембург", "LU", "🇱🇺", "94.242.5.21", 51820, "WireGuard", 8, 45, 45, 100, true)

	mock.ExpectQuery("SELECT server_id, name, country_code, flag_emoji, ip_address").
		WillReturnRows(rows)

	// Execute the method being tested
	servers, err := svc.ListServers(context.Background())

	// Assert the results
	assert.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "lu", servers[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_Connect(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	now := time.Now().UTC()

	// The whole open path runs in one transaction: capacity check under a
	// row lock, session insert, occupancy increment, profile bump.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_users, max_users").
		WithArgs("mc").
		WillReturnRows(sqlmock.NewRows([]string{"current_users", "max_users"}).AddRow(23, 100))
	mock.ExpectQuery("INSERT INTO vpn_sessions").
		WithArgs("guest_user", "mc", sqlmock.AnyArg(), models.SessionStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "connected_at"}).AddRow(int64(42), now))
	mock.ExpectExec("UPDATE vpn_servers").
		WithArgs("mc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("guest_user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Execute the method being tested
	result, err := svc.Connect(context.Background(), "guest_user", "mc")

	// Assert the results
	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(42), result.SessionID)
	assert.NotEmpty(t, result.SessionToken)
	assert.WithinDuration(t, now, result.ConnectedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_Connect_ServerNotFound(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	// The missing server aborts the transaction before any mutation
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_users, max_users").
		WithArgs("nonexistent").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	// Execute the method being tested
	result, err := svc.Connect(context.Background(), "guest_user", "nonexistent")

	// Assert the results
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_Connect_ServerFull(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	// A server at capacity is refused and nothing is written
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_users, max_users").
		WithArgs("mc").
		WillReturnRows(sqlmock.NewRows([]string{"current_users", "max_users"}).AddRow(100, 100))
	mock.ExpectRollback()

	// Execute the method being tested
	result, err := svc.Connect(context.Background(), "guest_user", "mc")

	// Assert the results
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, utils.IsCapacityExceededError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_Connect_IncrementFails(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	now := time.Now().UTC()

	// A failure after the insert rolls the whole transaction back
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_users, max_users").
		WithArgs("mc").
		WillReturnRows(sqlmock.NewRows([]string{"current_users", "max_users"}).AddRow(23, 100))
	mock.ExpectQuery("INSERT INTO vpn_sessions").
		WithArgs("guest_user", "mc", sqlmock.AnyArg(), models.SessionStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "connected_at"}).AddRow(int64(42), now))
	mock.ExpectExec("UPDATE vpn_servers").
		WithArgs("mc").
		WillReturnError(errors.New("database error"))
	mock.ExpectRollback()

	// Execute the method being tested
	result, err := svc.Connect(context.Background(), "guest_user", "mc")

	// Assert the results
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_Disconnect(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	connectedAt := time.Now().UTC().Add(-90 * time.Minute)

	// The active session is read first to resolve the server and duration
	mock.ExpectQuery("SELECT id, user_id, server_id, session_token, status, connected_at").
		WithArgs("token123", models.SessionStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "server_id", "session_token", "status", "connected_at"}).
			AddRow(int64(42), "guest_user", "mc", "token123", models.SessionStatusActive, connectedAt))

	// The close and the occupancy release share a transaction
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE vpn_sessions").
		WithArgs(models.SessionStatusDisconnected, sqlmock.AnyArg(), sqlmock.AnyArg(), "token123", models.SessionStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE vpn_servers").
		WithArgs("mc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Execute the method being tested
	duration, err := svc.Disconnect(context.Background(), "token123")

	// Assert the results
	assert.NoError(t, err)
	assert.InDelta(t, int64(90*60), duration, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_Disconnect_SessionNotFound(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, user_id, server_id, session_token, status, connected_at").
		WithArgs("missing", models.SessionStatusActive).
		WillReturnError(sql.ErrNoRows)

	// Execute the method being tested
	duration, err := svc.Disconnect(context.Background(), "missing")

	// Assert the results
	assert.Error(t, err)
	assert.Zero(t, duration)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_Disconnect_LostRace(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	connectedAt := time.Now().UTC().Add(-time.Minute)

	mock.ExpectQuery("SELECT id, user_id, server_id, session_token, status, connected_at").
		WithArgs("token123", models.SessionStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "server_id", "session_token", "status", "connected_at"}).
			AddRow(int64(42), "guest_user", "mc", "token123", models.SessionStatusActive, connectedAt))

	// A concurrent disconnect already closed the session: the status
	// predicate matches zero rows and the transaction rolls back without
	// touching occupancy.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE vpn_sessions").
		WithArgs(models.SessionStatusDisconnected, sqlmock.AnyArg(), sqlmock.AnyArg(), "token123", models.SessionStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// Execute the method being tested
	duration, err := svc.Disconnect(context.Background(), "token123")

	// Assert the results
	assert.Error(t, err)
	assert.Zero(t, duration)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_History_ClampsLimit(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	// An oversized limit falls back to the default page size
	mock.ExpectQuery("SELECT s.server_id, srv.name, srv.flag_emoji").
		WithArgs("guest_user", models.SessionStatusDisconnected, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"server_id", "name", "flag_emoji",
			"connected_at", "disconnected_at", "duration_seconds",
			"data_downloaded_mb", "data_uploaded_mb",
		}))

	// Execute the method being tested
	history, err := svc.History(context.Background(), "guest_user", 500)

	// Assert the results
	assert.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_CloseStaleSessions(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	connectedAt := time.Now().UTC().Add(-48 * time.Hour)

	// One stale token is found and closed through the normal path
	mock.ExpectQuery("SELECT session_token").
		WithArgs(models.SessionStatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"session_token"}).AddRow("stale1"))

	mock.ExpectQuery("SELECT id, user_id, server_id, session_token, status, connected_at").
		WithArgs("stale1", models.SessionStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "server_id", "session_token", "status", "connected_at"}).
			AddRow(int64(7), "guest_user", "mc", "stale1", models.SessionStatusActive, connectedAt))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE vpn_sessions").
		WithArgs(models.SessionStatusDisconnected, sqlmock.AnyArg(), sqlmock.AnyArg(), "stale1", models.SessionStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE vpn_servers").
		WithArgs("mc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Execute the method being tested
	closed, err := svc.CloseStaleSessions(context.Background(), 24*time.Hour)

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionService_CloseStaleSessions_NoneStale(t *testing.T) {
	// Set up the test
	svc, mock, cleanup := setupConnectionServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT session_token").
		WithArgs(models.SessionStatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"session_token"}))

	// Execute the method being tested
	closed, err := svc.CloseStaleSessions(context.Background(), 24*time.Hour)

	// Assert the results
	assert.NoError(t, err)
	assert.Zero(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
