package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veilpoint/vpn-backend/internal/constants"
	"github.com/veilpoint/vpn-backend/internal/models"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// MockConnectionService is a mock implementation of the ConnectionService
type MockConnectionService struct {
	mock.Mock
}

func (m *MockConnectionService) ListServers(ctx context.Context) ([]*models.Server, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Server), args.Error(1)
}

func (m *MockConnectionService) Connect(ctx context.Context, userID, serverID string) (*models.ConnectResult, error) {
	args := m.Called(ctx, userID, serverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConnectResult), args.Error(1)
}

func (m *MockConnectionService) Disconnect(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConnectionService) History(ctx context.Context, userID string, limit int) ([]*models.HistoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HistoryEntry), args.Error(1)
}

func (m *MockConnectionService) CloseStaleSessions(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

// Helper functions for testing
func setupConnectionTest(t *testing.T) (*ConnectionHandler, *MockConnectionService) {
	mockService := new(MockConnectionService)
	handler := NewConnectionHandler(mockService)
	return handler, mockService
}

// Helper function to get a consistent time for testing
func testTime() time.Time {
	return time.Date(2024, 12, 17, 14, 30, 0, 0, time.UTC)
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Action
	}{
		{"empty defaults to servers", "", ActionServers},
		{"servers", "servers", ActionServers},
		{"connect", "connect", ActionConnect},
		{"disconnect", "disconnect", ActionDisconnect},
		{"history", "history", ActionHistory},
		{"unknown value", "status", ActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAction(tt.raw))
		})
	}
}

func TestConnectionHandler_ListServers(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	servers := []*models.Server{
		{ID: "mc", Name: "Монако", Flag: "🇲🇨", Ping: 12, Load: 23, CurrentUsers: 23, MaxUsers: 100, IsActive: true},
	}
	mockService.On("ListServers", mock.Anything).Return(servers, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/vpn?action=servers", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Servers []*models.Server `json:"servers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Servers, 1)
	assert.Equal(t, "mc", resp.Servers[0].ID)
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_ListServers_DefaultAction(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	// Omitting the action parameter selects the catalog
	mockService.On("ListServers", mock.Anything).Return([]*models.Server{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/vpn", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// An empty catalog serializes as a list, not null
	assert.JSONEq(t, `{"servers":[]}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_Connect(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	result := &models.ConnectResult{
		SessionID:    42,
		SessionToken: "token123",
		ConnectedAt:  testTime(),
	}
	mockService.On("Connect", mock.Anything, "alice", "mc").Return(result, nil)

	body := bytes.NewBufferString(`{"userId":"alice","serverId":"mc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=connect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(42), resp["sessionId"])
	assert.Equal(t, "token123", resp["sessionToken"])
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_Connect_DefaultsGuestUser(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	result := &models.ConnectResult{SessionID: 1, SessionToken: "t", ConnectedAt: testTime()}
	mockService.On("Connect", mock.Anything, constants.DefaultGuestUserID, "mc").Return(result, nil)

	body := bytes.NewBufferString(`{"serverId":"mc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=connect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_Connect_MissingServerID(t *testing.T) {
	handler, _ := setupConnectionTest(t)

	body := bytes.NewBufferString(`{"userId":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=connect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"serverId is required"}`, w.Body.String())
}

func TestConnectionHandler_Connect_EmptyBody(t *testing.T) {
	handler, _ := setupConnectionTest(t)

	// An absent body reads as an empty object; the missing serverId is
	// reported the same way as with an explicit empty object
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=connect", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"serverId is required"}`, w.Body.String())
}

func TestConnectionHandler_Connect_ServerNotFound(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	mockService.On("Connect", mock.Anything, constants.DefaultGuestUserID, "nonexistent").
		Return(nil, utils.NewNotFoundError(constants.MsgServerNotFound))

	body := bytes.NewBufferString(`{"serverId":"nonexistent"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=connect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Server not found"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_Connect_ServerFull(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	mockService.On("Connect", mock.Anything, constants.DefaultGuestUserID, "mc").
		Return(nil, utils.NewCapacityExceededError())

	body := bytes.NewBufferString(`{"serverId":"mc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=connect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Server is full"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_Disconnect(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	mockService.On("Disconnect", mock.Anything, "token123").Return(int64(8100), nil)

	body := bytes.NewBufferString(`{"sessionToken":"token123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=disconnect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"duration":8100}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_Disconnect_TokenFromHeader(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	mockService.On("Disconnect", mock.Anything, "header-token").Return(int64(60), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=disconnect", nil)
	req.Header.Set(constants.HeaderSessionToken, "header-token")
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_Disconnect_MissingToken(t *testing.T) {
	handler, _ := setupConnectionTest(t)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=disconnect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"sessionToken is required"}`, w.Body.String())
}

func TestConnectionHandler_Disconnect_SessionNotFound(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	mockService.On("Disconnect", mock.Anything, "missing").
		Return(int64(0), utils.NewNotFoundError(constants.MsgSessionNotFound))

	body := bytes.NewBufferString(`{"sessionToken":"missing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vpn?action=disconnect", body)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Session not found"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_History(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	history := []*models.HistoryEntry{
		{
			ServerID:       "mc",
			ServerName:     "Монако",
			Flag:           "🇲🇨",
			ConnectedAt:    testTime(),
			DisconnectedAt: testTime().Add(2 * time.Hour),
			Duration:       7200,
			Downloaded:     125.5,
			Uploaded:       40.2,
		},
	}
	mockService.On("History", mock.Anything, "alice", constants.DefaultHistoryLimit).Return(history, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/vpn?action=history&userId=alice", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []*models.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.History, 1)
	assert.Equal(t, "Монако", resp.History[0].ServerName)
	assert.Equal(t, int64(7200), resp.History[0].Duration)
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_History_DefaultsGuestUser(t *testing.T) {
	handler, mockService := setupConnectionTest(t)

	mockService.On("History", mock.Anything, constants.DefaultGuestUserID, constants.DefaultHistoryLimit).
		Return([]*models.HistoryEntry{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/vpn?action=history", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"history":[]}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestConnectionHandler_History_BadLimit(t *testing.T) {
	handler, _ := setupConnectionTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/vpn?action=history&limit=abc", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnectionHandler_ServeAction_UnknownAction(t *testing.T) {
	handler, _ := setupConnectionTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/vpn?action=status", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestConnectionHandler_ServeAction_MethodActionMismatch(t *testing.T) {
	handler, _ := setupConnectionTest(t)

	// connect is a POST operation; a GET with that action is outside the contract
	req := httptest.NewRequest(http.MethodGet, "/api/vpn?action=connect", nil)
	w := httptest.NewRecorder()

	handler.ServeAction(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}
