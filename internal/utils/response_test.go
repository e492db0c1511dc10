package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/veilpoint/vpn-backend/internal/utils"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       interface{}
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "Simple object",
			statusCode: http.StatusOK,
			data:       map[string]interface{}{"success": true, "duration": 120},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"success": true, "duration": float64(120)},
		},
		{
			name:       "Wrapped collection",
			statusCode: http.StatusOK,
			data:       map[string]interface{}{"servers": []string{}},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"servers": []interface{}{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			utils.JSON(rr, tt.statusCode, tt.data)

			if rr.Code != tt.wantStatus {
				t.Errorf("Status = %v, want %v", rr.Code, tt.wantStatus)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %v, want application/json", ct)
			}

			var got map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("Failed to unmarshal response body: %v", err)
			}
			if !reflect.DeepEqual(got, tt.wantBody) {
				t.Errorf("Body = %v, want %v", got, tt.wantBody)
			}
		})
	}
}

func TestError(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.Error(rr, http.StatusNotFound, "Server not found")

	if rr.Code != http.StatusNotFound {
		t.Errorf("Status = %v, want %v", rr.Code, http.StatusNotFound)
	}

	// Error bodies are flat, with the message under a single error key
	want := `{"error":"Server not found"}`
	if got := rr.Body.String(); got != want {
		t.Errorf("Body = %v, want %v", got, want)
	}
}

func TestErrorFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		appErr     *utils.AppError
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Not found",
			appErr:     utils.NewNotFoundError("Session not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Session not found"}`,
		},
		{
			name:       "Capacity exceeded",
			appErr:     utils.NewCapacityExceededError(),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"Server is full"}`,
		},
		{
			name:       "Validation error keeps the message verbatim",
			appErr:     utils.NewValidationError("serverId", "serverId is required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"serverId is required"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			utils.ErrorFromAppError(rr, tt.appErr)

			if rr.Code != tt.wantStatus {
				t.Errorf("Status = %v, want %v", rr.Code, tt.wantStatus)
			}
			if got := rr.Body.String(); got != tt.wantBody {
				t.Errorf("Body = %v, want %v", got, tt.wantBody)
			}
		})
	}
}

func TestBadRequest(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.BadRequest(rr, "limit must be a number")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Status = %v, want %v", rr.Code, http.StatusBadRequest)
	}
	want := `{"error":"limit must be a number"}`
	if got := rr.Body.String(); got != want {
		t.Errorf("Body = %v, want %v", got, want)
	}
}

func TestNotFound(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantBody string
	}{
		{
			name:     "Explicit message",
			message:  "Server not found",
			wantBody: `{"error":"Server not found"}`,
		},
		{
			name:     "Empty message falls back to the default",
			message:  "",
			wantBody: `{"error":"Not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			utils.NotFound(rr, tt.message)

			if rr.Code != http.StatusNotFound {
				t.Errorf("Status = %v, want %v", rr.Code, http.StatusNotFound)
			}
			if got := rr.Body.String(); got != tt.wantBody {
				t.Errorf("Body = %v, want %v", got, tt.wantBody)
			}
		})
	}
}

func TestInternalServerError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantBody string
	}{
		{
			name:     "Error text is surfaced",
			err:      errTest("pq: deadlock detected"),
			wantBody: `{"error":"pq: deadlock detected"}`,
		},
		{
			name:     "Nil error falls back to the generic message",
			err:      nil,
			wantBody: `{"error":"An internal server error occurred"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			utils.InternalServerError(rr, tt.err)

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("Status = %v, want %v", rr.Code, http.StatusInternalServerError)
			}
			if got := rr.Body.String(); got != tt.wantBody {
				t.Errorf("Body = %v, want %v", got, tt.wantBody)
			}
		})
	}
}

// errTest is a trivial error type for exercising error text propagation
type errTest string

func (e errTest) Error() string { return string(e) }
