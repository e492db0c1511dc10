package utils_test

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veilpoint/vpn-backend/internal/utils"
)

type connectPayload struct {
	UserID   string `json:"userId" validate:"omitempty,max=255"`
	ServerID string `json:"serverId" validate:"required,max=50"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		errPart string
	}{
		{
			name:    "Valid body",
			body:    `{"userId":"alice","serverId":"mc"}`,
			wantErr: false,
		},
		{
			name:    "Empty body",
			body:    "",
			wantErr: true,
			errPart: "must not be empty",
		},
		{
			name:    "Malformed JSON",
			body:    `{"serverId":`,
			wantErr: true,
			errPart: "malformed JSON",
		},
		{
			name:    "Unknown field",
			body:    `{"serverId":"mc","bogus":true}`,
			wantErr: true,
			errPart: "unknown field",
		},
		{
			name:    "Wrong type",
			body:    `{"serverId":42}`,
			wantErr: true,
			errPart: "Invalid value for the serverId field",
		},
		{
			name:    "Multiple JSON values",
			body:    `{"serverId":"mc"}{"serverId":"lu"}`,
			wantErr: true,
			errPart: "single JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/vpn", bytes.NewBufferString(tt.body))

			var payload connectPayload
			err := utils.DecodeJSON(req, &payload)

			if tt.wantErr {
				if err == nil {
					t.Fatal("DecodeJSON should have returned an error")
				}
				if !strings.Contains(err.Error(), tt.errPart) {
					t.Errorf("Error = %v, want it to contain %q", err, tt.errPart)
				}
			} else if err != nil {
				t.Errorf("DecodeJSON returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		payload connectPayload
		wantErr bool
		errPart string
	}{
		{
			name:    "Valid payload",
			payload: connectPayload{UserID: "alice", ServerID: "mc"},
			wantErr: false,
		},
		{
			name:    "Optional user ID",
			payload: connectPayload{ServerID: "mc"},
			wantErr: false,
		},
		{
			name:    "Missing server ID",
			payload: connectPayload{UserID: "alice"},
			wantErr: true,
			errPart: "serverId is required",
		},
		{
			name:    "Server ID too long",
			payload: connectPayload{ServerID: strings.Repeat("x", 51)},
			wantErr: true,
			errPart: "at most 50 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateStruct(&tt.payload)

			if tt.wantErr {
				if err == nil {
					t.Fatal("ValidateStruct should have returned an error")
				}
				if !utils.IsValidationError(err) {
					t.Errorf("Error should be a validation error, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errPart) {
					t.Errorf("Error = %v, want it to contain %q", err, tt.errPart)
				}
			} else if err != nil {
				t.Errorf("ValidateStruct returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_UsesJSONFieldNames(t *testing.T) {
	// The validator must report the wire name, not the Go field name
	payload := connectPayload{}
	err := utils.ValidateStruct(&payload)

	if err == nil {
		t.Fatal("ValidateStruct should have returned an error")
	}

	appErr := utils.ParseError(err)
	if appErr.Field != "serverId" {
		t.Errorf("Field = %v, want serverId", appErr.Field)
	}
	if appErr.Message != "serverId is required" {
		t.Errorf("Message = %v, want 'serverId is required'", appErr.Message)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name:    "Valid request",
			body:    `{"serverId":"mc"}`,
			wantErr: false,
		},
		{
			name:    "Decodes but fails validation",
			body:    `{"userId":"alice"}`,
			wantErr: true,
		},
		{
			name:    "Fails decoding",
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/vpn", bytes.NewBufferString(tt.body))

			var payload connectPayload
			err := utils.DecodeAndValidate(req, &payload)

			if tt.wantErr && err == nil {
				t.Error("DecodeAndValidate should have returned an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("DecodeAndValidate returned unexpected error: %v", err)
			}
		})
	}
}
