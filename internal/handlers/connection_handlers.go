// connection_handlers.go

// Package handlers provides HTTP request handlers for the VPN backend.
// This file implements the connection endpoints: the relay catalog, session
// open/close, and per-user history. The legacy entry point multiplexes all
// four operations behind a single path selected by an action query
// parameter; the action string is parsed once into a typed value and
// dispatched, and the same handler methods also back the typed routes.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/veilpoint/vpn-backend/internal/constants"
	"github.com/veilpoint/vpn-backend/internal/models"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// Action identifies one of the multiplexed VPN operations.
type Action string

// Recognized actions. ActionUnknown is any value outside this set.
const (
	ActionServers    Action = constants.ActionServers
	ActionConnect    Action = constants.ActionConnect
	ActionDisconnect Action = constants.ActionDisconnect
	ActionHistory    Action = constants.ActionHistory
	ActionUnknown    Action = ""
)

// ParseAction maps a raw action query value to a typed Action.
// An absent parameter selects the server catalog.
func ParseAction(raw string) Action {
	switch raw {
	case "", constants.ActionServers:
		return ActionServers
	case constants.ActionConnect:
		return ActionConnect
	case constants.ActionDisconnect:
		return ActionDisconnect
	case constants.ActionHistory:
		return ActionHistory
	default:
		return ActionUnknown
	}
}

// ConnectionHandler handles VPN connection routes
type ConnectionHandler struct {
	connectionService ConnectionServiceInterface
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connectionService ConnectionServiceInterface) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
	}
}

// ServeAction dispatches the multiplexed VPN endpoint. The operation is
// selected by the request method and the action query parameter; any
// combination outside the contract is a 404.
func (h *ConnectionHandler) ServeAction(w http.ResponseWriter, r *http.Request) {
	action := ParseAction(r.URL.Query().Get(constants.QueryParamAction))

	switch {
	case r.Method == http.MethodGet && action == ActionServers:
		h.ListServers(w, r)
	case r.Method == http.MethodPost && action == ActionConnect:
		h.Connect(w, r)
	case r.Method == http.MethodPost && action == ActionDisconnect:
		h.Disconnect(w, r)
	case r.Method == http.MethodGet && action == ActionHistory:
		h.History(w, r)
	default:
		utils.NotFound(w, constants.MsgNotFound)
	}
}

// ListServers returns the active relay catalog
func (h *ConnectionHandler) ListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.connectionService.ListServers(r.Context())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// The wire shape is a list, never null
	if servers == nil {
		servers = []*models.Server{}
	}

	utils.JSON(w, constants.StatusOK, map[string]interface{}{
		"servers": servers,
	})
}

// Connect handles opening a new connection session
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	// Decode the request body; an absent body reads as an empty object so
	// the missing-field message stays consistent for legacy clients
	var req models.ConnectRequest
	if err := h.decodeBody(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// Validate the request
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// Anonymous callers connect as the shared guest identity
	userID := req.UserID
	if userID == "" {
		userID = r.Header.Get(constants.HeaderUserID)
	}
	if userID == "" {
		userID = constants.DefaultGuestUserID
	}

	// Open the session
	result, err := h.connectionService.Connect(r.Context(), userID, req.ServerID)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// Return the session credentials
	utils.JSON(w, constants.StatusOK, map[string]interface{}{
		"success":      true,
		"sessionId":    result.SessionID,
		"sessionToken": result.SessionToken,
		"connectedAt":  result.ConnectedAt,
	})
}

// Disconnect handles closing an active connection session
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	// Decode the request body
	var req models.DisconnectRequest
	if err := h.decodeBody(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// The token may also arrive in a header
	if req.SessionToken == "" {
		req.SessionToken = r.Header.Get(constants.HeaderSessionToken)
	}

	// Validate the request
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// Close the session
	duration, err := h.connectionService.Disconnect(r.Context(), req.SessionToken)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// Return the session duration
	utils.JSON(w, constants.StatusOK, map[string]interface{}{
		"success":  true,
		"duration": duration,
	})
}

// History returns a user's past sessions
func (h *ConnectionHandler) History(w http.ResponseWriter, r *http.Request) {
	// Resolve the user identity from the query, then the header
	userID := r.URL.Query().Get(constants.QueryParamUserID)
	if userID == "" {
		userID = r.Header.Get(constants.HeaderUserID)
	}
	if userID == "" {
		userID = constants.DefaultGuestUserID
	}

	// An optional limit caps the page size; the service clamps it
	limit := constants.DefaultHistoryLimit
	if raw := r.URL.Query().Get(constants.QueryParamLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.BadRequest(w, "limit must be a number")
			return
		}
		limit = parsed
	}

	// Get the history
	history, err := h.connectionService.History(r.Context(), userID, limit)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// Return the history
	utils.JSON(w, constants.StatusOK, map[string]interface{}{
		"history": history,
	})
}

// decodeBody decodes a JSON request body, treating an absent body as an
// empty object. Required-field checks are left to validation so their
// messages stay uniform.
func (h *ConnectionHandler) decodeBody(r *http.Request, v interface{}) error {
	err := utils.DecodeJSON(r, v)
	if err == nil {
		return nil
	}

	var appErr *utils.AppError
	if errors.As(err, &appErr) && appErr.Message == constants.MsgEmptyRequestBody {
		return nil
	}

	return err
}
