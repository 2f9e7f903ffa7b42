package handler

import (
	"net/http"

	"gnosislens-api/internal/fairness"
	"gnosislens-api/internal/middleware"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// PersonaHandler serves the persona catalog and persona chat.
type PersonaHandler struct {
	chat *service.ChatService
}

// NewPersonaHandler creates a persona handler. A nil chat service leaves
// only the catalog usable.
func NewPersonaHandler(chat *service.ChatService) *PersonaHandler {
	return &PersonaHandler{chat: chat}
}

// List handles GET /api/personas
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	response.OK(w, fairness.Catalog())
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Persona  string `json:"persona"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

// Chat handles POST /api/chat
func (h *PersonaHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		response.Error(w, apierror.ServiceUnavailable("Chat is not enabled"))
		return
	}

	var req ChatRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	persona, err := fairness.ParsePersona(req.Persona)
	if err != nil {
		response.Error(w, apierror.ValidationError("Invalid request",
			apierror.FieldError{Field: "persona", Message: err.Error()}))
		return
	}

	displayName := ""
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		displayName = session.DisplayName
	}

	reply, err := h.chat.Chat(r.Context(), persona, displayName, req.Location, req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, reply)
}
