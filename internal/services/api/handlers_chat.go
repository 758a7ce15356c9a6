package api

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/platform/timeouts"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.agent == nil {
		writeError(w, apperrors.New(apperrors.CodeChatUnavailable, "chat assistant is not configured"))
		return
	}

	var request chatRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, err)
		return
	}
	message := strings.TrimSpace(request.Message)
	if message == "" {
		writeError(w, apperrors.New(apperrors.CodeChatInputRequired, "message is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.ChatCompletion)
	defer cancel()
	reply, err := h.agent.Reply(ctx, userID, message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
