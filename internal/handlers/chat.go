package handlers

import (
	"log/slog"
	"net/http"

	"sitesmith/internal/markdown"
	"sitesmith/internal/models"
)

type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply     string         `json:"reply"`
	ReplyHTML string         `json:"replyHtml"`
	History   models.History `json:"history"`
}

// Chat handles POST /api/chat: one conversational turn for a user.
func (a *API) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	reply, err := a.builder.Chat(r.Context(), req.UserID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	// The history read is a snapshot; a concurrent upload may already
	// have appended to it, which is fine for display.
	_, history, err := a.builder.State(r.Context(), req.UserID)
	if err != nil {
		slog.Warn("history reload after chat failed", "user", req.UserID, "error", err)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:     reply,
		ReplyHTML: renderReply(reply),
		History:   history,
	})
}

type resetRequest struct {
	UserID string `json:"userId"`
}

// Reset handles POST /api/reset: wipes a user's profile, history, and
// generated site.
func (a *API) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := a.builder.Reset(r.Context(), req.UserID); err != nil {
		writeError(w, err)
		return
	}

	a.previews.Invalidate(r.Context(), req.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// renderReply converts an assistant reply to HTML for the chat widget.
// Rendering problems degrade to an empty string; the raw reply is still
// in the response.
func renderReply(reply string) string {
	html, err := markdown.ToHTML(reply)
	if err != nil {
		slog.Warn("reply markdown render failed", "error", err)
		return ""
	}
	return html
}
