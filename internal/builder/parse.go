package builder

import (
	"encoding/json"
	"fmt"
	"strings"

	"sitesmith/internal/models"
)

// stripCodeFence removes a wrapping markdown code fence from a model
// reply: ```json ... ``` or ``` ... ```. Replies without a fence are
// returned trimmed.
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		// Drop the opening fence line, including any language tag.
		if firstNewline := strings.Index(response, "\n"); firstNewline != -1 {
			response = response[firstNewline+1:]
		}
		// Drop the closing fence.
		if idx := strings.LastIndex(response, "```"); idx != -1 {
			response = response[:idx]
		}
	}

	return strings.TrimSpace(response)
}

// chatReply is the required shape of a conversation model reply.
type chatReply struct {
	NextQuestion       string          `json:"nextQuestion"`
	UpdatedUserProfile *models.Profile `json:"updatedUserProfile"`
}

// parseChatReply strictly decodes a chat reply. Extra top-level keys are
// tolerated; a missing nextQuestion or updatedUserProfile is not.
func parseChatReply(raw string) (*chatReply, error) {
	cleaned := stripCodeFence(raw)

	var reply chatReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, fmt.Errorf("decode chat reply: %w", err)
	}
	if strings.TrimSpace(reply.NextQuestion) == "" {
		return nil, fmt.Errorf("chat reply is missing nextQuestion")
	}
	if reply.UpdatedUserProfile == nil {
		return nil, fmt.Errorf("chat reply is missing updatedUserProfile")
	}
	return &reply, nil
}

// generatedCode is the required shape of a site generation reply.
type generatedCode struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

type generateReply struct {
	UpdatedCode *generatedCode `json:"updatedCode"`
}

// parseGenerateReply strictly decodes a generation reply. The html blob
// must be present and non-empty; css and js may legitimately be empty.
func parseGenerateReply(raw string) (*generatedCode, error) {
	cleaned := stripCodeFence(raw)

	var reply generateReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, fmt.Errorf("decode generation reply: %w", err)
	}
	if reply.UpdatedCode == nil {
		return nil, fmt.Errorf("generation reply is missing updatedCode")
	}
	if strings.TrimSpace(reply.UpdatedCode.HTML) == "" {
		return nil, fmt.Errorf("generation reply has empty html")
	}
	return reply.UpdatedCode, nil
}
