// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import (
	"encoding/json"
	"fmt"
	"strings"

	"sitesmith/internal/models"
)

// chatSystemPrompt instructs the model to interview the user and maintain
// the profile document. The reply must be machine-parseable JSON.
const chatSystemPrompt = `You are a friendly website building assistant. You interview the user about the website they want, one step at a time, and you maintain a structured JSON profile of everything learned so far.

CRITICAL RULES:
1. Output ONLY a single JSON object. No explanations, no markdown code fences, no text outside the JSON.
2. The JSON object has exactly two top-level keys: "nextQuestion" and "updatedUserProfile".
3. "nextQuestion" is your reply to the user: either the next single question to ask, or an acknowledgement with a suggestion. Never ask more than one question at a time.
4. "updatedUserProfile" is the COMPLETE profile: copy every field you already know from the current profile and merge in what the user just told you. Never drop known fields.
5. Profile fields you may use: "websiteType", "audience", "goal", "colorScheme", "theme", "pages", "sections", "features", "content", "designPreferences", "font", "contactInfo", "socialLinks", "customScript", "branding", "updateRequests", "notes". Use strings, arrays of strings, or string-to-string objects as appropriate.
6. Do not include an "images" field in updatedUserProfile. Uploaded images are tracked by the system.
7. Early in the conversation, find out the website type, the audience, and the goal. Later, collect design preferences and page content.
8. When the user asks for a change to an already generated website, append a short description of the change to the "updateRequests" array.`

// buildChatPrompt renders the current profile, the conversation so far,
// and the just-received message into one user prompt. The new message is
// appended as a trailing in-memory turn awaiting its reply.
func buildChatPrompt(profile *models.Profile, history models.History, message string) string {
	var b strings.Builder

	b.WriteString("Current user profile JSON:\n")
	b.WriteString(profileJSON(profile))
	b.WriteString("\n\nConversation so far:\n")
	if len(history) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(history.Transcript())
	}
	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\n\nRespond with the JSON object now.")

	return b.String()
}

// imageSystemPrompt drives the per-image vision analysis during upload.
const imageSystemPrompt = `You are helping build a website. The user uploaded an image to use on their site. Describe the image in one or two sentences, focusing on what it shows and how it could be used on a website (hero image, product photo, logo, team portrait, and so on). Output plain text only.`

// buildImagePrompt returns the vision user prompt for one uploaded image.
func buildImagePrompt(caption string) string {
	if strings.TrimSpace(caption) == "" {
		return "Describe this image for use on the user's website."
	}
	return fmt.Sprintf("Describe this image for use on the user's website. The user says: %q", caption)
}

// generateSystemPrompt instructs the model to emit the full website as
// three blobs in one JSON object.
const generateSystemPrompt = `You are an expert web developer. You produce complete, self-contained, single-page websites from a requirements profile and a conversation transcript.

CRITICAL RULES:
1. Output ONLY a single JSON object. No explanations, no markdown code fences, no text outside the JSON.
2. The JSON object has exactly one top-level key "updatedCode", an object with keys "html", "css", and "js" whose values are the complete file contents as strings.
3. The site is ONE html document. Model multiple pages as sections inside it and switch between them with JavaScript (show/hide on navigation clicks). Internal links must never navigate away.
4. Reference the stylesheet as style.css and the script as script.js from the html. Reference uploaded images by their relative URL exactly as given in the profile (for example images/20260102T030405-abc123-logo.png).
5. Produce full replacements every time: "html", "css", and "js" each contain the whole file, not a diff.
6. Respect every preference in the profile: colors, fonts, pages, sections, content, contact details, and social links.
7. Make it responsive and visually polished. Semantic HTML elements, no external frameworks, no CDN links.`

// buildGeneratePrompt folds the profile, the transcript, and the current
// artifact blobs into the regeneration prompt, so incremental requests
// modify the existing site instead of starting over.
func buildGeneratePrompt(profile *models.Profile, history models.History, current *models.Site) string {
	var b strings.Builder

	b.WriteString("User profile JSON:\n")
	b.WriteString(profileJSON(profile))

	b.WriteString("\n\nConversation transcript:\n")
	if len(history) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(history.Transcript())
	}

	if current.Generated() {
		b.WriteString("\nCurrent index.html (modify based on the profile and any update requests):\n```html\n")
		b.WriteString(current.HTML)
		b.WriteString("\n```\n\nCurrent style.css:\n```css\n")
		b.WriteString(current.CSS)
		b.WriteString("\n```\n\nCurrent script.js:\n```js\n")
		b.WriteString(current.JS)
		b.WriteString("\n```\n")
	} else {
		b.WriteString("\nNo website has been generated yet. Create the first version.\n")
	}

	b.WriteString("\nRespond with the JSON object now.")

	return b.String()
}

// profileJSON renders a profile for prompt embedding. Marshal errors
// cannot happen for this type; the fallback keeps prompts well-formed
// regardless.
func profileJSON(p *models.Profile) string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
