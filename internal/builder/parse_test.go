package builder

import (
	"strings"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"html fence", "```html\n<p>x</p>\n```", "<p>x</p>"},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
		{"fence without closing", "```json\n{\"a\":1}", `{"a":1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseChatReply(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw := `{"nextQuestion":"What colors?","updatedUserProfile":{"websiteType":"bakery","images":[]}}`
		reply, err := parseChatReply(raw)
		if err != nil {
			t.Fatalf("parseChatReply: %v", err)
		}
		if reply.NextQuestion != "What colors?" {
			t.Errorf("NextQuestion = %q", reply.NextQuestion)
		}
		if reply.UpdatedUserProfile.WebsiteType != "bakery" {
			t.Errorf("WebsiteType = %q", reply.UpdatedUserProfile.WebsiteType)
		}
	})

	t.Run("fenced", func(t *testing.T) {
		raw := "```json\n{\"nextQuestion\":\"Next?\",\"updatedUserProfile\":{}}\n```"
		reply, err := parseChatReply(raw)
		if err != nil {
			t.Fatalf("parseChatReply: %v", err)
		}
		if reply.NextQuestion != "Next?" {
			t.Errorf("NextQuestion = %q", reply.NextQuestion)
		}
	})

	t.Run("unknown profile fields preserved", func(t *testing.T) {
		raw := `{"nextQuestion":"Q","updatedUserProfile":{"websiteType":"cafe","vibe":"cozy"}}`
		reply, err := parseChatReply(raw)
		if err != nil {
			t.Fatalf("parseChatReply: %v", err)
		}
		if _, ok := reply.UpdatedUserProfile.Extra["vibe"]; !ok {
			t.Error("unrecognized field not preserved in Extra")
		}
	})

	rejects := []struct {
		name string
		raw  string
	}{
		{"missing nextQuestion", `{"updatedUserProfile":{}}`},
		{"blank nextQuestion", `{"nextQuestion":"  ","updatedUserProfile":{}}`},
		{"missing profile", `{"nextQuestion":"Q"}`},
		{"null profile", `{"nextQuestion":"Q","updatedUserProfile":null}`},
		{"not json", `Sure! Here is your website plan.`},
		{"prose around json", `Here you go: {"nextQuestion":"Q","updatedUserProfile":{}}`},
		{"wrong profile type", `{"nextQuestion":"Q","updatedUserProfile":"bakery"}`},
		{"empty", ``},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseChatReply(tt.raw); err == nil {
				t.Errorf("parseChatReply(%q) accepted, want error", tt.raw)
			}
		})
	}
}

func TestParseGenerateReply(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw := `{"updatedCode":{"html":"<html><body>hi</body></html>","css":"body{}","js":"f();"}}`
		code, err := parseGenerateReply(raw)
		if err != nil {
			t.Fatalf("parseGenerateReply: %v", err)
		}
		if !strings.Contains(code.HTML, "hi") || code.CSS != "body{}" || code.JS != "f();" {
			t.Errorf("unexpected code: %+v", code)
		}
	})

	t.Run("empty css and js allowed", func(t *testing.T) {
		raw := `{"updatedCode":{"html":"<p>x</p>","css":"","js":""}}`
		code, err := parseGenerateReply(raw)
		if err != nil {
			t.Fatalf("parseGenerateReply: %v", err)
		}
		if code.CSS != "" || code.JS != "" {
			t.Errorf("unexpected blobs: %+v", code)
		}
	})

	rejects := []struct {
		name string
		raw  string
	}{
		{"missing updatedCode", `{"html":"<p>x</p>"}`},
		{"empty html", `{"updatedCode":{"html":"","css":"a{}","js":"f()"}}`},
		{"whitespace html", `{"updatedCode":{"html":"   ","css":"","js":""}}`},
		{"not json", `<html><body>direct html</body></html>`},
		{"empty", ``},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseGenerateReply(tt.raw); err == nil {
				t.Errorf("parseGenerateReply(%q) accepted, want error", tt.raw)
			}
		})
	}
}
