package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"sitesmith/internal/models"
)

func testBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestBoltLoadUnknownUser verifies defaults materialize for a user that has
// never been saved: empty profile, empty (non-nil) history, no error.
func TestBoltLoadUnknownUser(t *testing.T) {
	s := testBoltStore(t)

	profile, history, err := s.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if profile == nil {
		t.Fatal("profile is nil, want defaults")
	}
	if profile.WebsiteType != "" || len(profile.Images) != 0 {
		t.Errorf("default profile not empty: %+v", profile)
	}
	if history == nil {
		t.Fatal("history is nil, want empty slice")
	}
	if len(history) != 0 {
		t.Errorf("default history has %d turns, want 0", len(history))
	}
}

// TestBoltSaveLoadRoundTrip verifies profile and history survive storage,
// including unrecognized profile fields.
func TestBoltSaveLoadRoundTrip(t *testing.T) {
	s := testBoltStore(t)
	ctx := context.Background()

	profile := &models.Profile{
		WebsiteType: "bakery",
		Pages:       []string{"Home", "Menu"},
		Content:     map[string]string{"Home": "Fresh bread daily"},
		Extra: map[string]json.RawMessage{
			"seoKeywords": json.RawMessage(`["sourdough"]`),
		},
	}
	history := models.History{
		{UserText: "I want a bakery site", AssistantText: "What colors?"},
	}

	if err := s.Save(ctx, "u1", profile, history); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotProfile, gotHistory, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotProfile.WebsiteType != "bakery" {
		t.Errorf("WebsiteType = %q, want %q", gotProfile.WebsiteType, "bakery")
	}
	if len(gotProfile.Pages) != 2 {
		t.Errorf("Pages = %v, want 2 entries", gotProfile.Pages)
	}
	if gotProfile.Content["Home"] != "Fresh bread daily" {
		t.Errorf("Content[Home] = %q", gotProfile.Content["Home"])
	}
	if _, ok := gotProfile.Extra["seoKeywords"]; !ok {
		t.Error("unrecognized field seoKeywords lost in storage")
	}
	if len(gotHistory) != 1 || gotHistory[0].AssistantText != "What colors?" {
		t.Errorf("history = %+v, want the saved turn", gotHistory)
	}
}

// TestBoltSaveReplacesWholesale verifies a second save fully replaces the
// first, with no merging of stale fields.
func TestBoltSaveReplacesWholesale(t *testing.T) {
	s := testBoltStore(t)
	ctx := context.Background()

	first := &models.Profile{WebsiteType: "bakery", Theme: "warm"}
	if err := s.Save(ctx, "u1", first, models.History{}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	second := &models.Profile{WebsiteType: "portfolio"}
	if err := s.Save(ctx, "u1", second, models.History{}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, _, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.WebsiteType != "portfolio" {
		t.Errorf("WebsiteType = %q, want %q", got.WebsiteType, "portfolio")
	}
	if got.Theme != "" {
		t.Errorf("Theme = %q, want empty after wholesale replace", got.Theme)
	}
}

// TestBoltUsersAreIsolated verifies no bleed between user namespaces.
func TestBoltUsersAreIsolated(t *testing.T) {
	s := testBoltStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "alice", &models.Profile{WebsiteType: "bakery"}, models.History{}); err != nil {
		t.Fatalf("Save alice: %v", err)
	}
	if err := s.Save(ctx, "bob", &models.Profile{WebsiteType: "gym"}, models.History{}); err != nil {
		t.Fatalf("Save bob: %v", err)
	}

	alice, _, _ := s.Load(ctx, "alice")
	bob, _, _ := s.Load(ctx, "bob")
	if alice.WebsiteType != "bakery" || bob.WebsiteType != "gym" {
		t.Errorf("cross-user bleed: alice=%q bob=%q", alice.WebsiteType, bob.WebsiteType)
	}
}

// TestBoltPersistsAcrossReopen verifies state survives closing and reopening
// the database file.
func TestBoltPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	ctx := context.Background()

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	if err := s.Save(ctx, "u1", &models.Profile{WebsiteType: "cafe"}, models.History{{UserText: "hi", AssistantText: "hello"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	profile, history, err := s2.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if profile.WebsiteType != "cafe" || len(history) != 1 {
		t.Errorf("state lost across reopen: profile=%+v history=%+v", profile, history)
	}
}
