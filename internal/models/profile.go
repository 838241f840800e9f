// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"
)

// Profile is the structured requirements document accumulated for one user's
// website. The assistant returns a full replacement profile on every chat
// turn; field names here are the wire names of that exchange. Fields the
// assistant invents beyond the recognized set survive load/save round trips
// in Extra but are never interpreted.
type Profile struct {
	WebsiteType       string            `json:"websiteType,omitempty"`
	Audience          string            `json:"audience,omitempty"`
	Goal              string            `json:"goal,omitempty"`
	ColorScheme       string            `json:"colorScheme,omitempty"`
	Theme             string            `json:"theme,omitempty"`
	Pages             []string          `json:"pages,omitempty"`
	Sections          []string          `json:"sections,omitempty"`
	Features          []string          `json:"features,omitempty"`
	Content           map[string]string `json:"content,omitempty"`
	DesignPreferences map[string]string `json:"designPreferences,omitempty"`
	Images            []ImageRecord     `json:"images,omitempty"`
	Font              string            `json:"font,omitempty"`
	ContactInfo       map[string]string `json:"contactInfo,omitempty"`
	SocialLinks       map[string]string `json:"socialLinks,omitempty"`
	CustomScript      string            `json:"customScript,omitempty"`
	Branding          map[string]string `json:"branding,omitempty"`
	UpdateRequests    []string          `json:"updateRequests,omitempty"`
	Notes             string            `json:"notes,omitempty"`

	// Extra holds unrecognized top-level fields so they are preserved
	// verbatim rather than dropped.
	Extra map[string]json.RawMessage `json:"-"`
}

// ImageRecord describes one uploaded image. The binary lives in the user's
// site tree under RelativeURL; this metadata lives in the profile. Records
// are append-only and removed only by a full reset.
type ImageRecord struct {
	StoredName       string    `json:"storedName"`
	OriginalName     string    `json:"originalName"`
	RelativeURL      string    `json:"relativeUrl"`
	UploadedAt       time.Time `json:"uploadedAt"`
	UserCaption      string    `json:"userCaption,omitempty"`
	ModelDescription string    `json:"modelDescription,omitempty"`
}

// knownProfileFields are the recognized top-level keys; everything else a
// profile document carries goes to Extra.
var knownProfileFields = []string{
	"websiteType", "audience", "goal", "colorScheme", "theme",
	"pages", "sections", "features", "content", "designPreferences",
	"images", "font", "contactInfo", "socialLinks", "customScript",
	"branding", "updateRequests", "notes",
}

// DefaultProfile returns the canonical empty profile a fresh or reset user
// starts from.
func DefaultProfile() *Profile {
	return &Profile{}
}

// RestoreImages carries the image list over from prev into a replacement
// profile. The image list is owned by the upload flow; whatever the
// assistant returned for it is discarded, so a reply can neither erase
// stored records nor smuggle in records of its own.
func (p *Profile) RestoreImages(prev *Profile) {
	if prev == nil {
		return
	}
	p.Images = prev.Images
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var pp plain
	if err := json.Unmarshal(data, &pp); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownProfileFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		pp.Extra = raw
	}
	*p = Profile(pp)
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	type plain Profile
	b, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return b, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
