// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
)

// Vision is an optional interface for providers that accept an image
// alongside the text prompt. All built-in providers implement it; custom
// providers registered at runtime may be text-only.
type Vision interface {
	// GenerateWithImage sends a prompt plus one inline image and returns
	// the generated text. contentType is the image MIME type, e.g.
	// "image/jpeg".
	GenerateWithImage(ctx context.Context, systemPrompt, userPrompt string, image []byte, contentType string) (string, error)
}

// GenerateWithImage calls the active provider's vision path if supported.
// Returns an error if the active provider does not implement Vision.
func (r *Registry) GenerateWithImage(ctx context.Context, systemPrompt, userPrompt string, image []byte, contentType string) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", err
	}

	v, ok := p.(Vision)
	if !ok {
		return "", fmt.Errorf("ai: provider %q does not support image input", p.Name())
	}

	return v.GenerateWithImage(ctx, systemPrompt, userPrompt, image, contentType)
}

// SupportsVision returns true if the active provider accepts image input.
func (r *Registry) SupportsVision() bool {
	p, err := r.Active()
	if err != nil {
		return false
	}
	_, ok := p.(Vision)
	return ok
}
