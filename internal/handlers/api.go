// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP layer. Handlers stay thin: they
// decode requests, call the builder, and translate its error kinds to
// status codes. All state transitions live in internal/builder.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sitesmith/internal/builder"
	"sitesmith/internal/cache"
	"sitesmith/internal/publish"
	"sitesmith/internal/site"
	"sitesmith/internal/storage"
)

// API groups the JSON endpoints under /api. exports may be nil when S3
// is not configured; export then streams the zip directly.
type API struct {
	builder   *builder.Builder
	sites     *site.Store
	previews  cache.PreviewCache
	exports   *storage.Client
	publisher publish.Publisher
	maxUpload int64
}

// NewAPI creates the API handler group. maxUploadMB caps the total size
// of one image upload request.
func NewAPI(b *builder.Builder, sites *site.Store, previews cache.PreviewCache, exports *storage.Client, publisher publish.Publisher, maxUploadMB int64) *API {
	return &API{
		builder:   b,
		sites:     sites,
		previews:  previews,
		exports:   exports,
		publisher: publisher,
		maxUpload: maxUploadMB << 20,
	}
}

// errorResponse is the uniform error body for every API endpoint.
type errorResponse struct {
	Error     string       `json:"error"`
	Kind      builder.Kind `json:"kind"`
	Retryable bool         `json:"retryable"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a builder error to its status code and uniform body.
// Anything that is not a *builder.Error is an internal bug: it is logged
// in full and reported to the client as an opaque storage failure.
func writeError(w http.ResponseWriter, err error) {
	var be *builder.Error
	if !errors.As(err, &be) {
		slog.Error("unclassified handler error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal error",
			Kind:  builder.KindStorage,
		})
		return
	}

	writeJSON(w, statusForKind(be.Kind), errorResponse{
		Error:     be.Msg,
		Kind:      be.Kind,
		Retryable: be.Retryable(),
	})
}

func statusForKind(k builder.Kind) int {
	switch k {
	case builder.KindValidation:
		return http.StatusBadRequest
	case builder.KindUpstream, builder.KindMalformed:
		return http.StatusBadGateway
	case builder.KindLockTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeValidationError reports a request-shape problem found before the
// builder was ever called, in the same body format.
func writeValidationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error: msg,
		Kind:  builder.KindValidation,
	})
}
