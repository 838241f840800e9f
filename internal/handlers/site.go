// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sitesmith/internal/bundle"
	"sitesmith/internal/models"
	"sitesmith/internal/publish"
	"sitesmith/internal/site"
	"sitesmith/internal/storage"
)

type generateRequest struct {
	UserID string `json:"userId"`
}

type siteResponse struct {
	*models.Site
	Generated bool `json:"generated"`
}

// Generate handles POST /api/generate: rebuilds the user's site from the
// current profile and conversation.
func (a *API) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s, err := a.builder.Generate(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	a.previews.Invalidate(r.Context(), req.UserID)
	writeJSON(w, http.StatusOK, siteResponse{Site: s, Generated: s.Generated()})
}

// SiteState handles GET /api/site/{userID}: the stored artifact blobs.
// Users who never generated get the placeholder site.
func (a *API) SiteState(w http.ResponseWriter, r *http.Request) {
	s, err := a.builder.Site(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, siteResponse{Site: s, Generated: s.Generated()})
}

// Preview handles GET /api/site/{userID}/preview: the artifact assembled
// into one HTML document, served from the preview cache when warm.
func (a *API) Preview(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := models.ValidateUserID(userID); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	ctx := r.Context()
	if cached, ok := a.previews.Get(ctx, userID); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(cached)
		return
	}

	s, err := a.builder.Site(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	doc := site.Assemble(s)
	a.previews.Set(ctx, userID, doc)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc)
}

// Export handles GET /api/site/{userID}/export. With S3 configured the
// zip is mirrored there and a presigned URL returned; otherwise the
// archive streams straight back as a download.
func (a *API) Export(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	s, err := a.builder.Site(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	imagesDir, err := a.sites.ImagesDir(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	archive, err := bundle.Build(s, imagesDir)
	if err != nil {
		writeError(w, err)
		return
	}

	if a.exports != nil {
		ctx := r.Context()
		key, err := a.exports.UploadExport(ctx, userID, archive)
		if err != nil {
			writeError(w, err)
			return
		}
		url, err := a.exports.PresignedURL(ctx, key, storage.DefaultExportExpiry)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url, "key": key})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", userID+"-site.zip"))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.Write(archive)
}

// PublishSite handles POST /api/site/{userID}/publish: pushes the user's
// site tree to the configured git remote.
func (a *API) PublishSite(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := models.ValidateUserID(userID); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := a.publisher.Publish(r.Context(), userID); err != nil {
		if errors.Is(err, publish.ErrNotConfigured) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "publishing is not configured"})
			return
		}
		// Git output can include remote URLs; clients get a generic
		// message, the log gets the detail.
		slog.Error("publish failed", "user", userID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "publish failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}
