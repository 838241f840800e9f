// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package builder orchestrates the conversational website building flow:
// chat turns that grow the user profile, image ingestion with vision
// analysis, whole-site regeneration, and reset. Every operation runs
// under per-user locks so concurrent requests for the same user are
// serialized, and every failure is classified into the error taxonomy
// defined in errors.go.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sitesmith/internal/ai"
	"sitesmith/internal/imaging"
	"sitesmith/internal/locker"
	"sitesmith/internal/models"
	"sitesmith/internal/site"
	"sitesmith/internal/state"
)

const (
	maxMessageLen  = 4000
	maxCaptionLen  = 500
	maxBatchImages = 10

	// visionWorkers bounds concurrent vision calls during one upload batch.
	visionWorkers = 4
)

// Generator is the slice of the AI registry the builder depends on.
// *ai.Registry satisfies it; tests inject stubs.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateWithImage(ctx context.Context, systemPrompt, userPrompt string, image []byte, contentType string) (string, error)
	CheckPrompt(ctx context.Context, prompt string) (*ai.ModerationResult, error)
}

// Builder coordinates state, site artifacts, locks, and the generation
// client for all per-user operations.
type Builder struct {
	state      state.Store
	sites      *site.Store
	gen        Generator
	locks      *locker.Manager
	genTimeout time.Duration
}

// New creates a Builder. genTimeout bounds each individual model call.
func New(st state.Store, sites *site.Store, gen Generator, locks *locker.Manager, genTimeout time.Duration) *Builder {
	return &Builder{
		state:      st,
		sites:      sites,
		gen:        gen,
		locks:      locks,
		genTimeout: genTimeout,
	}
}

// Chat runs one conversation turn: the user message plus the stored
// profile and history go to the model, and the model's full replacement
// profile and reply are committed atomically. The entire turn holds the
// user's profile lock, so concurrent turns for one user serialize. The
// in-flight turn exists only in the prompt; a failed turn leaves no
// trace in storage.
func (b *Builder) Chat(ctx context.Context, userID, message string) (string, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return "", errValidation("%v", err)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errValidation("message is required")
	}
	if len(message) > maxMessageLen {
		return "", errValidation("message exceeds %d characters", maxMessageLen)
	}

	// Moderation runs outside the lock and fails open: a moderation
	// outage must not take chat down with it.
	if mod, err := b.gen.CheckPrompt(ctx, message); err != nil {
		slog.Warn("moderation check failed, continuing", "user", userID, "error", err)
	} else if !mod.Safe {
		return "", errValidation("message rejected: %s", strings.Join(mod.Categories, ", "))
	}

	var nextQuestion string
	err := b.locks.WithLock(ctx, userID, locker.ProfileHistory, func() error {
		profile, history, err := b.state.Load(ctx, userID)
		if err != nil {
			return errStorage("load user state", err)
		}

		genCtx, cancel := context.WithTimeout(ctx, b.genTimeout)
		defer cancel()

		raw, err := b.gen.Generate(genCtx, chatSystemPrompt, buildChatPrompt(profile, history, message))
		if err != nil {
			return errUpstream("chat generation failed", err)
		}

		reply, err := parseChatReply(raw)
		if err != nil {
			slog.Warn("chat reply unusable", "user", userID, "error", err, "raw", raw)
			return errMalformed("chat reply unusable", err)
		}
		reply.UpdatedUserProfile.RestoreImages(profile)

		history = append(history, models.ConversationTurn{
			UserText:      message,
			AssistantText: reply.NextQuestion,
		})

		if err := b.state.Save(ctx, userID, reply.UpdatedUserProfile, history); err != nil {
			return errStorage("save user state", err)
		}

		nextQuestion = reply.NextQuestion
		return nil
	})
	if err != nil {
		return "", mapLockErr(err)
	}

	slog.Info("chat turn complete", "user", userID)
	return nextQuestion, nil
}

// Upload is one file from an ingestion request.
type Upload struct {
	Name string
	Data []byte
}

// UploadFailure reports why one file in a batch was not ingested.
type UploadFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestResult summarizes a batch ingestion: which files became image
// records and which failed.
type IngestResult struct {
	Records  []models.ImageRecord `json:"records"`
	Failures []UploadFailure      `json:"failures"`
}

// IngestImages stores uploaded images and runs best-effort vision
// analysis on each. Binaries are written and analyzed outside the lock;
// only the final profile merge and summary turn run under it. A file
// whose analysis fails produces no record and its stored binary is
// removed again. When every file fails, user state is left untouched.
func (b *Builder) IngestImages(ctx context.Context, userID string, uploads []Upload, caption string) (*IngestResult, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, errValidation("%v", err)
	}
	if len(uploads) == 0 {
		return nil, errValidation("no images uploaded")
	}
	if len(uploads) > maxBatchImages {
		return nil, errValidation("too many images: %d exceeds the batch limit of %d", len(uploads), maxBatchImages)
	}
	if len(caption) > maxCaptionLen {
		return nil, errValidation("caption exceeds %d characters", maxCaptionLen)
	}

	type outcome struct {
		record  *models.ImageRecord
		failure *UploadFailure
	}
	outcomes := make([]outcome, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(visionWorkers)
	for i, up := range uploads {
		g.Go(func() error {
			fail := func(reason string) error {
				outcomes[i] = outcome{failure: &UploadFailure{Name: up.Name, Reason: reason}}
				return nil
			}

			if len(up.Data) == 0 {
				return fail("empty file")
			}
			if _, err := imaging.Detect(up.Data); err != nil {
				return fail(err.Error())
			}

			payload, err := imaging.PrepareForVision(up.Data)
			if err != nil {
				return fail(fmt.Sprintf("unreadable image: %v", err))
			}

			rec, err := b.sites.SaveImage(userID, up.Name, up.Data)
			if err != nil {
				slog.Error("image save failed", "user", userID, "name", up.Name, "error", err)
				return fail("could not store image")
			}

			genCtx, cancel := context.WithTimeout(gctx, b.genTimeout)
			defer cancel()

			desc, err := b.gen.GenerateWithImage(genCtx, imageSystemPrompt, buildImagePrompt(caption), payload, "image/jpeg")
			if err != nil {
				// No record without a description; drop the orphaned binary.
				slog.Warn("vision analysis failed", "user", userID, "name", up.Name, "error", err)
				if rmErr := b.sites.RemoveImage(userID, rec.StoredName); rmErr != nil {
					slog.Warn("orphan image cleanup failed", "user", userID, "stored", rec.StoredName, "error", rmErr)
				}
				return fail("image analysis failed")
			}

			rec.UserCaption = strings.TrimSpace(caption)
			rec.ModelDescription = strings.TrimSpace(desc)
			outcomes[i] = outcome{record: rec}
			return nil
		})
	}
	// Workers never return errors; Wait just joins them.
	_ = g.Wait()

	result := &IngestResult{}
	for _, o := range outcomes {
		switch {
		case o.record != nil:
			result.Records = append(result.Records, *o.record)
		case o.failure != nil:
			result.Failures = append(result.Failures, *o.failure)
		}
	}

	if len(result.Records) == 0 {
		slog.Warn("image batch fully failed", "user", userID, "count", len(uploads))
		return result, nil
	}

	err := b.locks.WithLock(ctx, userID, locker.ProfileHistory, func() error {
		// Re-load inside the lock: a chat turn may have replaced the
		// profile while analysis was running.
		profile, history, err := b.state.Load(ctx, userID)
		if err != nil {
			return errStorage("load user state", err)
		}

		profile.Images = append(profile.Images, result.Records...)
		history = append(history, summaryTurn(result.Records, caption))

		if err := b.state.Save(ctx, userID, profile, history); err != nil {
			return errStorage("save user state", err)
		}
		return nil
	})
	if err != nil {
		return nil, mapLockErr(err)
	}

	slog.Info("images ingested", "user", userID, "stored", len(result.Records), "failed", len(result.Failures))
	return result, nil
}

// summaryTurn records a completed upload batch as one conversation turn,
// so later prompts know which images exist and what they show.
func summaryTurn(records []models.ImageRecord, caption string) models.ConversationTurn {
	names := make([]string, len(records))
	descs := make([]string, len(records))
	for i, r := range records {
		names[i] = r.OriginalName
		descs[i] = fmt.Sprintf("%s (%s): %s", r.OriginalName, r.RelativeURL, r.ModelDescription)
	}

	user := fmt.Sprintf("Uploaded %d image(s): %s", len(records), strings.Join(names, ", "))
	if strings.TrimSpace(caption) != "" {
		user += fmt.Sprintf(" (caption: %s)", strings.TrimSpace(caption))
	}

	return models.ConversationTurn{
		UserText:      user,
		AssistantText: strings.Join(descs, " "),
	}
}

// Generate rebuilds the user's website from the current profile,
// history, and existing artifact. It holds only the artifact lock:
// profile and history are read as a snapshot, so chat turns proceed
// while a build is running. The artifact is replaced wholesale; a
// failed generation leaves the previous site untouched.
func (b *Builder) Generate(ctx context.Context, userID string) (*models.Site, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, errValidation("%v", err)
	}

	var built *models.Site
	err := b.locks.WithLock(ctx, userID, locker.Artifact, func() error {
		profile, history, err := b.state.Load(ctx, userID)
		if err != nil {
			return errStorage("load user state", err)
		}
		current, err := b.sites.Load(userID)
		if err != nil {
			return errStorage("load site artifact", err)
		}

		genCtx, cancel := context.WithTimeout(ctx, b.genTimeout)
		defer cancel()

		raw, err := b.gen.Generate(genCtx, generateSystemPrompt, buildGeneratePrompt(profile, history, current))
		if err != nil {
			return errUpstream("site generation failed", err)
		}

		code, err := parseGenerateReply(raw)
		if err != nil {
			slog.Warn("generation reply unusable", "user", userID, "error", err, "raw", raw)
			return errMalformed("generation reply unusable", err)
		}

		next := &models.Site{HTML: code.HTML, CSS: code.CSS, JS: code.JS}
		if err := b.sites.Save(userID, next); err != nil {
			return errStorage("save site artifact", err)
		}

		built = next
		return nil
	})
	if err != nil {
		return nil, mapLockErr(err)
	}

	slog.Info("site generated", "user", userID, "html_bytes", len(built.HTML))
	return built, nil
}

// Reset wipes a user back to the blank state: default profile, empty
// history, no site files, no image binaries. Both locks are held, the
// profile lock first and the artifact lock inside it; every operation
// nests in this order, so the two locks cannot deadlock. Holding the
// artifact lock also means reset waits for an in-flight generation
// instead of racing its file writes.
func (b *Builder) Reset(ctx context.Context, userID string) error {
	if err := models.ValidateUserID(userID); err != nil {
		return errValidation("%v", err)
	}

	err := b.locks.WithLock(ctx, userID, locker.ProfileHistory, func() error {
		return b.locks.WithLock(ctx, userID, locker.Artifact, func() error {
			if err := b.state.Save(ctx, userID, models.DefaultProfile(), models.History{}); err != nil {
				return errStorage("reset user state", err)
			}
			if err := b.sites.Reset(userID); err != nil {
				return errStorage("reset site artifact", err)
			}
			return nil
		})
	})
	if err != nil {
		return mapLockErr(err)
	}

	slog.Info("user reset", "user", userID)
	return nil
}

// State returns the stored profile and history without taking locks.
// Reads may race a concurrent write and see the before-or-after state,
// either of which is consistent.
func (b *Builder) State(ctx context.Context, userID string) (*models.Profile, models.History, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, nil, errValidation("%v", err)
	}
	profile, history, err := b.state.Load(ctx, userID)
	if err != nil {
		return nil, nil, errStorage("load user state", err)
	}
	return profile, history, nil
}

// Site returns the stored artifact blobs without taking locks.
func (b *Builder) Site(userID string) (*models.Site, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, errValidation("%v", err)
	}
	s, err := b.sites.Load(userID)
	if err != nil {
		return nil, errStorage("load site artifact", err)
	}
	return s, nil
}

// mapLockErr classifies errors coming back through WithLock. Closure
// errors are already classified and pass through; what remains is lock
// acquisition itself.
func mapLockErr(err error) error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, locker.ErrTimeout) {
		return errLockTimeout("user is busy, try again shortly", err)
	}
	return errStorage("lock acquisition failed", err)
}
