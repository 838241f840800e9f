// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure: a full builder
// wired to tempdir-backed stores and a scripted generation stub, so
// handler tests run without any external service.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"sitesmith/internal/ai"
	"sitesmith/internal/builder"
	"sitesmith/internal/cache"
	"sitesmith/internal/locker"
	"sitesmith/internal/publish"
	"sitesmith/internal/site"
	"sitesmith/internal/state"
)

const (
	chatReply = `{"nextQuestion":"What colors should the site use?","updatedUserProfile":{"websiteType":"bakery"}}`
	siteReply = `{"updatedCode":{"html":"<html><head><title>Sunrise</title></head><body><h1>Sunrise Bakery</h1></body></html>","css":"h1{color:peru}","js":"console.log(1)"}}`
)

// stubGen scripts the generation client. Handler tests are sequential,
// so fields are reconfigured between requests, never during one.
type stubGen struct {
	reply       string
	genErr      error
	visionReply string
	visionErr   error
	unsafe      bool
}

func (g *stubGen) Generate(_ context.Context, _, _ string) (string, error) {
	return g.reply, g.genErr
}

func (g *stubGen) GenerateWithImage(_ context.Context, _, _ string, _ []byte, _ string) (string, error) {
	if g.visionErr != nil {
		return "", g.visionErr
	}
	return g.visionReply, nil
}

func (g *stubGen) CheckPrompt(_ context.Context, _ string) (*ai.ModerationResult, error) {
	if g.unsafe {
		return &ai.ModerationResult{Safe: false, Categories: []string{"hate"}}, nil
	}
	return &ai.ModerationResult{Safe: true}, nil
}

// testEnv holds the API handler group plus the pieces tests reconfigure.
type testEnv struct {
	api      *API
	gen      *stubGen
	builder  *builder.Builder
	sites    *site.Store
	previews cache.PreviewCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := state.NewBoltStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("bolt store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sites, err := site.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("site store: %v", err)
	}

	previews, err := cache.NewMemoryPreviewCache(0, time.Minute)
	if err != nil {
		t.Fatalf("preview cache: %v", err)
	}

	gen := &stubGen{reply: chatReply, visionReply: "a storefront with a striped awning"}
	b := builder.New(st, sites, gen, locker.NewManager(2*time.Second, nil), 5*time.Second)

	return &testEnv{
		api:      NewAPI(b, sites, previews, nil, publish.Noop{}, 10),
		gen:      gen,
		builder:  b,
		sites:    sites,
		previews: previews,
	}
}

// postJSON runs one handler against a JSON request body.
func postJSON(t *testing.T, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// withChiURLParam adds a chi URL parameter to a request. Calls stack:
// a second call adds to the same route context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

// wantErrorKind asserts the uniform error body and returns it.
func wantErrorKind(t *testing.T, rec *httptest.ResponseRecorder, status int, kind builder.Kind) errorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	var er errorResponse
	decodeInto(t, rec, &er)
	if er.Kind != kind {
		t.Errorf("error kind = %q, want %q", er.Kind, kind)
	}
	return er
}

// pngBytes encodes a small solid PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
