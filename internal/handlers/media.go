package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sitesmith/internal/builder"
)

type imagesResponse struct {
	*builder.IngestResult
	Reply     string `json:"reply"`
	ReplyHTML string `json:"replyHtml"`
}

// UploadImages handles POST /api/images: a multipart batch of reference
// images (field "images", repeated) with a shared optional caption.
func (a *API) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload+1024)
	if err := r.ParseMultipartForm(a.maxUpload); err != nil {
		writeValidationError(w, fmt.Sprintf("multipart body rejected: total upload limit is %d MB", a.maxUpload>>20))
		return
	}

	userID := r.FormValue("userId")
	caption := r.FormValue("caption")

	files := r.MultipartForm.File["images"]
	uploads := make([]builder.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeValidationError(w, fmt.Sprintf("could not read %s", fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeValidationError(w, fmt.Sprintf("could not read %s", fh.Filename))
			return
		}
		uploads = append(uploads, builder.Upload{Name: fh.Filename, Data: data})
	}

	result, err := a.builder.IngestImages(r.Context(), userID, uploads, caption)
	if err != nil {
		writeError(w, err)
		return
	}

	reply := ingestReply(result)
	writeJSON(w, http.StatusOK, imagesResponse{
		IngestResult: result,
		Reply:        reply,
		ReplyHTML:    renderReply(reply),
	})
}

// ingestReply summarizes an upload batch for the chat widget, in the
// same voice as the conversation turn the builder records.
func ingestReply(res *builder.IngestResult) string {
	var b strings.Builder
	if len(res.Records) == 0 {
		b.WriteString("None of the images could be added.")
	} else {
		fmt.Fprintf(&b, "Added %d image(s) to your site brief.", len(res.Records))
	}
	for _, rec := range res.Records {
		fmt.Fprintf(&b, "\n- **%s**: %s", rec.OriginalName, rec.ModelDescription)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(&b, "\n- **%s** was skipped: %s", f.Name, f.Reason)
	}
	return b.String()
}

// UserImage handles GET /api/site/{userID}/images/{name}, serving one
// stored image binary so previews can resolve their relative URLs.
func (a *API) UserImage(w http.ResponseWriter, r *http.Request) {
	path, err := a.sites.ImagePath(chi.URLParam(r, "userID"), chi.URLParam(r, "name"))
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}
