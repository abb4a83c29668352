package transport

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

const maxUploadMemory = 10 << 20 // 10MiB held in memory before spilling to disk

type uploadMediaResponse struct {
	URL string `json:"url"`
}

// UploadMedia handles POST /api/media — the file-storage capability
// spec.md §1 names ("Object storage for uploads") and §4.6.1's Deliver
// flow relies on for attaching a delivered file. Multipart form upload,
// one file per request under the "file" field; the durable URL returned
// here is what callers pass back as a Post.MediaLinks entry or a task
// deliverable link.
func (a *App) UploadMedia(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "could not parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "missing file field")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s-%s", userID, uuid.New().String(), header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := a.Storage.Upload(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		writeErrorBody(w, http.StatusInternalServerError, "internal", "upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, uploadMediaResponse{URL: url})
}
