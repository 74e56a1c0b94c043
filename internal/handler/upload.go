// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/model"
)

// MaxUploadSize is the per-file limit for image uploads.
const MaxUploadSize = 5 << 20

type uploadError struct {
	status  int
	code    string
	message string
}

// UploadImage handles POST /api/upload/upload-image: a single multipart
// image stored in the object bucket, answered with its public URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	url, uerr := h.storeImage(w, r)
	if uerr != nil {
		writeError(w, uerr.status, uerr.message, uerr.code)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"url": url})
}

// UploadImageEditorJS handles POST /api/upload/upload-image-editorjs.
// Same upload path, but the response uses the shape the EditorJS image
// plugin expects, including success: 0 on failure.
func (h *Handler) UploadImageEditorJS(w http.ResponseWriter, r *http.Request) {
	url, uerr := h.storeImage(w, r)
	if uerr != nil {
		writeJSON(w, uerr.status, map[string]any{
			"success": 0,
			"error":   uerr.message,
			"code":    uerr.code,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": 1,
		"file":    map[string]any{"url": url},
	})
}

// storeImage reads the multipart "image" field, enforces the size and
// content-type limits, and uploads the bytes to the object store.
func (h *Handler) storeImage(w http.ResponseWriter, r *http.Request) (string, *uploadError) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		return "", &uploadError{http.StatusBadRequest, "FILE_TOO_LARGE", "Image must be 5MB or smaller"}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return "", &uploadError{http.StatusBadRequest, "MISSING_FILE", "Image file is required"}
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", &uploadError{http.StatusBadRequest, "INVALID_FILE", "Could not read uploaded file"}
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", &uploadError{http.StatusBadRequest, "INVALID_FILE_TYPE", "Only image uploads are allowed"}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("images/%d-%s%s", time.Now().Unix(), uuid.NewString(), ext)

	url, err := h.uploads.Upload(r.Context(), key, contentType, bytes.NewReader(data))
	if err != nil {
		slog.Error("image upload failed", "error", err, "key", key)
		return "", &uploadError{http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store image"}
	}

	if user, ok := middleware.UserFromContext(r); ok {
		h.events.Record(r.Context(), model.EventLevelInfo, model.EventCategoryUpload,
			"image_uploaded", sql.NullInt64{Int64: user.ID, Valid: true}, r,
			map[string]string{"key": key, "size": fmt.Sprint(len(data))})
	}
	return url, nil
}
