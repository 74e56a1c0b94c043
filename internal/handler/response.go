// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/util"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a success envelope. The payload keys are merged next
// to "success": true.
func writeSuccess(w http.ResponseWriter, statusCode int, payload map[string]any) {
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["success"] = true
	writeJSON(w, statusCode, payload)
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]any{
		"error": message,
		"code":  code,
	})
}

// writeInternalError logs the failure with request context and answers with
// a generic 500 so internals never leak to the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	args := []any{
		"error", err,
		"method", r.Method,
		"url", r.URL.Path,
		"ip", util.ClientIP(r),
	}
	if user, ok := middleware.UserFromContext(r); ok {
		args = append(args, "user_id", user.ID)
	}
	slog.Error(logMsg, args...)
	writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
}

// decodeJSON decodes the request body into dst and rejects malformed bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return false
	}
	return true
}

// serviceError maps the shared service sentinels to HTTP responses.
// Returns false when err is nil or needs handler-specific mapping.
func serviceError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have permission to perform this action", "FORBIDDEN")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	default:
		writeInternalError(w, r, "unhandled service error", err)
	}
	return true
}

// urlID parses a numeric route parameter.
func urlID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}

// parsePagination reads page/limit query parameters with bounds applied.
func parsePagination(r *http.Request, defaultLimit, maxLimit int64) (page, limit, offset int64) {
	page = 1
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && v > 0 {
		page = v
	}
	limit = defaultLimit
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	return page, limit, (page - 1) * limit
}

// totalPages computes the page count for a pagination block.
func totalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
