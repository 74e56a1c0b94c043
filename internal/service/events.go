// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business rules sitting between HTTP handlers
// and the store: audit logging, the post lifecycle and user provisioning.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/lapcms/lapcms/internal/store"
	"github.com/lapcms/lapcms/internal/util"
)

// EventService records audit events enriched with request context.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates an EventService.
func NewEventService(queries *store.Queries, logger *slog.Logger) *EventService {
	return &EventService{queries: queries, logger: logger}
}

// Record writes an audit event. When r is non-nil the client IP, request
// URL and parsed user agent are attached as metadata. Failures are logged
// and swallowed: auditing never breaks the request that triggered it.
func (s *EventService) Record(ctx context.Context, level, category, message string, userID sql.NullInt64, r *http.Request, extra map[string]string) {
	meta := map[string]string{}
	for k, v := range extra {
		meta[k] = v
	}

	var ip, url string
	if r != nil {
		ip = util.ClientIP(r)
		url = r.URL.Path
		if uaHeader := r.UserAgent(); uaHeader != "" {
			ua := useragent.Parse(uaHeader)
			meta["browser"] = ua.Name
			meta["os"] = ua.OS
			if ua.Mobile {
				meta["device"] = "mobile"
			}
			if ua.Bot {
				meta["device"] = "bot"
			}
		}
	}

	metaJSON := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metaJSON = string(b)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		IpAddress: ip,
		Url:       url,
		Metadata:  metaJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("recording audit event", "error", err, "message", message)
	}
}

// RecentByUser returns a user's most recent audit entries.
func (s *EventService) RecentByUser(ctx context.Context, userID, limit int64) ([]store.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.queries.ListRecentEventsByUser(ctx, store.ListRecentEventsByUserParams{
		UserID: userID,
		Limit:  limit,
	})
}

// PruneOlderThan deletes audit entries older than the given number of days
// and returns how many were removed.
func (s *EventService) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return s.queries.DeleteOldEvents(ctx, cutoff)
}
