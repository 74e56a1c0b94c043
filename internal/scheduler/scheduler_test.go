// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

func testQueries(t *testing.T) *store.Queries {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	require.NoError(t, store.Migrate(db))
	return store.New(db)
}

func TestPruneEvents_RemovesOldEntries(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := service.NewEventService(q, logger)

	old := store.CreateEventParams{
		Level: "info", Category: "system", Message: "ancient",
		CreatedAt: time.Now().UTC().AddDate(0, 0, -120),
	}
	fresh := store.CreateEventParams{
		Level: "info", Category: "system", Message: "recent",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, q.CreateEvent(ctx, old))
	require.NoError(t, q.CreateEvent(ctx, fresh))

	s := New(events, 90, logger)
	s.pruneEvents()

	n, err := q.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStartStop(t *testing.T) {
	q := testQueries(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := service.NewEventService(q, logger)

	s := New(events, 90, logger)
	require.NoError(t, s.Start())
	s.Stop()
}
