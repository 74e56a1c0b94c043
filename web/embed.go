// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the static assets shipped with the server, currently
// just the browser SDK client script.
package web

import "embed"

//go:embed static
var Static embed.FS
