// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFallbacks(t *testing.T) {
	src := Source{
		Title:         "My Post",
		Excerpt:       "A short excerpt",
		FeaturedImage: "https://cdn.example.com/img.png",
	}

	resolved := Resolve(Fields{}, src)

	assert.Equal(t, "My Post", resolved.MetaTitle)
	assert.Equal(t, "A short excerpt", resolved.MetaDescription)
	assert.Equal(t, "My Post", resolved.OGTitle)
	assert.Equal(t, "A short excerpt", resolved.OGDescription)
	assert.Equal(t, "https://cdn.example.com/img.png", resolved.OGImage)
	assert.Equal(t, "My Post", resolved.TwitterTitle)
	assert.Equal(t, "A short excerpt", resolved.TwitterDescription)
}

func TestResolveCascade(t *testing.T) {
	src := Source{Title: "Title", Excerpt: "Excerpt"}

	// twitter* cascades through og* before the base fields.
	resolved := Resolve(Fields{OGTitle: "OG Title", OGDescription: "OG Desc"}, src)
	assert.Equal(t, "OG Title", resolved.TwitterTitle)
	assert.Equal(t, "OG Desc", resolved.TwitterDescription)

	// og* cascades through meta* before the base fields.
	resolved = Resolve(Fields{MetaTitle: "Meta Title"}, src)
	assert.Equal(t, "Meta Title", resolved.OGTitle)
	assert.Equal(t, "Excerpt", resolved.OGDescription)
}

func TestResolveKeepsExplicitValues(t *testing.T) {
	explicit := Fields{
		MetaTitle:          "mt",
		MetaDescription:    "md",
		OGTitle:            "ot",
		OGDescription:      "od",
		OGImage:            "oi",
		TwitterTitle:       "tt",
		TwitterDescription: "td",
	}
	resolved := Resolve(explicit, Source{Title: "x", Excerpt: "y", FeaturedImage: "z"})
	assert.Equal(t, explicit, resolved)
}

func TestScoreMetaTitleOnly(t *testing.T) {
	// 45-character metaTitle: 20 base + 5 length bonus = 25.
	f := Fields{MetaTitle: strings.Repeat("a", 45)}
	assert.Equal(t, 25, Score(f))

	// Outside the optimal window: base points only.
	assert.Equal(t, 20, Score(Fields{MetaTitle: "short"}))
	assert.Equal(t, 20, Score(Fields{MetaTitle: strings.Repeat("a", 61)}))
}

func TestScoreAllFieldsWithRobotPenalty(t *testing.T) {
	f := Fields{
		MetaTitle:          strings.Repeat("t", 45),
		MetaDescription:    strings.Repeat("d", 140),
		Keywords:           "go,cms",
		CanonicalURL:       "https://example.com/post",
		OGTitle:            "og title",
		OGDescription:      "og description",
		TwitterTitle:       "tw title",
		TwitterDescription: "tw description",
		NoIndex:            true,
		NoFollow:           true,
	}
	// All fields and both length bonuses total 100; the robot penalty takes 5.
	assert.Equal(t, 95, Score(f))

	f.NoIndex = false
	assert.Equal(t, 100, Score(f))
}

func TestScoreClamped(t *testing.T) {
	assert.Equal(t, 0, Score(Fields{NoIndex: true, NoFollow: true}))
	assert.Equal(t, 0, Score(Fields{}))
}

func TestScoreDescriptionLengthBonus(t *testing.T) {
	assert.Equal(t, 25, Score(Fields{MetaDescription: strings.Repeat("d", 120)}))
	assert.Equal(t, 25, Score(Fields{MetaDescription: strings.Repeat("d", 160)}))
	assert.Equal(t, 20, Score(Fields{MetaDescription: strings.Repeat("d", 161)}))
}
