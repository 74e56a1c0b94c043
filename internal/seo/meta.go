// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo provides SEO metadata fallback resolution and the completeness
// score used by the admin UI. All functions are pure.
package seo

// Fields holds the flat set of SEO metadata stored on a post.
type Fields struct {
	MetaTitle          string `json:"metaTitle,omitempty"`
	MetaDescription    string `json:"metaDescription,omitempty"`
	Keywords           string `json:"keywords,omitempty"`
	CanonicalURL       string `json:"canonicalUrl,omitempty"`
	OGTitle            string `json:"ogTitle,omitempty"`
	OGDescription      string `json:"ogDescription,omitempty"`
	OGImage            string `json:"ogImage,omitempty"`
	TwitterTitle       string `json:"twitterTitle,omitempty"`
	TwitterDescription string `json:"twitterDescription,omitempty"`
	NoIndex            bool   `json:"noIndex"`
	NoFollow           bool   `json:"noFollow"`
}

// Source carries the post attributes the resolver falls back to.
type Source struct {
	Title         string
	Excerpt       string
	FeaturedImage string
}

// firstNonEmpty returns the first non-empty string in the list.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Resolve computes display-time fallbacks for unset SEO fields:
// metaTitle falls back to the post title, metaDescription to the excerpt,
// the og* fields cascade through the meta fields, and the twitter* fields
// cascade through the og* fields. Explicitly set fields are never changed.
func Resolve(f Fields, src Source) Fields {
	f.MetaTitle = firstNonEmpty(f.MetaTitle, src.Title)
	f.MetaDescription = firstNonEmpty(f.MetaDescription, src.Excerpt)
	f.OGTitle = firstNonEmpty(f.OGTitle, f.MetaTitle, src.Title)
	f.OGDescription = firstNonEmpty(f.OGDescription, f.MetaDescription, src.Excerpt)
	f.OGImage = firstNonEmpty(f.OGImage, src.FeaturedImage)
	f.TwitterTitle = firstNonEmpty(f.TwitterTitle, f.OGTitle, f.MetaTitle, src.Title)
	f.TwitterDescription = firstNonEmpty(f.TwitterDescription, f.OGDescription, f.MetaDescription, src.Excerpt)
	return f
}

// Score computes the 0-100 SEO completeness score for a set of fields.
// Scoring: +20 metaTitle (+5 when its length is 30-60), +20 metaDescription
// (+5 when its length is 120-160), +15 keywords, +15 for the og title and
// description pair, +10 for the twitter pair, +5 canonical URL, +5 when all
// eight core fields are set, -5 when both robot exclusion flags are on.
func Score(f Fields) int {
	score := 0

	if f.MetaTitle != "" {
		score += 20
		if n := len(f.MetaTitle); n >= 30 && n <= 60 {
			score += 5
		}
	}

	if f.MetaDescription != "" {
		score += 20
		if n := len(f.MetaDescription); n >= 120 && n <= 160 {
			score += 5
		}
	}

	if f.Keywords != "" {
		score += 15
	}

	if f.OGTitle != "" && f.OGDescription != "" {
		score += 15
	}

	if f.TwitterTitle != "" && f.TwitterDescription != "" {
		score += 10
	}

	if f.CanonicalURL != "" {
		score += 5
	}

	if f.MetaTitle != "" && f.MetaDescription != "" && f.Keywords != "" &&
		f.OGTitle != "" && f.OGDescription != "" &&
		f.TwitterTitle != "" && f.TwitterDescription != "" && f.CanonicalURL != "" {
		score += 5
	}

	if f.NoIndex && f.NoFollow {
		score -= 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
