// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lapcms/lapcms/internal/model"
	"github.com/lapcms/lapcms/internal/policy"
	"github.com/lapcms/lapcms/internal/seo"
	"github.com/lapcms/lapcms/internal/store"
	"github.com/lapcms/lapcms/internal/util"
)

// PostService owns the post lifecycle: slug management, the publish state
// machine and author-or-admin authorization.
type PostService struct {
	queries *store.Queries
	strict  *bluemonday.Policy
	ugc     *bluemonday.Policy
}

// NewPostService creates a PostService.
func NewPostService(queries *store.Queries) *PostService {
	return &PostService{
		queries: queries,
		strict:  bluemonday.StrictPolicy(),
		ugc:     bluemonday.UGCPolicy(),
	}
}

// PostInput is the request-shaped input for creating or updating a post.
type PostInput struct {
	Title         string
	Slug          string
	Excerpt       string
	Content       *string
	Type          string
	Status        string
	FeaturedImage string
	CategoryIDs   []int64
	TagIDs        []int64
	SEO           seo.Fields
}

func (s *PostService) validate(in *PostInput) error {
	in.Title = strings.TrimSpace(s.strict.Sanitize(in.Title))
	in.Excerpt = strings.TrimSpace(s.ugc.Sanitize(in.Excerpt))

	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = model.PostTypePost
	}
	if !model.IsValidPostType(in.Type) {
		return fmt.Errorf("%w: unknown post type %q", ErrInvalidInput, in.Type)
	}
	if in.Status == "" {
		in.Status = model.PostStatusDraft
	}
	if !model.IsValidPostStatus(in.Status) {
		return fmt.Errorf("%w: unknown post status %q", ErrInvalidInput, in.Status)
	}
	return nil
}

// resolveSlug derives and validates the slug for a post, rejecting
// collisions with any other post.
func (s *PostService) resolveSlug(ctx context.Context, in PostInput, excludeID int64) (string, error) {
	slug := in.Slug
	if slug == "" {
		slug = util.Slugify(in.Title)
	} else {
		slug = util.Slugify(slug)
	}
	if !util.IsValidSlug(slug) {
		return "", fmt.Errorf("%w: cannot derive a slug from the title", ErrInvalidInput)
	}

	n, err := s.queries.CountPostsBySlug(ctx, store.CountPostsBySlugParams{
		Slug:      slug,
		ExcludeID: excludeID,
	})
	if err != nil {
		return "", fmt.Errorf("checking slug: %w", err)
	}
	if n > 0 {
		return "", ErrSlugExists
	}
	return slug, nil
}

// Create inserts a new post authored by the actor. A post created directly
// in PUBLISHED state gets its publish time stamped immediately.
func (s *PostService) Create(ctx context.Context, actor store.User, in PostInput) (store.Post, error) {
	if !policy.Allows(actor.Role, policy.ResourcePosts, policy.ActionCreate) {
		return store.Post{}, ErrForbidden
	}
	if err := s.validate(&in); err != nil {
		return store.Post{}, err
	}

	slug, err := s.resolveSlug(ctx, in, 0)
	if err != nil {
		return store.Post{}, err
	}

	now := time.Now().UTC()
	var publishedAt sql.NullTime
	if in.Status == model.PostStatusPublished {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}

	post, err := s.queries.CreatePost(ctx, store.CreatePostParams{
		Title:              in.Title,
		Slug:               slug,
		Excerpt:            in.Excerpt,
		Content:            util.NullStringPtr(in.Content),
		Type:               in.Type,
		Status:             in.Status,
		FeaturedImage:      in.FeaturedImage,
		AuthorID:           actor.ID,
		PublishedAt:        publishedAt,
		MetaTitle:          in.SEO.MetaTitle,
		MetaDescription:    in.SEO.MetaDescription,
		MetaKeywords:       in.SEO.Keywords,
		CanonicalUrl:       in.SEO.CanonicalURL,
		OgTitle:            in.SEO.OGTitle,
		OgDescription:      in.SEO.OGDescription,
		OgImage:            in.SEO.OGImage,
		TwitterTitle:       in.SEO.TwitterTitle,
		TwitterDescription: in.SEO.TwitterDescription,
		NoIndex:            in.SEO.NoIndex,
		NoFollow:           in.SEO.NoFollow,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return store.Post{}, fmt.Errorf("creating post: %w", err)
	}

	if err := s.setRelations(ctx, post.ID, in); err != nil {
		return store.Post{}, err
	}
	return post, nil
}

// Update rewrites a post. Only the author or an admin may touch it.
// publishedAt survives every status change once set; moving a never
// published post to PUBLISHED stamps it.
func (s *PostService) Update(ctx context.Context, actor store.User, id int64, in PostInput) (store.Post, error) {
	existing, err := s.get(ctx, id)
	if err != nil {
		return store.Post{}, err
	}
	if err := s.authorize(actor, existing); err != nil {
		return store.Post{}, err
	}
	if err := s.validate(&in); err != nil {
		return store.Post{}, err
	}

	slug, err := s.resolveSlug(ctx, in, id)
	if err != nil {
		return store.Post{}, err
	}

	publishedAt := existing.PublishedAt
	if in.Status == model.PostStatusPublished && !publishedAt.Valid {
		publishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	post, err := s.queries.UpdatePost(ctx, store.UpdatePostParams{
		Title:              in.Title,
		Slug:               slug,
		Excerpt:            in.Excerpt,
		Content:            util.NullStringPtr(in.Content),
		Type:               in.Type,
		Status:             in.Status,
		FeaturedImage:      in.FeaturedImage,
		PublishedAt:        publishedAt,
		MetaTitle:          in.SEO.MetaTitle,
		MetaDescription:    in.SEO.MetaDescription,
		MetaKeywords:       in.SEO.Keywords,
		CanonicalUrl:       in.SEO.CanonicalURL,
		OgTitle:            in.SEO.OGTitle,
		OgDescription:      in.SEO.OGDescription,
		OgImage:            in.SEO.OGImage,
		TwitterTitle:       in.SEO.TwitterTitle,
		TwitterDescription: in.SEO.TwitterDescription,
		NoIndex:            in.SEO.NoIndex,
		NoFollow:           in.SEO.NoFollow,
		UpdatedAt:          time.Now().UTC(),
		ID:                 id,
	})
	if err != nil {
		return store.Post{}, fmt.Errorf("updating post: %w", err)
	}

	if err := s.setRelations(ctx, post.ID, in); err != nil {
		return store.Post{}, err
	}
	return post, nil
}

// SetStatus moves a post to the given status. Publishing stamps
// publishedAt on the first transition only; unpublishing and archiving
// leave it untouched.
func (s *PostService) SetStatus(ctx context.Context, actor store.User, id int64, status string) (store.Post, error) {
	if !model.IsValidPostStatus(status) {
		return store.Post{}, fmt.Errorf("%w: unknown post status %q", ErrInvalidInput, status)
	}

	existing, err := s.get(ctx, id)
	if err != nil {
		return store.Post{}, err
	}
	if err := s.authorize(actor, existing); err != nil {
		return store.Post{}, err
	}

	publishedAt := existing.PublishedAt
	if status == model.PostStatusPublished && !publishedAt.Valid {
		publishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	post, err := s.queries.UpdatePostStatus(ctx, store.UpdatePostStatusParams{
		Status:      status,
		PublishedAt: publishedAt,
		UpdatedAt:   time.Now().UTC(),
		ID:          id,
	})
	if err != nil {
		return store.Post{}, fmt.Errorf("updating post status: %w", err)
	}
	return post, nil
}

// Delete removes a post. Only the author or an admin may delete it.
func (s *PostService) Delete(ctx context.Context, actor store.User, id int64) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, existing); err != nil {
		return err
	}
	if err := s.queries.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

// Get fetches a post by ID.
func (s *PostService) Get(ctx context.Context, id int64) (store.Post, error) {
	return s.get(ctx, id)
}

// ResolvedSEO returns the post's SEO fields with display-time fallbacks
// applied, plus the completeness score of the stored fields.
func (s *PostService) ResolvedSEO(post store.Post) (seo.Fields, int) {
	fields := SEOFields(post)
	resolved := seo.Resolve(fields, seo.Source{
		Title:         post.Title,
		Excerpt:       post.Excerpt,
		FeaturedImage: post.FeaturedImage,
	})
	return resolved, seo.Score(fields)
}

// SEOFields extracts the stored SEO columns of a post.
func SEOFields(post store.Post) seo.Fields {
	return seo.Fields{
		MetaTitle:          post.MetaTitle,
		MetaDescription:    post.MetaDescription,
		Keywords:           post.MetaKeywords,
		CanonicalURL:       post.CanonicalUrl,
		OGTitle:            post.OgTitle,
		OGDescription:      post.OgDescription,
		OGImage:            post.OgImage,
		TwitterTitle:       post.TwitterTitle,
		TwitterDescription: post.TwitterDescription,
		NoIndex:            post.NoIndex,
		NoFollow:           post.NoFollow,
	}
}

func (s *PostService) get(ctx context.Context, id int64) (store.Post, error) {
	post, err := s.queries.GetPostByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Post{}, ErrNotFound
		}
		return store.Post{}, fmt.Errorf("fetching post: %w", err)
	}
	return post, nil
}

func (s *PostService) authorize(actor store.User, post store.Post) error {
	if post.AuthorID == actor.ID {
		return nil
	}
	if policy.CanManageOthers(actor.Role) {
		return nil
	}
	return ErrForbidden
}

func (s *PostService) setRelations(ctx context.Context, postID int64, in PostInput) error {
	if in.CategoryIDs != nil {
		if err := s.queries.SetPostCategories(ctx, postID, in.CategoryIDs); err != nil {
			return fmt.Errorf("setting categories: %w", err)
		}
	}
	if in.TagIDs != nil {
		if err := s.queries.SetPostTags(ctx, postID, in.TagIDs); err != nil {
			return fmt.Errorf("setting tags: %w", err)
		}
	}
	return nil
}
