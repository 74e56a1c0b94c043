// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lapcms/lapcms/internal/store"
	"github.com/lapcms/lapcms/internal/util"
)

// TaxonomyService manages categories and tags. Both share the same slug
// rules as posts; deletion is refused while posts still reference the row.
type TaxonomyService struct {
	queries *store.Queries
}

// NewTaxonomyService creates a TaxonomyService.
func NewTaxonomyService(queries *store.Queries) *TaxonomyService {
	return &TaxonomyService{queries: queries}
}

func (s *TaxonomyService) taxonomySlug(name, slug string) (string, error) {
	if slug == "" {
		slug = name
	}
	slug = util.Slugify(slug)
	if !util.IsValidSlug(slug) {
		return "", fmt.Errorf("%w: cannot derive a slug from the name", ErrInvalidInput)
	}
	return slug, nil
}

// CreateCategory inserts a category, deriving the slug from the name
// when none is given.
func (s *TaxonomyService) CreateCategory(ctx context.Context, name, slug, description string) (store.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Category{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	slug, err := s.taxonomySlug(name, slug)
	if err != nil {
		return store.Category{}, err
	}

	n, err := s.queries.CountCategoriesBySlug(ctx, store.CountCategoriesBySlugParams{Slug: slug})
	if err != nil {
		return store.Category{}, fmt.Errorf("checking slug: %w", err)
	}
	if n > 0 {
		return store.Category{}, ErrSlugExists
	}

	now := time.Now().UTC()
	cat, err := s.queries.CreateCategory(ctx, store.CreateCategoryParams{
		Name:        name,
		Slug:        slug,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return store.Category{}, fmt.Errorf("creating category: %w", err)
	}
	return cat, nil
}

// UpdateCategory rewrites a category.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, id int64, name, slug, description string) (store.Category, error) {
	existing, err := s.queries.GetCategoryByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Category{}, ErrNotFound
		}
		return store.Category{}, fmt.Errorf("fetching category: %w", err)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = existing.Name
	}
	if slug == "" {
		slug = existing.Slug
	}
	slug, err = s.taxonomySlug(name, slug)
	if err != nil {
		return store.Category{}, err
	}

	n, err := s.queries.CountCategoriesBySlug(ctx, store.CountCategoriesBySlugParams{Slug: slug, ExcludeID: id})
	if err != nil {
		return store.Category{}, fmt.Errorf("checking slug: %w", err)
	}
	if n > 0 {
		return store.Category{}, ErrSlugExists
	}

	cat, err := s.queries.UpdateCategory(ctx, store.UpdateCategoryParams{
		Name:        name,
		Slug:        slug,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
		ID:          id,
	})
	if err != nil {
		return store.Category{}, fmt.Errorf("updating category: %w", err)
	}
	return cat, nil
}

// DeleteCategory removes a category unless posts still reference it.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.queries.GetCategoryByID(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("fetching category: %w", err)
	}

	n, err := s.queries.CountPostsByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("counting references: %w", err)
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return s.queries.DeleteCategory(ctx, id)
}

// CreateTag inserts a tag, deriving the slug from the name when none is
// given.
func (s *TaxonomyService) CreateTag(ctx context.Context, name, slug string) (store.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Tag{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	slug, err := s.taxonomySlug(name, slug)
	if err != nil {
		return store.Tag{}, err
	}

	n, err := s.queries.CountTagsBySlug(ctx, store.CountTagsBySlugParams{Slug: slug})
	if err != nil {
		return store.Tag{}, fmt.Errorf("checking slug: %w", err)
	}
	if n > 0 {
		return store.Tag{}, ErrSlugExists
	}

	now := time.Now().UTC()
	tag, err := s.queries.CreateTag(ctx, store.CreateTagParams{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Tag{}, fmt.Errorf("creating tag: %w", err)
	}
	return tag, nil
}

// UpdateTag rewrites a tag.
func (s *TaxonomyService) UpdateTag(ctx context.Context, id int64, name, slug string) (store.Tag, error) {
	existing, err := s.queries.GetTagByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Tag{}, ErrNotFound
		}
		return store.Tag{}, fmt.Errorf("fetching tag: %w", err)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = existing.Name
	}
	if slug == "" {
		slug = existing.Slug
	}
	slug, err = s.taxonomySlug(name, slug)
	if err != nil {
		return store.Tag{}, err
	}

	n, err := s.queries.CountTagsBySlug(ctx, store.CountTagsBySlugParams{Slug: slug, ExcludeID: id})
	if err != nil {
		return store.Tag{}, fmt.Errorf("checking slug: %w", err)
	}
	if n > 0 {
		return store.Tag{}, ErrSlugExists
	}

	tag, err := s.queries.UpdateTag(ctx, store.UpdateTagParams{
		Name:      name,
		Slug:      slug,
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		return store.Tag{}, fmt.Errorf("updating tag: %w", err)
	}
	return tag, nil
}

// DeleteTag removes a tag unless posts still reference it.
func (s *TaxonomyService) DeleteTag(ctx context.Context, id int64) error {
	if _, err := s.queries.GetTagByID(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("fetching tag: %w", err)
	}

	n, err := s.queries.CountPostsByTag(ctx, id)
	if err != nil {
		return fmt.Errorf("counting references: %w", err)
	}
	if n > 0 {
		return ErrTagInUse
	}
	return s.queries.DeleteTag(ctx, id)
}
