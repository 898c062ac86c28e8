package service

import (
	"context"
	"errors"
	"fmt"

	"dynaform/internal/cache"
	"dynaform/internal/engine"
	"dynaform/internal/logging"
	"dynaform/internal/model"
	"dynaform/internal/repository"
)

var ErrNotFound = errors.New("not found")

// QuestionSheetService handles question sheet CRUD and compiles sheets
// into engine forms
type QuestionSheetService struct {
	repo  repository.QuestionSheetRepo
	cache cache.SheetCache
}

// NewQuestionSheetService creates a new question sheet service
func NewQuestionSheetService(repo repository.QuestionSheetRepo) *QuestionSheetService {
	return &QuestionSheetService{repo: repo}
}

// SetCache enables read-through caching of question sheets
func (s *QuestionSheetService) SetCache(c cache.SheetCache) {
	s.cache = c
}

// Create validates and stores a new question sheet
func (s *QuestionSheetService) Create(ctx context.Context, sheet *model.QuestionSheet) (string, error) {
	normalizePages(sheet)
	if err := s.validate(ctx, sheet); err != nil {
		return "", err
	}
	return s.repo.Create(ctx, sheet)
}

// GetByID retrieves a question sheet, returning ErrNotFound when absent
func (s *QuestionSheetService) GetByID(ctx context.Context, id string) (*model.QuestionSheet, error) {
	if s.cache != nil {
		if sheet, err := s.cache.Get(ctx, id); err == nil && sheet != nil {
			return sheet, nil
		} else if err != nil {
			logging.FromContext(ctx).Warn("question sheet cache read failed", "id", id, "error", err)
		}
	}

	sheet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, fmt.Errorf("question sheet %s: %w", id, ErrNotFound)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sheet); err != nil {
			logging.FromContext(ctx).Warn("question sheet cache write failed", "id", id, "error", err)
		}
	}
	return sheet, nil
}

// List retrieves all question sheets
func (s *QuestionSheetService) List(ctx context.Context) ([]*model.QuestionSheet, error) {
	return s.repo.List(ctx)
}

// Update validates and replaces an existing question sheet
func (s *QuestionSheetService) Update(ctx context.Context, sheet *model.QuestionSheet) error {
	normalizePages(sheet)
	if err := s.validate(ctx, sheet); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, sheet); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("question sheet %s: %w", sheet.ID, ErrNotFound)
		}
		return err
	}
	s.evict(ctx, sheet.ID)
	return nil
}

// Delete deletes a question sheet
func (s *QuestionSheetService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

// Form loads a question sheet and compiles it for evaluation
func (s *QuestionSheetService) Form(ctx context.Context, id string) (*engine.Form, error) {
	sheet, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.NewForm(sheet)
}

func (s *QuestionSheetService) evict(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("question sheet cache evict failed", "id", id, "error", err)
	}
}

// validate checks structure, compiles conditions and enforces slug
// uniqueness within the sheet and across sheets.
func (s *QuestionSheetService) validate(ctx context.Context, sheet *model.QuestionSheet) error {
	if _, err := engine.NewForm(sheet); err != nil {
		return err
	}
	seen := make(map[string]string)
	for _, q := range sheet.Questions() {
		if q.Slug == "" {
			continue
		}
		if other, ok := seen[q.Slug]; ok {
			return engine.ValidationError(fmt.Errorf("slug %q is used by questions %s and %s", q.Slug, other, q.ID))
		}
		seen[q.Slug] = q.ID

		taken, err := s.repo.SlugTaken(ctx, q.Slug, sheet.ID)
		if err != nil {
			return err
		}
		if taken {
			return engine.ValidationError(fmt.Errorf("slug %q is already taken", q.Slug))
		}
	}
	return nil
}

// normalizePages numbers pages in order and labels unlabeled ones
// "Page <n>" after the highest existing label.
func normalizePages(sheet *model.QuestionSheet) {
	labels := make([]string, 0, len(sheet.Pages))
	for _, p := range sheet.Pages {
		labels = append(labels, p.Label)
	}
	for i := range sheet.Pages {
		p := &sheet.Pages[i]
		p.Number = i + 1
		if p.Label == "" {
			p.Label = model.NextLabel("Page", labels)
			labels = append(labels, p.Label)
		}
		for j := range p.Questions {
			if p.Questions[j].Position == 0 {
				p.Questions[j].Position = j + 1
			}
		}
	}
}
