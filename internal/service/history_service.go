package service

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/repository"
)

const (
	// DefaultPerPage is used when the page size is missing or not positive.
	DefaultPerPage = 10
	// MaxPerPage caps the page size; larger requests are clamped silently.
	MaxPerPage = 100
)

// HistoryFilter narrows a history listing. Empty fields are not applied.
type HistoryFilter struct {
	ModelName string
	ModelType string
	Status    string
}

// Pagination describes the position of a page within the full result.
type Pagination struct {
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// FiltersApplied echoes the filters used; unused filters are null.
type FiltersApplied struct {
	ModelName *string `json:"model_name"`
	ModelType *string `json:"model_type"`
	Status    *string `json:"status"`
}

// HistoryPage is one page of a caller's classification history.
type HistoryPage struct {
	History        []model.ClassificationHistory `json:"history"`
	Pagination     Pagination                    `json:"pagination"`
	UserID         string                        `json:"user_id"`
	FiltersApplied FiltersApplied                `json:"filters_applied"`
}

// HistoryService exposes owner-scoped history operations.
type HistoryService interface {
	List(ctx context.Context, caller *model.User, filter HistoryFilter, page, perPage int) (*HistoryPage, error)
	Get(ctx context.Context, caller *model.User, id uint) (*model.ClassificationHistory, error)
	UpdatePredictions(ctx context.Context, caller *model.User, id uint, predictions json.RawMessage) (*model.ClassificationHistory, int, error)
	Delete(ctx context.Context, caller *model.User, id uint) (*model.HistorySummary, error)
	Clear(ctx context.Context, caller *model.User) (int64, error)
}

type historyService struct {
	repo   repository.HistoryRepository
	access AccessControl
	log    *zap.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(repo repository.HistoryRepository, access AccessControl, log *zap.Logger) HistoryService {
	return &historyService{repo: repo, access: access, log: log}
}

// List returns the caller's rows, newest first. A page past the end is empty
// but still carries the correct totals.
func (s *historyService) List(ctx context.Context, caller *model.User, filter HistoryFilter, page, perPage int) (*HistoryPage, error) {
	page, perPage = normalizePage(page, perPage)

	items, total, err := s.repo.List(ctx, repository.HistoryQuery{
		UserID:    caller.ID,
		ModelName: filter.ModelName,
		ModelType: filter.ModelType,
		Status:    filter.Status,
		Offset:    pageOffset(page, perPage),
		Limit:     perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &HistoryPage{
		History: items,
		Pagination: Pagination{
			Page:    page,
			Pages:   pages,
			PerPage: perPage,
			Total:   total,
			HasNext: page < pages,
			HasPrev: page > 1,
		},
		UserID: strconv.FormatUint(uint64(caller.ID), 10),
		FiltersApplied: FiltersApplied{
			ModelName: optional(filter.ModelName),
			ModelType: optional(filter.ModelType),
			Status:    optional(filter.Status),
		},
	}, nil
}

// pageOffset returns the row offset of a page, saturating at math.MaxInt so a
// huge page number lands past the end instead of wrapping.
func pageOffset(page, perPage int) int {
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

func (s *historyService) Get(ctx context.Context, caller *model.User, id uint) (*model.ClassificationHistory, error) {
	item, err := s.repo.FindOwned(ctx, id, caller.ID)
	if err != nil {
		return nil, translateHistoryErr("get history", err)
	}
	if err := s.access.RequireOwner(item, caller); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdatePredictions replaces results_json wholesale. On failure nothing is
// committed and the returned item is not modified.
func (s *historyService) UpdatePredictions(ctx context.Context, caller *model.User, id uint, predictions json.RawMessage) (*model.ClassificationHistory, int, error) {
	count, err := validatePredictions(predictions)
	if err != nil {
		return nil, 0, err
	}

	var (
		item     *model.ClassificationHistory
		previous datatypes.JSON
	)
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.HistoryRepository) error {
		found, err := tx.FindOwnedForUpdate(ctx, id, caller.ID)
		if err != nil {
			return translateHistoryErr("update predictions", err)
		}
		if err := s.access.RequireOwner(found, caller); err != nil {
			return err
		}

		item = found
		previous = found.ResultsJSON
		found.ResultsJSON = datatypes.JSON(bytes.Clone(predictions))
		if err := tx.UpdateResults(ctx, found); err != nil {
			return fmt.Errorf("update predictions: %w", err)
		}
		return nil
	})
	if err != nil {
		if item != nil {
			item.ResultsJSON = previous
		}
		return nil, 0, err
	}

	s.log.Info("history predictions updated",
		zap.Uint("user_id", caller.ID), zap.Uint("history_id", id), zap.Int("predictions", count))
	return item, count, nil
}

func (s *historyService) Delete(ctx context.Context, caller *model.User, id uint) (*model.HistorySummary, error) {
	var summary model.HistorySummary
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.HistoryRepository) error {
		item, err := tx.FindOwnedForUpdate(ctx, id, caller.ID)
		if err != nil {
			return translateHistoryErr("delete history", err)
		}
		if err := s.access.RequireOwner(item, caller); err != nil {
			return err
		}
		if err := tx.Delete(ctx, item); err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		summary = item.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("history item deleted", zap.Uint("user_id", caller.ID), zap.Uint("history_id", id))
	return &summary, nil
}

// Clear removes all of the caller's rows in one transaction.
func (s *historyService) Clear(ctx context.Context, caller *model.User) (int64, error) {
	var deleted int64
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.HistoryRepository) error {
		n, err := tx.DeleteByUser(ctx, caller.ID)
		if err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("history cleared", zap.Uint("user_id", caller.ID), zap.Int64("deleted", deleted))
	return deleted, nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// validatePredictions requires a non-empty JSON value and returns how many
// predictions it holds.
func validatePredictions(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return 0, errors.InvalidOperation("predictions data required")
	}

	var decoded interface{}
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return 0, errors.InvalidOperation("predictions data required")
	}

	switch v := decoded.(type) {
	case nil:
		return 0, errors.InvalidOperation("predictions data required")
	case []interface{}:
		if len(v) == 0 {
			return 0, errors.InvalidOperation("predictions data required")
		}
		return len(v), nil
	case map[string]interface{}:
		if len(v) == 0 {
			return 0, errors.InvalidOperation("predictions data required")
		}
		return len(v), nil
	case string:
		if v == "" {
			return 0, errors.InvalidOperation("predictions data required")
		}
	}
	return 1, nil
}

func translateHistoryErr(op string, err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errHistoryNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
