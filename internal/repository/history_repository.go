package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clfadmin/internal/model"
)

// HistoryQuery selects one page of a user's classification history.
// Empty filter strings are not applied.
type HistoryQuery struct {
	UserID    uint
	ModelName string
	ModelType string
	Status    string
	Offset    int
	Limit     int
}

// HistoryRepository defines classification history persistence operations.
// Every read and write is scoped to an owning user.
type HistoryRepository interface {
	Create(ctx context.Context, item *model.ClassificationHistory) error
	FindOwned(ctx context.Context, id, userID uint) (*model.ClassificationHistory, error)
	FindOwnedForUpdate(ctx context.Context, id, userID uint) (*model.ClassificationHistory, error)
	List(ctx context.Context, q HistoryQuery) ([]model.ClassificationHistory, int64, error)
	UpdateResults(ctx context.Context, item *model.ClassificationHistory) error
	Delete(ctx context.Context, item *model.ClassificationHistory) error
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo HistoryRepository) error) error
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new classification history repository.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Create inserts a history row.
func (r *historyRepository) Create(ctx context.Context, item *model.ClassificationHistory) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindOwned finds a history row by ID that belongs to userID.
func (r *historyRepository) FindOwned(ctx context.Context, id, userID uint) (*model.ClassificationHistory, error) {
	var item model.ClassificationHistory
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindOwnedForUpdate is FindOwned with a row-level lock.
func (r *historyRepository) FindOwnedForUpdate(ctx context.Context, id, userID uint) (*model.ClassificationHistory, error) {
	var item model.ClassificationHistory
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns the requested page, newest first, together with the number of matching rows.
func (r *historyRepository) List(ctx context.Context, q HistoryQuery) ([]model.ClassificationHistory, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ClassificationHistory{}).
		Where("user_id = ?", q.UserID)
	if q.ModelName != "" {
		query = query.Where("model_name = ?", q.ModelName)
	}
	if q.ModelType != "" {
		query = query.Where("model_type = ?", q.ModelType)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]model.ClassificationHistory, 0)
	if total == 0 || int64(q.Offset) >= total {
		return items, total, nil
	}

	if err := query.
		Order("timestamp DESC").
		Order("id ASC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateResults persists the results payload of an existing row.
func (r *historyRepository) UpdateResults(ctx context.Context, item *model.ClassificationHistory) error {
	return r.db.WithContext(ctx).Model(&model.ClassificationHistory{}).
		Where("id = ? AND user_id = ?", item.ID, item.UserID).
		Update("results_json", item.ResultsJSON).Error
}

// Delete removes a single row.
func (r *historyRepository) Delete(ctx context.Context, item *model.ClassificationHistory) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", item.UserID).
		Delete(&model.ClassificationHistory{}, item.ID).Error
}

// DeleteByUser removes every row owned by userID and reports how many were removed.
func (r *historyRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.ClassificationHistory{})
	return res.RowsAffected, res.Error
}

// WithTransaction executes fn within a database transaction.
func (r *historyRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo HistoryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &historyRepository{db: tx})
	})
}
