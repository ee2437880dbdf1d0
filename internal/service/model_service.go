package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/registry"
)

// Layouts accepted for uploadedAt; the second one is written by older registry clients.
var uploadedAtLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05"}

// ModelService is the admin-gated gateway to the model registry.
type ModelService interface {
	ListModels(ctx context.Context, caller *model.User) ([]model.ModelReference, error)
	AddModel(ctx context.Context, caller *model.User, name string) (*model.ModelReference, int, error)
	RemoveModel(ctx context.Context, caller *model.User, name string) (int, error)
}

type modelService struct {
	registry registry.Registry
	access   AccessControl
	log      *zap.Logger
	now      func() time.Time
}

// NewModelService creates a new model registry gateway.
func NewModelService(reg registry.Registry, access AccessControl, log *zap.Logger) ModelService {
	return &modelService{
		registry: reg,
		access:   access,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListModels normalizes bare and structured registry entries into one shape.
func (s *modelService) ListModels(ctx context.Context, caller *model.User) ([]model.ModelReference, error) {
	entries, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	now := s.now()
	out := make([]model.ModelReference, 0, len(entries))
	for _, entry := range entries {
		out = append(out, normalizeEntry(entry, caller.Name, now))
	}
	return out, nil
}

func (s *modelService) AddModel(ctx context.Context, caller *model.User, name string) (*model.ModelReference, int, error) {
	if err := s.access.RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, 0, errors.InvalidOperation("model_name is required")
	}

	now := s.now()
	rec := &registry.Record{
		ID:             name,
		Name:           name,
		HuggingfaceURL: name,
		UploadedBy:     caller.Name,
		UploadedAt:     now.Format(time.RFC3339),
	}
	added, err := s.registry.Add(ctx, name, rec)
	if err != nil {
		return nil, 0, fmt.Errorf("add model: %w", err)
	}
	if !added {
		return nil, 0, errors.Conflict("model already exists")
	}

	total, err := s.registry.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count models: %w", err)
	}

	s.log.Info("model added", zap.Uint("admin_id", caller.ID), zap.String("model", name))
	ref := normalizeEntry(registry.Entry{Name: name, Record: rec}, caller.Name, now)
	return &ref, total, nil
}

func (s *modelService) RemoveModel(ctx context.Context, caller *model.User, name string) (int, error) {
	if err := s.access.RequireAdmin(caller); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)

	removed, err := s.registry.Remove(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("remove model: %w", err)
	}
	if !removed {
		return 0, errors.NotFound("model not found")
	}

	total, err := s.registry.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count models: %w", err)
	}

	s.log.Info("model removed", zap.Uint("admin_id", caller.ID), zap.String("model", name))
	return total, nil
}

func normalizeEntry(entry registry.Entry, defaultUploader string, now time.Time) model.ModelReference {
	ref := model.ModelReference{
		ID:             entry.Name,
		Name:           entry.Name,
		HuggingfaceURL: entry.Name,
		UploadedBy:     defaultUploader,
		UploadedAt:     now,
	}
	rec := entry.Record
	if rec == nil {
		return ref
	}

	if rec.Name != "" {
		ref.Name = rec.Name
	}
	switch {
	case rec.ID != "":
		ref.ID = rec.ID
	case rec.Name != "":
		ref.ID = rec.Name
	}
	if rec.HuggingfaceURL != "" {
		ref.HuggingfaceURL = rec.HuggingfaceURL
	}
	if rec.UploadedBy != "" {
		ref.UploadedBy = rec.UploadedBy
	}
	for _, layout := range uploadedAtLayouts {
		if ts, err := time.Parse(layout, rec.UploadedAt); err == nil {
			ref.UploadedAt = ts
			break
		}
	}
	return ref
}
