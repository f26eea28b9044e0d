package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/file"
)

// resizedDimensions are the cached image sizes generated when an uploaded
// file is confirmed against a published entity.
var resizedDimensions = []int{150, 350}

type FileService struct {
	repo file.Repository
}

func NewFileService(repo file.Repository) *FileService {
	return &FileService{repo: repo}
}

func (s *FileService) GetByID(ctx context.Context, id uuid.UUID) (*file.File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FileService) Create(ctx context.Context, f *file.File) (*file.File, error) {
	f.PendingAssignment = true
	return s.repo.Create(ctx, f)
}

// Confirm marks an uploaded file as assigned to an entity and records the
// resized versions to be generated for it. Confirming an already-assigned
// file is a no-op for the resize records.
func (s *FileService) Confirm(ctx context.Context, id uuid.UUID) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.MarkAssigned(ctx, f.ID); err != nil {
		return err
	}
	for _, dim := range resizedDimensions {
		if err := s.repo.InsertResizedVersion(ctx, f.ID, dim); err != nil {
			return err
		}
	}
	return nil
}
