package content

import (
	"context"
	"fmt"
	"slices"

	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

// Service defines collection CRUD with uploaded-image housekeeping.
type Service interface {
	// List returns every record of c in insertion order, never nil.
	List(ctx context.Context, c Collection) ([]Record, error)

	// Add appends rec verbatim and returns it.
	Add(ctx context.Context, c Collection, rec Record) (Record, error)

	// Update replaces the record with the same id wholesale. Uploaded
	// images referenced only by the old version are removed.
	Update(ctx context.Context, c Collection, rec Record) (Record, error)

	// Delete removes the record with id and all its uploaded images.
	Delete(ctx context.Context, c Collection, id string) error

	// Stats counts the records in every collection.
	Stats(ctx context.Context) (map[Collection]int, error)
}

// UploadRemover deletes a managed upload given its public path.
type UploadRemover interface {
	RemoveUpload(ctx context.Context, path string) error
}

type service struct {
	repo    Repository
	uploads UploadRemover
	log     *logger.Logger
}

// NewService creates a collection service.
func NewService(repo Repository, uploads UploadRemover, log *logger.Logger) Service {
	return &service{repo: repo, uploads: uploads, log: log}
}

func (s *service) List(ctx context.Context, c Collection) ([]Record, error) {
	records, err := s.repo.List(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (s *service) Add(ctx context.Context, c Collection, rec Record) (Record, error) {
	if err := s.repo.Add(ctx, c, rec); err != nil {
		return nil, fmt.Errorf("add to %s: %w", c, err)
	}
	return rec, nil
}

func (s *service) Update(ctx context.Context, c Collection, rec Record) (Record, error) {
	old, err := s.repo.Replace(ctx, c, rec)
	if err != nil {
		return nil, fmt.Errorf("update %s %q: %w", c, rec.ID(), err)
	}

	kept := rec.ImagePaths()
	for _, p := range old.ImagePaths() {
		if !slices.Contains(kept, p) {
			s.removeUpload(ctx, p)
		}
	}
	return rec, nil
}

func (s *service) Delete(ctx context.Context, c Collection, id string) error {
	old, err := s.repo.Remove(ctx, c, id)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", c, id, err)
	}
	for _, p := range old.ImagePaths() {
		s.removeUpload(ctx, p)
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (map[Collection]int, error) {
	stats := make(map[Collection]int, len(Collections))
	for _, c := range Collections {
		records, err := s.repo.List(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c, err)
		}
		stats[c] = len(records)
	}
	return stats, nil
}

// removeUpload is best effort: failures are logged and never fail the
// mutation that triggered them.
func (s *service) removeUpload(ctx context.Context, path string) {
	if !IsUploaded(path) || s.uploads == nil {
		return
	}
	if err := s.uploads.RemoveUpload(ctx, path); err != nil {
		s.log.Warn("failed to delete upload", "path", path, "error", err)
		return
	}
	s.log.Info("deleted upload", "path", path)
}
