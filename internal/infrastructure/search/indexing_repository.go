package search

import (
	"context"

	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

// IndexingRepository mirrors saves and deletes into the search index.
// Index failures are logged; the database stays the source of truth.
type IndexingRepository struct {
	repository.UserRepository
	Index *UserIndex
}

func NewIndexingRepository(inner repository.UserRepository, index *UserIndex) *IndexingRepository {
	return &IndexingRepository{UserRepository: inner, Index: index}
}

func (r *IndexingRepository) Save(ctx context.Context, u *entity.User) error {
	if err := r.UserRepository.Save(ctx, u); err != nil {
		return err
	}
	if err := r.Index.IndexUser(ctx, u); err != nil && r.Index.Logger != nil {
		r.Index.Logger.WithError(err).WithField("user_id", u.ID().String()).Warn("es index failed")
	}
	return nil
}

func (r *IndexingRepository) Delete(ctx context.Context, id vo.UserID) error {
	if err := r.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.Index.DeleteUser(ctx, id); err != nil && r.Index.Logger != nil {
		r.Index.Logger.WithError(err).WithField("user_id", id.String()).Warn("es delete failed")
	}
	return nil
}

var _ repository.UserRepository = (*IndexingRepository)(nil)
