package repository

import (
	"context"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.CustomProposal) error
	Update(ctx context.Context, proposal *entity.CustomProposal) error
	FindByID(ctx context.Context, id int64) (*entity.CustomProposal, error)
	LockByID(ctx context.Context, id int64) (*entity.CustomProposal, error)
	// ExpirePending помечает истёкшими все ожидающие предложения с expires_at < now.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
