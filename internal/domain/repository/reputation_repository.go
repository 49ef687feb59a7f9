package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

type ReputationRepository interface {
	// FindScore возвращает кэш рейтинга или nil, если записей ещё не было.
	FindScore(ctx context.Context, userID uuid.UUID) (*entity.TrustScore, error)
	FindScoreForUpdate(ctx context.Context, userID uuid.UUID) (*entity.TrustScore, error)
	SaveScore(ctx context.Context, score *entity.TrustScore) error
	AppendEntry(ctx context.Context, entry *entity.ReputationEntry) error
	// ListEntries возвращает журнал пользователя от старых записей к новым.
	ListEntries(ctx context.Context, userID uuid.UUID) ([]*entity.ReputationEntry, error)
}
