package ports

import (
	"context"

	"github.com/bnema/moonbix-cli/internal/domain"
)

// GameScorer derives a score and a verifiable payload from a game start.
// A result without payload means the round cannot be played.
type GameScorer interface {
	Score(ctx context.Context, start domain.GameStart) (domain.GameResult, error)
}
