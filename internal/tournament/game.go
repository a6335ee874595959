package tournament

import (
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GameScheduled  GameStatus = "scheduled"
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
	GameCancelled  GameStatus = "cancelled"
)

type Game struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`

	Player1ID uuid.UUID `db:"player1_id"`
	Player2ID uuid.UUID `db:"player2_id"`

	// Position in the tournament's game list, 1-based
	GameOrder int `db:"game_order"`

	Player1Score *int       `db:"player1_score"`
	Player2Score *int       `db:"player2_score"`
	Status       GameStatus `db:"status"`

	CreatedAt time.Time  `db:"created_at"`
	PlayedAt  *time.Time `db:"played_at"`
}

func (g *Game) IsCompleted() bool {
	return g.Status == GameCompleted
}
