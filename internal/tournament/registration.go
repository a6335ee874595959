package tournament

import (
	"time"

	"github.com/google/uuid"
)

// Registration ties a player to a tournament. Registration order fixes
// the roster order the scheduler enumerates.
type Registration struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	PlayerID     uuid.UUID `db:"player_id"`
	CreatedAt    time.Time `db:"created_at"`
}
