package tournament

import (
	"time"

	"github.com/google/uuid"
)

type Tournament struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description"`
	Date        time.Time `db:"date"`
	StartTime   string    `db:"start_time"`
	Location    string    `db:"location"`
	MaxEntrants int       `db:"max_entrants"`
	CreatedAt   time.Time `db:"created_at"`
}

// DisplayName is the label used in tournament dropdowns
func (t *Tournament) DisplayName() string {
	return t.Date.Format("02 Jan 2006") + " - " + t.Name
}
