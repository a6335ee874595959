package tournament

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID        uuid.UUID `db:"id"`
	FirstName string    `db:"first_name"`
	Surname   string    `db:"surname"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func (p *Player) FullName() string {
	return p.FirstName + " " + p.Surname
}
