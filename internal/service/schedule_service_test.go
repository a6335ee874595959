package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/grahamford77/table-tennis/internal/store"
	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func newScheduleService(db *sqlx.DB) *ScheduleService {
	return NewScheduleService(db, store.NewGameStore(db), store.NewPlayerStore(db), store.NewTournamentStore(db))
}

func createTournament(t *testing.T, db *sqlx.DB) *tournament.Tournament {
	t.Helper()

	svc := NewTournamentService(db, store.NewTournamentStore(db), store.NewGameStore(db))
	tour, err := svc.CreateTournament(context.Background(), TournamentInput{
		Name:        "Spring Open",
		Description: "Round robin night",
		Date:        time.Now().UTC().AddDate(0, 0, 7),
		StartTime:   "19:00",
		Location:    "Main Hall",
		MaxEntrants: 16,
	})
	require.NoError(t, err)
	return tour
}

// registerPlayers signs up n players and returns them in registration order.
func registerPlayers(t *testing.T, db *sqlx.DB, tournamentID uuid.UUID, n int) []tournament.Player {
	t.Helper()

	svc := NewRegistrationService(db, store.NewPlayerStore(db), store.NewGameStore(db), store.NewTournamentStore(db))
	for i := 0; i < n; i++ {
		_, err := svc.Register(context.Background(), tournamentID,
			fmt.Sprintf("Player%d", i+1), "Test", fmt.Sprintf("player%d@example.com", i+1))
		require.NoError(t, err)
	}

	roster, err := svc.Roster(context.Background(), tournamentID)
	require.NoError(t, err)
	require.Len(t, roster, n)
	return roster
}

func TestStartTournament_RoundRobin(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tour := createTournament(t, db)
	roster := registerPlayers(t, db, tour.ID, 4)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, games, 6)

	// Pairs enumerate in roster order: (1,2) (1,3) (1,4) (2,3) (2,4) (3,4)
	expected := [][2]uuid.UUID{
		{roster[0].ID, roster[1].ID},
		{roster[0].ID, roster[2].ID},
		{roster[0].ID, roster[3].ID},
		{roster[1].ID, roster[2].ID},
		{roster[1].ID, roster[3].ID},
		{roster[2].ID, roster[3].ID},
	}

	for i, g := range games {
		assert.Equal(t, i+1, g.GameOrder)
		assert.Equal(t, expected[i][0], g.Player1ID)
		assert.Equal(t, expected[i][1], g.Player2ID)
		assert.Equal(t, tournament.GameScheduled, g.Status)
		assert.Nil(t, g.Player1Score)
		assert.Nil(t, g.Player2Score)
		assert.Nil(t, g.PlayedAt)
	}

	// And the persisted ledger matches the returned batch.
	stored, err := store.NewGameStore(db).GetGames(context.Background(), tour.ID.String())
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for i := range stored {
		assert.Equal(t, games[i].ID, stored[i].ID)
		assert.Equal(t, i+1, stored[i].GameOrder)
	}
}

func TestStartTournament_EveryPairOnce(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tour := createTournament(t, db)
	roster := registerPlayers(t, db, tour.ID, 5)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, games, 10) // 5*4/2

	type pair struct{ a, b uuid.UUID }
	seen := make(map[pair]bool)
	for _, g := range games {
		assert.NotEqual(t, g.Player1ID, g.Player2ID)
		p := pair{g.Player1ID, g.Player2ID}
		assert.False(t, seen[p], "pair repeated")
		seen[p] = true
	}

	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			assert.True(t, seen[pair{roster[i].ID, roster[j].ID}], "pair missing")
		}
	}
}

func TestStartTournament_TwoPlayers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 2)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 1, games[0].GameOrder)
}

func TestStartTournament_AlreadyStarted(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newScheduleService(db)
	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 4)

	first, err := svc.StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)

	_, err = svc.StartTournament(context.Background(), tour.ID)
	assert.ErrorIs(t, err, ErrAlreadyScheduled)

	// The failed attempt must leave the existing schedule untouched.
	stored, err := store.NewGameStore(db).GetGames(context.Background(), tour.ID.String())
	require.NoError(t, err)
	require.Len(t, stored, len(first))
	for i := range stored {
		assert.Equal(t, first[i].ID, stored[i].ID)
	}
}

func TestStartTournament_InsufficientPlayers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newScheduleService(db)

	for _, n := range []int{0, 1} {
		tour := createTournament(t, db)
		if n > 0 {
			registerPlayers(t, db, tour.ID, n)
		}

		_, err := svc.StartTournament(context.Background(), tour.ID)
		assert.ErrorIs(t, err, ErrInsufficientPlayers)

		exists, err := store.NewGameStore(db).HasGames(context.Background(), tour.ID.String())
		require.NoError(t, err)
		assert.False(t, exists, "no games may be created for %d players", n)
	}
}

func TestStartTournament_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := newScheduleService(db).StartTournament(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestStartTournament_ConcurrentStarts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newScheduleService(db)
	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.StartTournament(context.Background(), tour.ID)
		}(i)
	}
	wg.Wait()

	// Exactly one caller wins; the other observes the guard.
	if errs[0] == nil {
		assert.ErrorIs(t, errs[1], ErrAlreadyScheduled)
	} else {
		assert.NoError(t, errs[1])
		assert.ErrorIs(t, errs[0], ErrAlreadyScheduled)
	}

	stored, err := store.NewGameStore(db).GetGames(context.Background(), tour.ID.String())
	require.NoError(t, err)
	assert.Len(t, stored, 6)
}
