package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grahamford77/table-tennis/internal/store"
	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGameService(db *sqlx.DB) *GameService {
	return NewGameService(db, store.NewGameStore(db), store.NewPlayerStore(db))
}

func TestHasScheduleAndListGames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newGameService(db)
	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 3)

	has, err := svc.HasSchedule(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.False(t, has)

	games, err := svc.ListGames(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Empty(t, games)

	_, err = newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)

	has, err = svc.HasSchedule(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.True(t, has)

	games, err = svc.ListGames(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, games, 3)
	for i, g := range games {
		assert.Equal(t, i+1, g.GameOrder)
	}
}

func TestRecordResult(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newGameService(db)
	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 2)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)

	before := time.Now().UTC()
	updated, err := svc.RecordResult(context.Background(), games[0].ID, 21, 15)
	after := time.Now().UTC()
	require.NoError(t, err)

	assert.Equal(t, 21, *updated.Player1Score)
	assert.Equal(t, 15, *updated.Player2Score)
	assert.Equal(t, tournament.GameCompleted, updated.Status)
	require.NotNil(t, updated.PlayedAt)
	assert.False(t, updated.PlayedAt.Before(before))
	assert.False(t, updated.PlayedAt.After(after))

	// Result is persisted, not just returned.
	stored, err := store.NewGameStore(db).GetGame(context.Background(), games[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, 21, *stored.Player1Score)
	assert.Equal(t, 15, *stored.Player2Score)
	assert.Equal(t, tournament.GameCompleted, stored.Status)
}

func TestRecordResult_Overwrite(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newGameService(db)
	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 2)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)

	_, err = svc.RecordResult(context.Background(), games[0].ID, 21, 15)
	require.NoError(t, err)

	// Re-recording a completed game overwrites the previous result.
	updated, err := svc.RecordResult(context.Background(), games[0].ID, 19, 21)
	require.NoError(t, err)
	assert.Equal(t, 19, *updated.Player1Score)
	assert.Equal(t, 21, *updated.Player2Score)
	assert.Equal(t, tournament.GameCompleted, updated.Status)
}

func TestRecordResult_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newGameService(db)
	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 2)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)

	_, err = svc.RecordResult(context.Background(), uuid.New(), 11, 9)
	assert.ErrorIs(t, err, ErrGameNotFound)

	// No side effect on existing games.
	stored, err := store.NewGameStore(db).GetGame(context.Background(), games[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, tournament.GameScheduled, stored.Status)
	assert.Nil(t, stored.Player1Score)
}

func TestRecordResult_NegativeScore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newGameService(db)
	tour := createTournament(t, db)
	registerPlayers(t, db, tour.ID, 2)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)

	_, err = svc.RecordResult(context.Background(), games[0].ID, -1, 11)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestGetTournamentGames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	svc := newGameService(db)
	tour := createTournament(t, db)
	roster := registerPlayers(t, db, tour.ID, 3)

	games, err := newScheduleService(db).StartTournament(context.Background(), tour.ID)
	require.NoError(t, err)

	_, err = svc.RecordResult(context.Background(), games[0].ID, 21, 12)
	require.NoError(t, err)

	data, err := svc.GetTournamentGames(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, data.Games, 3)
	assert.Equal(t, 1, data.Completed)
	require.Len(t, data.Players, 3)
	for _, p := range roster {
		assert.Equal(t, p.ID, data.Players[p.ID].ID)
	}
}
