package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/models"
)

// Store defines what the bulk loader needs from the roster repository.
type Store interface {
	CreateParticipant(ctx context.Context, usn string) (*models.Participant, error)
	CreateTeam(ctx context.Context, team models.Team) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// App implements the roster bulk loaders on top of the store.
//
// Note the asymmetric failure isolation: LoadParticipants aborts the batch on
// any non-duplicate error while LoadTeams skips failed rows and continues.
// Both behaviors are inherited from the system this replaces and are pinned
// by tests; the divergence looks unintentional but unifying it would change
// observed counts.
type App struct {
	store Store
}

// NewApp creates a new roster app.
func NewApp(store Store) *App {
	return &App{store: store}
}

// LoadParticipants creates one participant per row from the row's first
// cell. Duplicate USNs are skipped and excluded from the returned count; any
// other storage error aborts the remaining batch.
func (a *App) LoadParticipants(ctx context.Context, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		usn := strings.TrimSpace(row[0])
		if usn == "" {
			continue
		}

		if _, err := a.store.CreateParticipant(ctx, usn); err != nil {
			if errors.Is(err, ErrDuplicate) {
				log.Debug().Str("usn", usn).Msg("duplicate participant skipped")
				continue
			}
			return count, fmt.Errorf("load participants: %w", err)
		}
		count++
	}

	log.Info().Int("count", count).Msg("participants loaded")
	return count, nil
}

// LoadTeams creates one team per row: first cell is the team name, remaining
// non-empty cells are the ordered member list. Rows with an empty name are
// dropped. A row that fails to store is logged and skipped, and the batch
// continues.
func (a *App) LoadTeams(ctx context.Context, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}

		var members []string
		for _, cell := range row[1:] {
			if member := strings.TrimSpace(cell); member != "" {
				members = append(members, member)
			}
		}

		team := models.Team{Name: name, Members: members}
		if _, err := a.store.CreateTeam(ctx, team); err != nil {
			log.Warn().Err(err).Str("team", name).Msg("team row skipped")
			continue
		}
		count++
	}

	log.Info().Int("count", count).Msg("teams loaded")
	return count, nil
}

// ListTeams returns the stored teams.
func (a *App) ListTeams(ctx context.Context) ([]models.Team, error) {
	return a.store.ListTeams(ctx)
}
