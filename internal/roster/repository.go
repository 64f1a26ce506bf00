package roster

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/peerstage/peerstage/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

// Repository implements roster data access over the participants and teams
// collections.
type Repository struct {
	participants *mongo.Collection
	teams        *mongo.Collection
}

// NewRepository creates a new roster repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		participants: db.Collection("participants"),
		teams:        db.Collection("teams"),
	}
}

// EnsureIndexes creates the unique indexes the dedup semantics depend on.
// Called once at startup.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.participants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "usn", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create participants usn index: %w", err)
	}

	_, err = r.teams.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create teams name index: %w", err)
	}

	return nil
}

// CreateParticipant inserts a new participant. Returns ErrDuplicate when the
// USN already exists.
func (r *Repository) CreateParticipant(ctx context.Context, usn string) (*models.Participant, error) {
	participant := &models.Participant{USN: usn}

	res, err := r.participants.InsertOne(ctx, participant)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("participant %q: %w", usn, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert participant: %w", err)
	}

	participant.ID = res.InsertedID.(primitive.ObjectID)
	return participant, nil
}

// CreateTeam inserts a new team. Returns ErrDuplicate when the name already
// exists.
func (r *Repository) CreateTeam(ctx context.Context, team models.Team) (*models.Team, error) {
	res, err := r.teams.InsertOne(ctx, team)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("team %q: %w", team.Name, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert team: %w", err)
	}

	team.ID = res.InsertedID.(primitive.ObjectID)
	return &team, nil
}

// ListTeams returns every team in roster upload order.
func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	cur, err := r.teams.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find teams: %w", err)
	}
	defer cur.Close(ctx)

	var teams []models.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}

	return teams, nil
}
