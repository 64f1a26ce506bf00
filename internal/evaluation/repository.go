package evaluation

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peerstage/peerstage/internal/models"
)

// Repository implements evaluation data access over the evaluations
// collection. Inserts only; no update or delete path exists, and
// (teamName, evaluatorUSN) is deliberately not unique.
type Repository struct {
	evaluations *mongo.Collection
}

// NewRepository creates a new evaluation repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		evaluations: db.Collection("evaluations"),
	}
}

// Create inserts a new evaluation and fills in its generated ID.
func (r *Repository) Create(ctx context.Context, eval *models.Evaluation) (*models.Evaluation, error) {
	res, err := r.evaluations.InsertOne(ctx, eval)
	if err != nil {
		return nil, fmt.Errorf("insert evaluation: %w", err)
	}

	eval.ID = res.InsertedID.(primitive.ObjectID)
	return eval, nil
}

// ListByTeam returns every evaluation submitted for a team, in insertion
// order.
func (r *Repository) ListByTeam(ctx context.Context, teamName string) ([]models.Evaluation, error) {
	cur, err := r.evaluations.Find(ctx, bson.M{"teamName": teamName})
	if err != nil {
		return nil, fmt.Errorf("find evaluations for %q: %w", teamName, err)
	}
	defer cur.Close(ctx)

	var evals []models.Evaluation
	if err := cur.All(ctx, &evals); err != nil {
		return nil, fmt.Errorf("decode evaluations: %w", err)
	}

	return evals, nil
}
