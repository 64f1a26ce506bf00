package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evaluation is one peer's scored feedback on one team's presentation.
// There is no uniqueness constraint on (TeamName, EvaluatorUSN): a peer who
// submits twice produces two documents, matching the submission contract.
type Evaluation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TeamName     string             `json:"teamName" bson:"teamName"`
	EvaluatorUSN string             `json:"evaluatorUSN" bson:"evaluatorUSN"`
	Ratings      []CriterionRating  `json:"ratings" bson:"ratings"`
	Feedback     string             `json:"feedback" bson:"feedback"`
	SubmittedAt  time.Time          `json:"submittedAt" bson:"submittedAt"`
}

// CriterionRating is one labeled score on a 1-10 scale.
type CriterionRating struct {
	CriterionID string `json:"criterion" bson:"criterion"`
	Label       string `json:"label" bson:"label"`
	Score       int    `json:"score" bson:"score"`
}
