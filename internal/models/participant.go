package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is a registered peer evaluator, identified by USN.
// Participants are created on roster upload and never mutated.
type Participant struct {
	ID  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	USN string             `json:"usn" bson:"usn"`
}
