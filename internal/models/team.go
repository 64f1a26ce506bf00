package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is a named group of USNs that presents together.
// Member order follows the uploaded roster row.
type Team struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name    string             `json:"name" bson:"name"`
	Members []string           `json:"members" bson:"members"`
}
