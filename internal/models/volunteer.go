package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Availability string

const (
	Available   Availability = "Available"
	Busy        Availability = "Busy"
	Unavailable Availability = "Unavailable"
)

// Volunteer is a directory entry. It is not linked to a User account.
type Volunteer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	ContactInfo  string             `bson:"contactInfo" json:"contactInfo"`
	Skills       []string           `bson:"skills" json:"skills"`
	Availability Availability       `bson:"availability" json:"availability"`
	Location     *Location          `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
