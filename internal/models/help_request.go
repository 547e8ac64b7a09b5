package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HelpType string

const (
	HelpFood       HelpType = "Food"
	HelpWater      HelpType = "Water"
	HelpMedical    HelpType = "Medical"
	HelpShelter    HelpType = "Shelter"
	HelpClothing   HelpType = "Clothing"
	HelpRescue     HelpType = "Rescue"
	HelpEvacuation HelpType = "Evacuation"
	HelpOther      HelpType = "Other"
)

var HelpTypes = []HelpType{
	HelpFood, HelpWater, HelpMedical, HelpShelter,
	HelpClothing, HelpRescue, HelpEvacuation, HelpOther,
}

// HelpStatus has no "Assigned" state: an assigned help request moves
// straight to In Progress.
type HelpStatus string

const (
	HelpPending    HelpStatus = "Pending"
	HelpReceived   HelpStatus = "Received"
	HelpInProgress HelpStatus = "In Progress"
	HelpFulfilled  HelpStatus = "Fulfilled"
	HelpCancelled  HelpStatus = "Cancelled"
	HelpRejected   HelpStatus = "Rejected"
)

var HelpStatuses = []HelpStatus{
	HelpPending, HelpReceived, HelpInProgress, HelpFulfilled, HelpCancelled, HelpRejected,
}

// HelpRequest is a request for resources or aid.
type HelpRequest struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type        HelpType            `bson:"type" json:"type"`
	Description string              `bson:"description" json:"description"`
	Location    Location            `bson:"location" json:"location"`
	Quantity    *float64            `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Unit        string              `bson:"unit,omitempty" json:"unit,omitempty"`
	Status      HelpStatus          `bson:"status" json:"status"`
	RequestedBy primitive.ObjectID  `bson:"requestedBy" json:"requestedBy"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	ContactInfo string              `bson:"contactInfo" json:"contactInfo"`
	AdminNotes  string              `bson:"adminNotes" json:"adminNotes"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type HelpRequestView struct {
	ID          primitive.ObjectID `json:"id"`
	Type        HelpType           `json:"type"`
	Description string             `json:"description"`
	Location    Location           `json:"location"`
	Quantity    *float64           `json:"quantity,omitempty"`
	Unit        string             `json:"unit,omitempty"`
	Status      HelpStatus         `json:"status"`
	RequestedBy *UserSummary       `json:"requestedBy"`
	AssignedTo  *UserSummary       `json:"assignedTo"`
	ContactInfo string             `json:"contactInfo"`
	AdminNotes  string             `json:"adminNotes"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func (h *HelpRequest) View(requester, assignee *User) *HelpRequestView {
	return &HelpRequestView{
		ID:          h.ID,
		Type:        h.Type,
		Description: h.Description,
		Location:    h.Location,
		Quantity:    h.Quantity,
		Unit:        h.Unit,
		Status:      h.Status,
		RequestedBy: requester.Summary(),
		AssignedTo:  assignee.Summary(),
		ContactInfo: h.ContactInfo,
		AdminNotes:  h.AdminNotes,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}
