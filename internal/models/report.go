package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Location struct {
	Latitude  float64 `bson:"lat" json:"latitude"`
	Longitude float64 `bson:"lng" json:"longitude"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
}

type ReportType string

const (
	ReportFire           ReportType = "Fire"
	ReportFlood          ReportType = "Flood"
	ReportEarthquake     ReportType = "Earthquake"
	ReportLandslide      ReportType = "Landslide"
	ReportCyclone        ReportType = "Cyclone"
	ReportMedical        ReportType = "Medical Emergency"
	ReportInfrastructure ReportType = "Infrastructure Damage"
	ReportOther          ReportType = "Other"
)

var ReportTypes = []ReportType{
	ReportFire, ReportFlood, ReportEarthquake, ReportLandslide,
	ReportCyclone, ReportMedical, ReportInfrastructure, ReportOther,
}

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

type ReportStatus string

const (
	ReportPending    ReportStatus = "Pending"
	ReportReceived   ReportStatus = "Received"
	ReportAssigned   ReportStatus = "Assigned"
	ReportInProgress ReportStatus = "In Progress"
	ReportResolved   ReportStatus = "Resolved"
	ReportClosed     ReportStatus = "Closed"
	ReportRejected   ReportStatus = "Rejected"
)

var ReportStatuses = []ReportStatus{
	ReportPending, ReportReceived, ReportAssigned, ReportInProgress,
	ReportResolved, ReportClosed, ReportRejected,
}

// Report is an incident submission.
type Report struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type        ReportType          `bson:"type" json:"type"`
	Description string              `bson:"description" json:"description"`
	Location    Location            `bson:"location" json:"location"`
	Severity    Severity            `bson:"severity" json:"severity"`
	Images      []string            `bson:"images" json:"images"`
	Status      ReportStatus        `bson:"status" json:"status"`
	Reporter    primitive.ObjectID  `bson:"reporter" json:"reporter"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	AdminNotes  string              `bson:"adminNotes" json:"adminNotes"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ReportView is a Report with its user references populated.
type ReportView struct {
	ID          primitive.ObjectID `json:"id"`
	Type        ReportType         `json:"type"`
	Description string             `json:"description"`
	Location    Location           `json:"location"`
	Severity    Severity           `json:"severity"`
	Images      []string           `json:"images"`
	Status      ReportStatus       `json:"status"`
	Reporter    *UserSummary       `json:"reporter"`
	AssignedTo  *UserSummary       `json:"assignedTo"`
	AdminNotes  string             `json:"adminNotes"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func (r *Report) View(reporter, assignee *User) *ReportView {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return &ReportView{
		ID:          r.ID,
		Type:        r.Type,
		Description: r.Description,
		Location:    r.Location,
		Severity:    r.Severity,
		Images:      images,
		Status:      r.Status,
		Reporter:    reporter.Summary(),
		AssignedTo:  assignee.Summary(),
		AdminNotes:  r.AdminNotes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
