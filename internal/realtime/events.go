// Package realtime pushes already-computed records to connected clients
// after a mutation. Delivery is best-effort: no acknowledgment, queueing
// or replay.
package realtime

import "context"

const (
	NewReport          = "newReport"
	ReportUpdated      = "reportUpdated"
	ReportDeleted      = "reportDeleted"
	NewHelpRequest     = "newHelpRequest"
	HelpRequestUpdated = "helpRequestUpdated"
	HelpRequestDeleted = "helpRequestDeleted"
	NewVolunteer       = "newVolunteer"
	VolunteerUpdated   = "volunteerUpdated"
	VolunteerDeleted   = "volunteerDeleted"
)

// Event is the frame sent to clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Deleted is the payload of the *Deleted events.
type Deleted struct {
	ID string `json:"id"`
}

// Publisher fans an event out to every connected client.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broadcaster delivers an encoded frame to the clients of this process.
type Broadcaster interface {
	Broadcast(frame []byte)
}
