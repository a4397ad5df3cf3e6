package events

import (
	"encoding/json"
	"time"

	"github.com/rj-tabelon/rentalrabbit/internal/models"
)

type Type string

const (
	TypeApplicationCreated       Type = "application.created"
	TypeApplicationStatusChanged Type = "application.status_changed"
)

// Message is the envelope written to websocket clients.
type Message struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func NewMessage(t Type, payload any) Message {
	return Message{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ApplicationPayload is sent for both application events.
type ApplicationPayload struct {
	ApplicationID int64                    `json:"applicationId"`
	PropertyID    int64                    `json:"propertyId"`
	Status        models.ApplicationStatus `json:"status"`
	LeaseID       *int64                   `json:"leaseId"`
}

// ApplicationMessage builds the event for app. Recipients are the applying
// tenant and the property's manager.
func ApplicationMessage(t Type, app *models.Application) (Message, []string) {
	recipients := []string{app.TenantCognitoID}
	if app.Property != nil && app.Property.ManagerCognitoID != "" {
		recipients = append(recipients, app.Property.ManagerCognitoID)
	}
	return NewMessage(t, ApplicationPayload{
		ApplicationID: app.ID,
		PropertyID:    app.PropertyID,
		Status:        app.Status,
		LeaseID:       app.LeaseID,
	}), recipients
}
