package models

import "time"

// MonumentService is an offering at a monument. The misspelled bson keys
// match the stored documents.
type MonumentService struct {
	ID          string `bson:"id" json:"id"`
	Title       string `bson:"title" json:"title"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	IsAvailable bool   `bson:"isAvilable" json:"isAvailable"`
}

type Monument struct {
	ID                string            `bson:"_id" json:"id"`
	Title             string            `bson:"title" json:"title"`
	Name              string            `bson:"name,omitempty" json:"name,omitempty"`
	ServicesAvailable []MonumentService `bson:"serviceAvilable" json:"servicesAvailable"`
}

// DisplayName prefers the title and falls back to the name.
func (m *Monument) DisplayName() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// AvailableServices filters out services flagged unavailable.
func (m *Monument) AvailableServices() []MonumentService {
	out := make([]MonumentService, 0, len(m.ServicesAvailable))
	for _, s := range m.ServicesAvailable {
		if s.IsAvailable {
			out = append(out, s)
		}
	}
	return out
}

type ServiceLanguage struct {
	ID        string    `bson:"_id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Name      string    `bson:"name" json:"name"`
	Code      string    `bson:"code" json:"code"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
