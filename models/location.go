package models

import "time"

// HistoricalSite is a point of interest. Coordinates are optional in the
// source data, so they are pointers.
type HistoricalSite struct {
	ID              string   `bson:"_id" json:"id"`
	SiteName        string   `bson:"site_name" json:"site_name"`
	Location        string   `bson:"location" json:"location"`
	Latitude        *float64 `bson:"latitude" json:"latitude"`
	Longitude       *float64 `bson:"longitude" json:"longitude"`
	Prompt          string   `bson:"prompt,omitempty" json:"prompt,omitempty"`
	SiteDescription string   `bson:"site_description,omitempty" json:"site_description,omitempty"`
	Services        []string `bson:"services,omitempty" json:"services,omitempty"`
	IsActive        bool     `bson:"is_active" json:"is_active"`
}

// Trivia is a short fact pinned to a location.
type Trivia struct {
	ID          string    `bson:"_id" json:"id"`
	AssistantID string    `bson:"assistant_id,omitempty" json:"assistant_id,omitempty"`
	Title       string    `bson:"title" json:"title"`
	Content     string    `bson:"content" json:"content"`
	Location    string    `bson:"location" json:"location"`
	Latitude    *float64  `bson:"latitude" json:"latitude"`
	Longitude   *float64  `bson:"longitude" json:"longitude"`
	Tags        []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	Category    string    `bson:"category,omitempty" json:"category,omitempty"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// KnowledgeBase maps (chat_type, param) to a content chapter.
type KnowledgeBase struct {
	ID        string `bson:"_id" json:"id"`
	ChatType  string `bson:"chat_type" json:"chat_type"`
	Param     string `bson:"param" json:"param"`
	ChapterID string `bson:"chapterId" json:"chapterId"`
}

// NearbySite is a site annotated with its distance from the traveler.
type NearbySite struct {
	SiteID          string   `bson:"site_id" json:"site_id"`
	SiteName        string   `bson:"site_name" json:"site_name"`
	Location        string   `bson:"location" json:"location"`
	DistanceKm      float64  `bson:"distance_km" json:"distance_km"`
	Latitude        float64  `bson:"latitude" json:"latitude"`
	Longitude       float64  `bson:"longitude" json:"longitude"`
	Prompt          string   `bson:"prompt,omitempty" json:"prompt,omitempty"`
	SiteDescription string   `bson:"site_description,omitempty" json:"site_description,omitempty"`
	Services        []string `bson:"services" json:"services"`
}

// TargetSite is the named site of a journey chat.
type TargetSite struct {
	SiteID     string  `bson:"site_id" json:"site_id"`
	SiteName   string  `bson:"site_name" json:"site_name"`
	DistanceKm float64 `bson:"distance_km" json:"distance_km"`
	Latitude   float64 `bson:"latitude" json:"latitude"`
	Longitude  float64 `bson:"longitude" json:"longitude"`
}

// NearbyTrivia is a trivia item annotated with its distance.
type NearbyTrivia struct {
	ID          string    `bson:"id" json:"id"`
	AssistantID string    `bson:"assistant_id,omitempty" json:"assistant_id,omitempty"`
	Title       string    `bson:"title" json:"title"`
	Content     string    `bson:"content" json:"content"`
	Location    string    `bson:"location" json:"location"`
	Latitude    float64   `bson:"latitude" json:"latitude"`
	Longitude   float64   `bson:"longitude" json:"longitude"`
	Distance    float64   `bson:"distance" json:"distance"`
	Tags        []string  `bson:"tags" json:"tags"`
	Category    string    `bson:"category,omitempty" json:"category,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
}

// LocationContext is the geo snapshot stored per processed assistant message,
// keyed by message id.
type LocationContext struct {
	ID            string         `bson:"_id" json:"id"`
	ChatID        string         `bson:"chatId" json:"chatId"`
	MessageID     string         `bson:"messageId" json:"messageId"`
	ChatType      string         `bson:"chat_type" json:"chat_type"`
	Location      string         `bson:"location" json:"location"`
	UserID        string         `bson:"user_id" json:"user_id"`
	UserLatitude  *float64       `bson:"user_latitude" json:"user_latitude"`
	UserLongitude *float64       `bson:"user_longitude" json:"user_longitude"`
	UserLocation  string         `bson:"user_location" json:"user_location"`
	TargetSite    *TargetSite    `bson:"target_site" json:"target_site"`
	NearbySites   []NearbySite   `bson:"nearby_sites" json:"nearby_sites"`
	NearbyTrivia  []NearbyTrivia `bson:"nearby_trivia" json:"nearby_trivia"`
	Within1Km     bool           `bson:"within_1km" json:"within_1km"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
}

// HasCoordinates reports whether the traveler position is known.
func (c *LocationContext) HasCoordinates() bool {
	return c.UserLatitude != nil && c.UserLongitude != nil
}
