package services

import (
	"context"
	"net/http"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/utils"
)

type SuggestionRequest struct {
	ChapterID string `json:"chapterId"`
	Content   string `json:"content"`
	Location  string `json:"location"`
	ChatID    string `json:"chatId"`
}

type IntentRequest struct {
	Content   string  `json:"content"`
	ChapterID string  `json:"chapterId"`
	ChatID    string  `json:"chatId"`
	Lat       float64 `json:"lat"`
	Long      float64 `json:"long"`
	Location  string  `json:"location"`
}

// SuggestionFetcher retrieves chapter-scoped content suggestions.
type SuggestionFetcher interface {
	FetchSuggestions(ctx context.Context, req SuggestionRequest) (map[string]any, error)
}

// IntentProcessor classifies the user's text and returns whatever the
// service produced.
type IntentProcessor interface {
	ProcessText(ctx context.Context, req IntentRequest) (any, error)
}

type SuggestionClient struct {
	url    string
	client *http.Client
}

func NewSuggestionClient(url string, timeout time.Duration) *SuggestionClient {
	return &SuggestionClient{url: url, client: utils.NewHTTPClient(timeout)}
}

func (c *SuggestionClient) FetchSuggestions(ctx context.Context, req SuggestionRequest) (map[string]any, error) {
	var out map[string]any
	if err := utils.PostJSON(ctx, c.client, c.url, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type IntentClient struct {
	url    string
	client *http.Client
}

func NewIntentClient(url string, timeout time.Duration) *IntentClient {
	return &IntentClient{url: url, client: utils.NewHTTPClient(timeout)}
}

func (c *IntentClient) ProcessText(ctx context.Context, req IntentRequest) (any, error) {
	var out any
	if err := utils.PostJSON(ctx, c.client, c.url, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
