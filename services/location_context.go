package services

import (
	"context"
	"sort"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"go.uber.org/zap"
)

const (
	// JourneyRadiusKm gates trivia lookup in journey chats.
	JourneyRadiusKm = 1.0
	NearbyLimit     = 3
)

// LocationInput is what the pipeline knows about a message when it asks for
// geo context. Position is nil when the user never reported a location.
type LocationInput struct {
	ChatID    string
	MessageID string
	ChatType  string
	Location  string
	UserID    string
	Position  *models.UserLocation
}

type LocationContextBuilder struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewLocationContextBuilder(store repository.Store, log *zap.Logger) *LocationContextBuilder {
	return &LocationContextBuilder{store: store, log: log, now: time.Now}
}

// Build computes the context for one message. Lookup failures are logged and
// leave the affected list empty; Build itself never fails.
func (b *LocationContextBuilder) Build(ctx context.Context, in LocationInput) *models.LocationContext {
	lc := &models.LocationContext{
		ID:           in.MessageID,
		ChatID:       in.ChatID,
		MessageID:    in.MessageID,
		ChatType:     in.ChatType,
		Location:     in.Location,
		UserID:       in.UserID,
		NearbySites:  []models.NearbySite{},
		NearbyTrivia: []models.NearbyTrivia{},
		CreatedAt:    b.now().UTC(),
	}
	log := b.log.With(zap.String("chat_id", in.ChatID), zap.String("message_id", in.MessageID))

	if in.Position != nil {
		lc.UserLocation = in.Position.Location
		lc.UserLatitude = in.Position.Latitude
		lc.UserLongitude = in.Position.Longitude
	}
	if !lc.HasCoordinates() {
		log.Info("no user coordinates, context left empty", zap.String("user_id", in.UserID))
		return lc
	}
	lat, lon := *lc.UserLatitude, *lc.UserLongitude
	if !utils.ValidCoordinate(lat, lon) {
		log.Warn("user coordinates out of range", zap.Float64("lat", lat), zap.Float64("lon", lon))
		return lc
	}

	if in.ChatType != models.ChatTypeJourney {
		var sites []models.HistoricalSite
		err := b.store.Find(ctx, models.CollectionHistoricalSites, repository.Filter{"is_active": true}, repository.FindOptions{}, &sites)
		if err != nil {
			log.Error("nearby sites lookup failed", zap.Error(err))
			return lc
		}
		lc.NearbySites = NearestSites(lat, lon, sites, NearbyLimit)
		log.Info("nearby sites resolved", zap.Int("count", len(lc.NearbySites)))
		return lc
	}

	if in.Location == "" {
		log.Info("journey chat without location")
		return lc
	}

	var targets []models.HistoricalSite
	err := b.store.Find(ctx, models.CollectionHistoricalSites,
		repository.Filter{"site_name": in.Location, "is_active": true},
		repository.FindOptions{Limit: 1}, &targets)
	if err != nil {
		log.Error("journey target lookup failed", zap.String("location", in.Location), zap.Error(err))
		return lc
	}
	if len(targets) == 0 {
		log.Warn("journey target not found", zap.String("location", in.Location))
		return lc
	}
	site := targets[0]
	if site.Latitude == nil || site.Longitude == nil || !utils.ValidCoordinate(*site.Latitude, *site.Longitude) {
		log.Warn("journey target has no usable coordinates", zap.String("site_id", site.ID))
		return lc
	}

	distance := utils.Haversine(lat, lon, *site.Latitude, *site.Longitude)
	lc.TargetSite = &models.TargetSite{
		SiteID:     site.ID,
		SiteName:   in.Location,
		DistanceKm: utils.RoundFloat(distance, 2),
		Latitude:   *site.Latitude,
		Longitude:  *site.Longitude,
	}
	lc.Within1Km = distance < JourneyRadiusKm
	if !lc.Within1Km {
		log.Info("outside journey radius, trivia skipped", zap.Float64("distance_km", distance))
		return lc
	}

	var trivia []models.Trivia
	err = b.store.Find(ctx, models.CollectionTrivia,
		repository.Filter{"location": in.Location, "is_active": true},
		repository.FindOptions{}, &trivia)
	if err != nil {
		log.Error("trivia lookup failed", zap.String("location", in.Location), zap.Error(err))
		return lc
	}
	lc.NearbyTrivia = NearestTrivia(lat, lon, trivia, NearbyLimit)
	log.Info("nearby trivia resolved", zap.Int("count", len(lc.NearbyTrivia)))
	return lc
}

// Save stores the context keyed by message id, replacing any earlier run.
func (b *LocationContextBuilder) Save(ctx context.Context, lc *models.LocationContext) error {
	return b.store.Upsert(ctx, models.CollectionLocationContext, lc.MessageID, lc)
}

// NearestSites returns up to limit sites ordered by distance. Sites without
// usable coordinates are skipped and equal distances keep input order.
func NearestSites(lat, lon float64, sites []models.HistoricalSite, limit int) []models.NearbySite {
	type ranked struct {
		site models.NearbySite
		raw  float64
	}
	candidates := make([]ranked, 0, len(sites))
	for _, s := range sites {
		if s.Latitude == nil || s.Longitude == nil || !utils.ValidCoordinate(*s.Latitude, *s.Longitude) {
			continue
		}
		d := utils.Haversine(lat, lon, *s.Latitude, *s.Longitude)
		services := s.Services
		if services == nil {
			services = []string{}
		}
		candidates = append(candidates, ranked{raw: d, site: models.NearbySite{
			SiteID:          s.ID,
			SiteName:        s.SiteName,
			Location:        s.Location,
			DistanceKm:      utils.RoundFloat(d, 2),
			Latitude:        *s.Latitude,
			Longitude:       *s.Longitude,
			Prompt:          s.Prompt,
			SiteDescription: s.SiteDescription,
			Services:        services,
		}})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].raw < candidates[j].raw })

	out := make([]models.NearbySite, 0, limit)
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].site)
	}
	return out
}

// NearestTrivia is NearestSites for trivia items.
func NearestTrivia(lat, lon float64, items []models.Trivia, limit int) []models.NearbyTrivia {
	type ranked struct {
		item models.NearbyTrivia
		raw  float64
	}
	candidates := make([]ranked, 0, len(items))
	for _, t := range items {
		if t.Latitude == nil || t.Longitude == nil || !utils.ValidCoordinate(*t.Latitude, *t.Longitude) {
			continue
		}
		d := utils.Haversine(lat, lon, *t.Latitude, *t.Longitude)
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		candidates = append(candidates, ranked{raw: d, item: models.NearbyTrivia{
			ID:          t.ID,
			AssistantID: t.AssistantID,
			Title:       t.Title,
			Content:     t.Content,
			Location:    t.Location,
			Latitude:    *t.Latitude,
			Longitude:   *t.Longitude,
			Distance:    utils.RoundFloat(d, 2),
			Tags:        tags,
			Category:    t.Category,
			CreatedAt:   t.CreatedAt,
			IsActive:    t.IsActive,
		}})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].raw < candidates[j].raw })

	out := make([]models.NearbyTrivia, 0, limit)
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].item)
	}
	return out
}
