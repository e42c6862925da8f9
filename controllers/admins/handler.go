package admins

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Digitallaureate/kabirFirstBackend/repository"
	"github.com/Digitallaureate/kabirFirstBackend/services"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"go.uber.org/zap"
)

// ImageUploader is satisfied by *utils.ObjectStorage.
type ImageUploader interface {
	Upload(ctx context.Context, objectName string, body io.Reader, contentType string) (string, error)
}

// Handler serves the customer-service dashboard.
type Handler struct {
	desk     *services.SupportDesk
	workflow *services.StatusWorkflow
	notifier *services.Notifier
	catalog  *services.Catalog
	uploader ImageUploader
	log      *zap.Logger

	uploadMaxBytes int64
}

type Deps struct {
	Desk     *services.SupportDesk
	Workflow *services.StatusWorkflow
	Notifier *services.Notifier
	Catalog  *services.Catalog
	// Uploader may be nil when object storage is not configured.
	Uploader       ImageUploader
	Log            *zap.Logger
	UploadMaxBytes int64
}

func NewHandler(d Deps) *Handler {
	if d.UploadMaxBytes <= 0 {
		d.UploadMaxBytes = 10 << 20
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Handler{
		desk:           d.Desk,
		workflow:       d.Workflow,
		notifier:       d.Notifier,
		catalog:        d.Catalog,
		uploader:       d.Uploader,
		log:            d.Log,
		uploadMaxBytes: d.UploadMaxBytes,
	}
}

// writeLookupError is writeStoreError for read endpoints.
func (h *Handler) writeLookupError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.WriteLookup(w, http.StatusNotFound, utils.LookupResponse{Found: false, Error: notFound})
	case errors.Is(err, services.ErrIncompleteRecord):
		utils.WriteLookup(w, http.StatusNotFound, utils.LookupResponse{Found: false, Error: "Chat ID not found in magic word record"})
	default:
		h.log.Error("dashboard lookup failed", zap.Error(err))
		utils.WriteLookup(w, http.StatusInternalServerError, utils.LookupResponse{Found: false, Error: "Internal server error"})
	}
}

// writeStoreError maps store and workflow errors onto the response envelope.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: notFound})
	case errors.Is(err, repository.ErrAlreadyExists):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Document already exists"})
	case errors.Is(err, services.ErrStatusLocked),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrBackwardTransition),
		errors.Is(err, services.ErrIncompleteRecord):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
	default:
		h.log.Error("dashboard request failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
	}
}
