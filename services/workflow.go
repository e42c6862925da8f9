package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrStatusLocked       = errors.New("status cannot be changed")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrBackwardTransition = errors.New("status cannot move backwards")
	ErrMissingRecordData  = errors.New("tracking record is missing chat, user or magic word")
)

// Effect is a side effect a transition asks the workflow to run.
type Effect int

const (
	EffectCreateServiceRequest Effect = iota + 1
	EffectCreateServiceOrder
	EffectNotifyServiceRequest
	EffectNotifyBookingConfirmed
	EffectResetHumanInteraction
)

func (e Effect) String() string {
	switch e {
	case EffectCreateServiceRequest:
		return "create_service_request"
	case EffectCreateServiceOrder:
		return "create_service_order"
	case EffectNotifyServiceRequest:
		return "notify_service_request"
	case EffectNotifyBookingConfirmed:
		return "notify_booking_confirmed"
	case EffectResetHumanInteraction:
		return "reset_human_interaction"
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// StatusUpdate is an operator request against a tracking record. Status is
// an optional explicit target; empty means advance one step.
type StatusUpdate struct {
	Status  string                 `json:"status"`
	Details *models.BookingDetails `json:"details,omitempty"`
}

type Transition struct {
	From    models.MagicWordStatus
	To      models.MagicWordStatus
	View    bool
	Effects []Effect
}

func (t Transition) Has(e Effect) bool {
	for _, x := range t.Effects {
		if x == e {
			return true
		}
	}
	return false
}

// PlanTransition decides the target status and the side effects for a
// record. It does no I/O. Stored serviceRequestId and orderId suppress the
// matching creation effects, which keeps retried requests idempotent.
func PlanTransition(record *models.MagicWordRequest, update StatusUpdate) (Transition, error) {
	from, ok := models.ParseMagicWordStatus(string(record.Status))
	if !ok {
		return Transition{}, fmt.Errorf("%w: stored %q", ErrInvalidStatus, record.Status)
	}

	var to models.MagicWordStatus
	if update.Status != "" {
		to, ok = models.ParseMagicWordStatus(update.Status)
		if !ok {
			return Transition{}, fmt.Errorf("%w: %q", ErrInvalidStatus, update.Status)
		}
		if to.Rank() < from.Rank() {
			return Transition{}, fmt.Errorf("%w: %s to %s", ErrBackwardTransition, from, to)
		}
	} else {
		to, ok = from.Next()
		if !ok {
			return Transition{}, ErrStatusLocked
		}
	}

	t := Transition{From: from, To: to}
	details := update.Details
	hasRequest := record.ServiceRequestID != ""
	hasOrder := record.OrderID != ""

	switch to {
	case models.StatusInProgress:
		if details == nil {
			t.View = true
			return t, nil
		}
		if !hasRequest {
			t.Effects = append(t.Effects, EffectCreateServiceRequest)
		}
		switch {
		case details.PaymentSucceeded() && !hasOrder:
			t.Effects = append(t.Effects, EffectCreateServiceOrder, EffectNotifyBookingConfirmed)
		case !hasRequest:
			t.Effects = append(t.Effects, EffectNotifyServiceRequest)
		}
	case models.StatusCompleted:
		willHaveRequest := hasRequest
		if details != nil && !hasRequest {
			t.Effects = append(t.Effects, EffectCreateServiceRequest)
			willHaveRequest = true
		}
		if willHaveRequest && !hasOrder {
			t.Effects = append(t.Effects, EffectCreateServiceOrder, EffectNotifyBookingConfirmed)
		}
		t.Effects = append(t.Effects, EffectResetHumanInteraction)
	}
	return t, nil
}

type ApplyResult struct {
	ID               string                 `json:"id"`
	From             models.MagicWordStatus `json:"previous_status"`
	To               models.MagicWordStatus `json:"new_status"`
	View             bool                   `json:"view"`
	PaymentStatus    string                 `json:"payment_status"`
	ServiceRequestID string                 `json:"service_request_id,omitempty"`
	OrderID          string                 `json:"order_id,omitempty"`
	Effects          []string               `json:"effects"`
	Warnings         []string               `json:"warnings,omitempty"`
}

// StatusWorkflow executes planned transitions against the store.
type StatusWorkflow struct {
	store    repository.Store
	notifier *Notifier
	catalog  *Catalog
	log      *zap.Logger
	now      func() time.Time
	otp      func() string
}

func NewStatusWorkflow(store repository.Store, notifier *Notifier, catalog *Catalog, log *zap.Logger) *StatusWorkflow {
	return &StatusWorkflow{
		store:    store,
		notifier: notifier,
		catalog:  catalog,
		log:      log,
		now:      time.Now,
		otp:      func() string { return utils.GenerateOTP(4) },
	}
}

// ServiceRequestID and ServiceOrderID are derived from the tracking record so
// concurrent duplicates land on the same document.
func ServiceRequestID(recordID string) string { return "sr_" + recordID }
func ServiceOrderID(recordID string) string { return "so_" + recordID }

// Apply runs one status update. Profile edits are written first and do not
// depend on the transition. Side-effect failures are logged and reported as
// warnings; the status change itself still stands.
func (w *StatusWorkflow) Apply(ctx context.Context, id string, update StatusUpdate) (*ApplyResult, error) {
	ctx, span := otel.Tracer("services/workflow").Start(ctx, "StatusWorkflow.Apply", trace.WithAttributes(
		attribute.String("magic_word_user.id", id),
	))
	defer span.End()

	log := w.log.With(zap.String("magic_word_user_id", id))

	var record models.MagicWordRequest
	if err := w.store.Get(ctx, models.CollectionMagicWordRequests, id, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load tracking record")
		return nil, err
	}
	record.ID = id

	res := &ApplyResult{ID: id, PaymentStatus: models.PaymentPending, Effects: []string{}}
	if d := update.Details; d != nil && d.PaymentStatus != "" {
		res.PaymentStatus = d.PaymentStatus
	}

	if err := w.applyUserUpdate(ctx, update.Details); err != nil {
		log.Warn("user profile update failed", zap.Error(err))
		res.Warnings = append(res.Warnings, "user update: "+err.Error())
	}

	plan, err := PlanTransition(&record, update)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan transition")
		return nil, err
	}
	res.From, res.To, res.View = plan.From, plan.To, plan.View
	span.SetAttributes(
		attribute.String("status.from", string(plan.From)),
		attribute.String("status.to", string(plan.To)),
		attribute.Int("effects.count", len(plan.Effects)),
		attribute.Bool("order.planned", plan.Has(EffectCreateServiceOrder)),
	)

	now := w.now().UTC()
	err = w.store.Update(ctx, models.CollectionMagicWordRequests, id, map[string]any{
		"status":     string(plan.To),
		"updated_at": now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update status")
		return nil, err
	}
	statusTransitions.WithLabelValues(string(plan.To)).Inc()
	log.Info("magic word status changed",
		zap.String("from", string(plan.From)),
		zap.String("to", string(plan.To)),
		zap.Bool("view", plan.View),
	)

	details := update.Details
	if details == nil {
		details = &models.BookingDetails{}
	}

	var (
		requestCreated bool
		order          *models.ServiceOrder
	)
	for _, effect := range plan.Effects {
		var err error
		switch effect {
		case EffectCreateServiceRequest:
			requestCreated, err = w.createServiceRequest(ctx, &record, details, now)
		case EffectCreateServiceOrder:
			order, err = w.createServiceOrder(ctx, &record, details, now)
		case EffectNotifyServiceRequest:
			if !requestCreated {
				continue
			}
			_, err = w.notifier.Send(ctx, record.ChatID, ServiceRequestText(details), "")
		case EffectNotifyBookingConfirmed:
			if order == nil {
				continue
			}
			_, err = w.notifier.Send(ctx, record.ChatID, BookingConfirmationText(details, order.Price), "")
		case EffectResetHumanInteraction:
			err = w.store.Update(ctx, models.CollectionChats, record.ChatID, map[string]any{
				"isHumanInteraction": false,
				"updated_at":         now,
			})
		}
		if err != nil {
			log.Error("status side effect failed", zap.Stringer("effect", effect), zap.Error(err))
			res.Warnings = append(res.Warnings, effect.String()+": "+err.Error())
			continue
		}
		res.Effects = append(res.Effects, effect.String())
	}

	res.ServiceRequestID = record.ServiceRequestID
	res.OrderID = record.OrderID
	if len(res.Warnings) > 0 {
		span.SetStatus(codes.Error, "side effects failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return res, nil
}

func (w *StatusWorkflow) applyUserUpdate(ctx context.Context, d *models.BookingDetails) error {
	if d == nil || d.UserID == "" || d.UserUpdate == nil {
		return nil
	}
	if err := utils.ValidateStruct(d.UserUpdate); err != nil {
		return err
	}
	return w.store.Update(ctx, models.CollectionUsers, d.UserID, map[string]any{
		"firstName":   d.UserUpdate.FirstName,
		"lastName":    d.UserUpdate.LastName,
		"phoneNumber": d.UserUpdate.PhoneNumber,
		"updated_at":  w.now().UTC(),
	})
}

// createServiceRequest reports whether this call inserted the document.
func (w *StatusWorkflow) createServiceRequest(ctx context.Context, record *models.MagicWordRequest, d *models.BookingDetails, now time.Time) (bool, error) {
	if record.ChatID == "" || record.UserID == "" || record.MagicWord == "" {
		return false, ErrMissingRecordData
	}
	title, err := w.catalog.MonumentTitle(ctx, d.MonumentToVisit)
	if err != nil {
		w.log.Warn("monument lookup failed", zap.String("monument_id", d.MonumentToVisit), zap.Error(err))
	}

	srID := ServiceRequestID(record.ID)
	sr := BuildServiceRequest(srID, record, d, title, now)
	created := true
	if err := w.store.Create(ctx, models.CollectionServiceRequests, srID, sr); err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return false, err
		}
		created = false
	}
	err = w.store.Update(ctx, models.CollectionMagicWordRequests, record.ID, map[string]any{
		"serviceRequestId": srID,
		"updated_at":       now,
	})
	if err != nil {
		return created, err
	}
	record.ServiceRequestID = srID
	w.log.Info("service request created",
		zap.String("magic_word_user_id", record.ID),
		zap.String("service_request_id", srID),
		zap.String("status", sr.Status),
		zap.Bool("new", created),
	)
	return created, nil
}

// createServiceOrder returns the order only when this call inserted it.
func (w *StatusWorkflow) createServiceOrder(ctx context.Context, record *models.MagicWordRequest, d *models.BookingDetails, now time.Time) (*models.ServiceOrder, error) {
	if record.ServiceRequestID == "" {
		return nil, errors.New("no service request to order")
	}
	var sr models.ServiceRequest
	if err := w.store.Get(ctx, models.CollectionServiceRequests, record.ServiceRequestID, &sr); err != nil {
		return nil, fmt.Errorf("load service request %s: %w", record.ServiceRequestID, err)
	}

	orderID := ServiceOrderID(record.ID)
	order := BuildServiceOrder(orderID, record.ID, &sr, d, w.otp, now)
	created := true
	if err := w.store.Create(ctx, models.CollectionServiceOrders, orderID, order); err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return nil, err
		}
		created = false
	}

	if err := w.store.Update(ctx, models.CollectionServiceRequests, sr.ID, map[string]any{
		"order_id":   orderID,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	if err := w.store.Update(ctx, models.CollectionMagicWordRequests, record.ID, map[string]any{
		"orderId":       orderID,
		"orderStatus":   models.OrderStatusBooked,
		"paymentStatus": order.PaymentStatus,
		"updated_at":    now,
	}); err != nil {
		return nil, err
	}
	record.OrderID = orderID
	w.log.Info("service order created",
		zap.String("magic_word_user_id", record.ID),
		zap.String("order_id", orderID),
		zap.Int("price", order.Price),
		zap.Bool("new", created),
	)
	if !created {
		return nil, nil
	}
	return &order, nil
}
