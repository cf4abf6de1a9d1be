package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/appointly/appointly/internal/interval"
	"github.com/appointly/appointly/internal/lifecycle"
	"github.com/appointly/appointly/internal/model"
	"github.com/appointly/appointly/internal/outbox"
	"github.com/appointly/appointly/internal/schedule"
	"github.com/appointly/appointly/internal/storage"
)

// AppointmentHandler serves the owner dashboard: listing, manual booking,
// edits and the terminal transitions.
type AppointmentHandler struct {
	repo       *storage.Repository
	engine     *schedule.Engine
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewAppointmentHandler(repo *storage.Repository, engine *schedule.Engine, outboxRepo *outbox.Repository, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{repo: repo, engine: engine, outboxRepo: outboxRepo, logger: logger}
}

type appointmentItem struct {
	AppointmentID      string `json:"appointment_id"`
	ServiceID          string `json:"service_id"`
	CustomerName       string `json:"customer_name"`
	CustomerEmail      string `json:"customer_email"`
	CustomerPhone      string `json:"customer_phone,omitempty"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	DurationMinutes    int    `json:"duration_minutes"`
	Price              string `json:"price"`
	Status             string `json:"status"`
	Origin             string `json:"origin"`
	Notes              string `json:"notes,omitempty"`
	CancelledAt        string `json:"cancelled_at,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	CreatedAt          string `json:"created_at"`
}

func toItem(a model.Appointment) appointmentItem {
	item := appointmentItem{
		AppointmentID:      a.ID,
		ServiceID:          a.ServiceID,
		CustomerName:       a.CustomerName,
		CustomerEmail:      a.CustomerEmail,
		CustomerPhone:      a.CustomerPhone,
		StartTime:          a.StartTime.UTC().Format(time.RFC3339),
		EndTime:            a.EndTime.UTC().Format(time.RFC3339),
		DurationMinutes:    a.DurationMinutes,
		Price:              a.Price,
		Status:             string(a.Status),
		Origin:             string(a.Origin),
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		item.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

// List returns the business's appointments, newest start first. The
// auto-complete sweep runs first so finished confirmed bookings read as
// completed without a hidden write inside the query itself.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if n, err := h.repo.AutoCompleteSweep(ctx, businessID, time.Now().UTC()); err != nil {
		h.logger.Error("auto-complete sweep failed", "err", err, "business_id", businessID)
	} else if n > 0 {
		h.logger.Info("auto-completed appointments", "business_id", businessID, "count", n)
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	appts, err := h.repo.ListAppointments(ctx, businessID, limit)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

type createAppointmentRequest struct {
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
	Price         string `json:"price"`
}

// Create books an appointment on the customer's behalf. Owner bookings skip
// the pending state and need no confirmation token.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.ServiceID == "" || req.CustomerName == "" {
		http.Error(w, "service_id and customer_name are required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	startClock, err := time.Parse("15:04", strings.TrimSpace(req.Start))
	if err != nil {
		http.Error(w, "invalid start, want HH:MM", http.StatusBadRequest)
		return
	}
	var priceOverride *string
	if s := strings.TrimSpace(req.Price); s != "" {
		priceOverride = &s
	}

	ctx := r.Context()
	business, err := h.repo.GetBusiness(ctx, businessID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "business not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load business", http.StatusInternalServerError)
		return
	}
	svc, err := h.repo.GetService(ctx, businessID, req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}

	loc, _ := interval.LocationFor(business.TimeZoneID)
	startLocal := time.Date(date.Year(), date.Month(), date.Day(), startClock.Hour(), startClock.Minute(), 0, 0, loc)
	endLocal := startLocal.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	txRepo := h.repo.WithTx(tx)

	rej, err := h.engine.WithStore(txRepo).ValidateSlot(ctx, schedule.ValidateRequest{
		Business:   business,
		Service:    svc,
		StartLocal: startLocal,
		EndLocal:   endLocal,
		NowUTC:     time.Now().UTC(),
		LockRows:   true,
	})
	if err != nil {
		http.Error(w, "validation failed", http.StatusInternalServerError)
		return
	}
	if rej != nil {
		writeRejection(w, rej)
		return
	}

	price, ok := resolvePrice(svc.Price, svc.Price, false, priceOverride)
	if !ok {
		http.Error(w, "price must be a non-negative amount", http.StatusBadRequest)
		return
	}
	appt := model.Appointment{
		BusinessID:      businessID,
		ServiceID:       svc.ID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		StartTime:       startLocal.UTC(),
		EndTime:         endLocal.UTC(),
		DurationMinutes: svc.DurationMinutes,
		Price:           price,
		Status:          model.StatusConfirmed,
		Origin:          model.OriginOwner,
		Notes:           strings.TrimSpace(req.Notes),
	}
	id, err := txRepo.CreateAppointment(ctx, appt, svc.BufferBefore, svc.BufferAfter)
	if err != nil {
		if storage.IsConflict(err) {
			writeSlotTaken(w)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	appt.ID = id

	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentConfirmed(appt)); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			writeSlotTaken(w)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(appt))
}

type updateAppointmentRequest struct {
	AppointmentID string  `json:"appointment_id"`
	ServiceID     string  `json:"service_id"`
	Date          string  `json:"date"`
	Start         string  `json:"start"`
	Status        string  `json:"status"`
	Price         *string `json:"price"`
	Notes         *string `json:"notes"`
}

// Update edits a pending or confirmed appointment. Customer-originated
// bookings accept status changes only; owner bookings may also move to a new
// service, time or price, which re-validates against everything but the
// appointment itself and emits a reschedule event.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	txRepo := h.repo.WithTx(tx)

	appt, err := txRepo.GetAppointmentForUpdate(ctx, businessID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	if status, changed := lifecycle.Reconcile(appt, now); changed {
		if err := txRepo.UpdateAppointmentStatus(ctx, businessID, appt.ID, status); err != nil {
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
			return
		}
		appt.Status = status
	}

	scope, denial := lifecycle.CanEdit(appt)
	if denial != nil {
		writeDenial(w, denial)
		return
	}

	wantsReschedule := req.ServiceID != "" || req.Date != "" || req.Start != "" || req.Price != nil
	if scope == lifecycle.EditStatusOnly && (wantsReschedule || req.Notes != nil) {
		writeDenial(w, &lifecycle.Denial{
			Code:   lifecycle.DenyCustomerOwned,
			Reason: "Customer bookings can only have their status changed.",
		})
		return
	}

	if req.Status != "" {
		next := model.Status(req.Status)
		if next != model.StatusPending && next != model.StatusConfirmed {
			http.Error(w, "status must be pending or confirmed", http.StatusBadRequest)
			return
		}
		if d := lifecycle.CanSetStatus(appt, next); d != nil {
			writeDenial(w, d)
			return
		}
		if next != appt.Status {
			if err := txRepo.UpdateAppointmentStatus(ctx, businessID, appt.ID, next); err != nil {
				http.Error(w, "failed to update appointment", http.StatusInternalServerError)
				return
			}
			appt.Status = next
			if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentConfirmed(appt)); err != nil {
				http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
				return
			}
		}
	}

	if wantsReschedule {
		rej, ok := h.reschedule(w, r, tx, txRepo, &appt, req)
		if !ok {
			return
		}
		if rej != nil {
			writeRejection(w, rej)
			return
		}
	}

	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		if err := txRepo.UpdateAppointmentNotes(ctx, businessID, appt.ID, notes); err != nil {
			http.Error(w, "failed to update notes", http.StatusInternalServerError)
			return
		}
		appt.Notes = notes
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			writeSlotTaken(w)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

// reschedule moves appt to the requested service/time inside the caller's
// transaction. It reports ok=false after writing an HTTP error itself.
func (h *AppointmentHandler) reschedule(w http.ResponseWriter, r *http.Request, tx pgx.Tx, txRepo *storage.Repository, appt *model.Appointment, req updateAppointmentRequest) (*schedule.Rejection, bool) {
	ctx := r.Context()

	business, err := txRepo.GetBusiness(ctx, appt.BusinessID)
	if err != nil {
		http.Error(w, "failed to load business", http.StatusInternalServerError)
		return nil, false
	}
	loc, _ := interval.LocationFor(business.TimeZoneID)

	serviceID := strings.TrimSpace(req.ServiceID)
	if serviceID == "" {
		serviceID = appt.ServiceID
	}
	svc, err := txRepo.GetService(ctx, appt.BusinessID, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return nil, false
	}

	startLocal := appt.StartTime.In(loc)
	if req.Date != "" || req.Start != "" {
		dateStr := strings.TrimSpace(req.Date)
		if dateStr == "" {
			dateStr = startLocal.Format("2006-01-02")
		}
		startStr := strings.TrimSpace(req.Start)
		if startStr == "" {
			startStr = startLocal.Format("15:04")
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return nil, false
		}
		clock, err := time.Parse("15:04", startStr)
		if err != nil {
			http.Error(w, "invalid start, want HH:MM", http.StatusBadRequest)
			return nil, false
		}
		startLocal = time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	}
	endLocal := startLocal.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	rej, err := h.engine.WithStore(txRepo).ValidateSlot(ctx, schedule.ValidateRequest{
		Business:             business,
		Service:              svc,
		StartLocal:           startLocal,
		EndLocal:             endLocal,
		ExcludeAppointmentID: appt.ID,
		NowUTC:               time.Now().UTC(),
		LockRows:             true,
	})
	if err != nil {
		http.Error(w, "validation failed", http.StatusInternalServerError)
		return nil, false
	}
	if rej != nil {
		return rej, true
	}

	price, ok := resolvePrice(appt.Price, svc.Price, svc.ID != appt.ServiceID, req.Price)
	if !ok {
		http.Error(w, "price must be a non-negative amount", http.StatusBadRequest)
		return nil, false
	}

	previousStart, previousEnd := appt.StartTime, appt.EndTime
	appt.ServiceID = svc.ID
	appt.StartTime = startLocal.UTC()
	appt.EndTime = endLocal.UTC()
	appt.DurationMinutes = svc.DurationMinutes
	appt.Price = price

	if err := txRepo.UpdateAppointmentSchedule(ctx, *appt, svc.BufferBefore, svc.BufferAfter); err != nil {
		if storage.IsConflict(err) {
			writeSlotTaken(w)
			return nil, false
		}
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return nil, false
	}
	if !previousStart.Equal(appt.StartTime) || !previousEnd.Equal(appt.EndTime) {
		if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentRescheduled(*appt, previousStart, previousEnd)); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return nil, false
		}
	}
	return nil, true
}

// resolvePrice returns the price an owner edit leaves on the appointment. An
// explicit override wins; without one a service change adopts the new
// service's price and the stored price is kept otherwise.
func resolvePrice(stored, servicePrice string, serviceChanged bool, override *string) (string, bool) {
	if override != nil {
		return parsePrice(*override)
	}
	if serviceChanged {
		return servicePrice, true
	}
	return stored, true
}

// parsePrice accepts a non-negative decimal amount.
func parsePrice(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return "", false
	}
	return raw, true
}

type appointmentActionRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

// Cancel is the owner-side cancellation; no cancellation-window check
// applies to the owner.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	txRepo := h.repo.WithTx(tx)

	appt, err := txRepo.GetAppointmentForUpdate(ctx, businessID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	if status, changed := lifecycle.Reconcile(appt, now); changed {
		if err := txRepo.UpdateAppointmentStatus(ctx, businessID, appt.ID, status); err != nil {
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
			return
		}
		appt.Status = status
	}
	if d := lifecycle.CanCancel(appt); d != nil {
		writeDenial(w, d)
		return
	}

	reason := strings.TrimSpace(req.Reason)
	cancelledAt, err := txRepo.CancelAppointment(ctx, businessID, appt.ID, reason)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	appt.Status = model.StatusCancelled
	appt.CancelledAt = &cancelledAt
	appt.CancellationReason = reason
	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentCancelled(appt, reason)); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

// NoShow marks a completed appointment as a no-show.
func (h *AppointmentHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	txRepo := h.repo.WithTx(tx)

	appt, err := txRepo.GetAppointmentForUpdate(ctx, businessID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	// A confirmed appointment whose time has passed completes here first, so
	// the owner can flag it in one step.
	if status, changed := lifecycle.Reconcile(appt, time.Now().UTC()); changed {
		if err := txRepo.UpdateAppointmentStatus(ctx, businessID, appt.ID, status); err != nil {
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
			return
		}
		appt.Status = status
	}
	if d := lifecycle.CanMarkNoShow(appt); d != nil {
		writeDenial(w, d)
		return
	}

	if err := txRepo.UpdateAppointmentStatus(ctx, businessID, appt.ID, model.StatusNoShow); err != nil {
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}
	appt.Status = model.StatusNoShow
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

// Delete permanently removes a confirmed future appointment. The
// cancellation event goes out first so the customer still gets notified.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	txRepo := h.repo.WithTx(tx)

	appt, err := txRepo.GetAppointmentForUpdate(ctx, businessID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	if status, changed := lifecycle.Reconcile(appt, now); changed {
		if err := txRepo.UpdateAppointmentStatus(ctx, businessID, appt.ID, status); err != nil {
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
			return
		}
		appt.Status = status
	}
	if d := lifecycle.CanHardDelete(appt, now); d != nil {
		writeDenial(w, d)
		return
	}

	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentCancelled(appt, "Removed by the business.")); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := txRepo.DeleteAppointment(ctx, businessID, appt.ID); err != nil {
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
