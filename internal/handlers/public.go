package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appointly/appointly/internal/interval"
	"github.com/appointly/appointly/internal/lifecycle"
	"github.com/appointly/appointly/internal/model"
	"github.com/appointly/appointly/internal/outbox"
	"github.com/appointly/appointly/internal/schedule"
	"github.com/appointly/appointly/internal/storage"
)

// PublicHandler serves the customer self-service surface: slot discovery,
// booking, and the confirmation-token flows.
type PublicHandler struct {
	repo       *storage.Repository
	engine     *schedule.Engine
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewPublicHandler(repo *storage.Repository, engine *schedule.Engine, outboxRepo *outbox.Repository, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{repo: repo, engine: engine, outboxRepo: outboxRepo, logger: logger}
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// Slots lists the bookable start times for a service on a business-local
// date. Anything that makes the day unbookable, including a date past the
// policy's advance horizon, is an empty list rather than an error.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if businessID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "business_id, service_id and date are required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	empty := slotsResponse{Date: dateStr, Slots: []string{}}
	ctx := r.Context()

	business, err := h.repo.GetBusiness(ctx, businessID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeJSON(w, http.StatusOK, empty)
			return
		}
		http.Error(w, "failed to load business", http.StatusInternalServerError)
		return
	}

	// The advance-horizon cap is a policy of this surface, not of the slot
	// algorithm: owners may still book past it.
	policy, err := h.repo.GetBookingPolicy(ctx, businessID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeJSON(w, http.StatusOK, empty)
			return
		}
		http.Error(w, "failed to load booking policy", http.StatusInternalServerError)
		return
	}
	loc, _ := interval.LocationFor(business.TimeZoneID)
	now := time.Now().UTC()
	today := interval.DayStart(now.In(loc))
	reqDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	if reqDay.Before(today) {
		writeJSON(w, http.StatusOK, empty)
		return
	}
	if policy.MaxAdvanceDays > 0 && reqDay.After(today.AddDate(0, 0, policy.MaxAdvanceDays)) {
		writeJSON(w, http.StatusOK, empty)
		return
	}

	slots, err := h.engine.GenerateSlots(ctx, businessID, serviceID, date.Year(), date.Month(), date.Day(), now)
	if err != nil {
		h.logger.Error("slot generation failed", "err", err, "business_id", businessID)
		http.Error(w, "failed to generate slots", http.StatusInternalServerError)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: dateStr, Slots: slots})
}

type bookRequest struct {
	BusinessID    string `json:"business_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`  // business-local YYYY-MM-DD
	Start         string `json:"start"` // business-local HH:MM, as listed by slots
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
}

type bookResponse struct {
	AppointmentID     string `json:"appointment_id"`
	ConfirmationToken string `json:"confirmation_token"`
	Status            string `json:"status"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
}

// Book commits a pending appointment for a customer-picked slot. The
// validator runs inside the insert transaction with row locks held, and the
// exclusion constraint backstops whatever the locks miss.
func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	if req.BusinessID == "" || req.ServiceID == "" || req.CustomerName == "" || req.CustomerEmail == "" {
		http.Error(w, "business_id, service_id, customer_name and customer_email are required", http.StatusBadRequest)
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

	ctx := r.Context()
	business, err := h.repo.GetBusiness(ctx, req.BusinessID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "business not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load business", http.StatusInternalServerError)
		return
	}
	svc, err := h.repo.GetService(ctx, req.BusinessID, req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	if !svc.Active {
		http.Error(w, "service not found", http.StatusNotFound)
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

	appt := model.Appointment{
		BusinessID:        req.BusinessID,
		ServiceID:         svc.ID,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerPhone:     strings.TrimSpace(req.CustomerPhone),
		StartTime:         startLocal.UTC(),
		EndTime:           endLocal.UTC(),
		DurationMinutes:   svc.DurationMinutes,
		Price:             svc.Price,
		Status:            model.StatusPending,
		Origin:            model.OriginCustomer,
		ConfirmationToken: uuid.NewString(),
		Notes:             strings.TrimSpace(req.Notes),
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

	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentRequested(appt)); err != nil {
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

	writeJSON(w, http.StatusCreated, bookResponse{
		AppointmentID:     id,
		ConfirmationToken: appt.ConfirmationToken,
		Status:            string(appt.Status),
		StartTime:         appt.StartTime.Format(time.RFC3339),
		EndTime:           appt.EndTime.Format(time.RFC3339),
	})
}

type tokenRequest struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

type tokenResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	Changed       bool   `json:"changed"`
}

// Confirm resolves a confirmation link. Clicking twice is a success both
// times; only a cancelled booking refuses.
func (h *PublicHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		http.Error(w, "token required", http.StatusBadRequest)
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

	appt, err := txRepo.GetAppointmentByToken(ctx, req.Token)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	// A confirmed booking whose time has already passed reads as completed.
	if status, changed := lifecycle.Reconcile(appt, time.Now().UTC()); changed {
		if err := txRepo.UpdateAppointmentStatus(ctx, appt.BusinessID, appt.ID, status); err != nil {
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
			return
		}
		appt.Status = status
	}

	out, denial := lifecycle.Confirm(appt)
	if denial != nil {
		writeDenial(w, denial)
		return
	}
	if out.Changed {
		if err := txRepo.UpdateAppointmentStatus(ctx, appt.BusinessID, appt.ID, out.Status); err != nil {
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
			return
		}
		appt.Status = out.Status
		if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentConfirmed(appt)); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AppointmentID: appt.ID, Status: string(appt.Status), Changed: out.Changed})
}

// Cancel lets a customer cancel through their confirmation link, inside the
// policy's cancellation window.
func (h *PublicHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		http.Error(w, "token required", http.StatusBadRequest)
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

	appt, err := txRepo.GetAppointmentByToken(ctx, req.Token)
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
		if err := txRepo.UpdateAppointmentStatus(ctx, appt.BusinessID, appt.ID, status); err != nil {
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
			return
		}
		appt.Status = status
	}
	if d := lifecycle.CanCancel(appt); d != nil {
		writeDenial(w, d)
		return
	}

	policy, err := txRepo.GetBookingPolicy(ctx, appt.BusinessID)
	if err != nil && !storage.IsNotFound(err) {
		http.Error(w, "failed to load booking policy", http.StatusInternalServerError)
		return
	}
	if err == nil && policy.CancellationWindowMinutes > 0 {
		deadline := appt.StartTime.Add(-time.Duration(policy.CancellationWindowMinutes) * time.Minute)
		if now.After(deadline) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{
				Error: "The cancellation window for this appointment has closed.",
				Code:  "cancellation_window_closed",
			})
			return
		}
	}

	reason := strings.TrimSpace(req.Reason)
	if _, err := txRepo.CancelAppointment(ctx, appt.BusinessID, appt.ID, reason); err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	appt.Status = model.StatusCancelled
	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentCancelled(appt, reason)); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AppointmentID: appt.ID, Status: string(appt.Status), Changed: true})
}
