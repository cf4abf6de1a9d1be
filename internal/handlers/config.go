package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/appointly/appointly/internal/interval"
	"github.com/appointly/appointly/internal/model"
	"github.com/appointly/appointly/internal/storage"
)

// ConfigHandler serves the owner-side configuration that feeds the engine:
// business profile, services, working hours, time off and the booking policy.
type ConfigHandler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func NewConfigHandler(repo *storage.Repository, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{repo: repo, logger: logger}
}

type businessBody struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	TimeZoneID         string `json:"timezone_id"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}

// Business handles POST (onboard a new business), GET (profile) and PUT
// (update) on the business itself.
func (h *ConfigHandler) Business(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == http.MethodPost {
		var req businessBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.TimeZoneID = strings.TrimSpace(req.TimeZoneID)
		if req.Name == "" || req.TimeZoneID == "" {
			http.Error(w, "name and timezone_id are required", http.StatusBadRequest)
			return
		}
		if _, degraded := interval.LocationFor(req.TimeZoneID); degraded {
			http.Error(w, "unknown timezone_id", http.StatusBadRequest)
			return
		}
		id, err := h.repo.CreateBusiness(ctx, model.Business{
			Name:       req.Name,
			Slug:       strings.TrimSpace(req.Slug),
			TimeZoneID: req.TimeZoneID,
			Phone:      strings.TrimSpace(req.Phone),
			Address:    strings.TrimSpace(req.Address),
		})
		if err != nil {
			http.Error(w, "failed to create business", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"business_id": id})
		return
	}

	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		b, err := h.repo.GetBusiness(ctx, businessID)
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "business not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to load business", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, businessBody{
			Name:               b.Name,
			Slug:               b.Slug,
			TimeZoneID:         b.TimeZoneID,
			Phone:              b.Phone,
			Address:            b.Address,
			OnboardingComplete: b.OnboardingComplete,
		})
	case http.MethodPut:
		var req businessBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.TimeZoneID = strings.TrimSpace(req.TimeZoneID)
		if req.Name == "" || req.TimeZoneID == "" {
			http.Error(w, "name and timezone_id are required", http.StatusBadRequest)
			return
		}
		// A broken zone id would silently degrade every schedule to UTC, so
		// reject it here where the owner can fix it.
		if _, degraded := interval.LocationFor(req.TimeZoneID); degraded {
			http.Error(w, "unknown timezone_id", http.StatusBadRequest)
			return
		}
		err := h.repo.UpdateBusiness(ctx, model.Business{
			ID:                 businessID,
			Name:               req.Name,
			Slug:               strings.TrimSpace(req.Slug),
			TimeZoneID:         req.TimeZoneID,
			Phone:              strings.TrimSpace(req.Phone),
			Address:            strings.TrimSpace(req.Address),
			OnboardingComplete: req.OnboardingComplete,
		})
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "business not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to update business", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type serviceBody struct {
	ServiceID       string `json:"service_id,omitempty"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	BufferBefore    int    `json:"buffer_before_minutes"`
	BufferAfter     int    `json:"buffer_after_minutes"`
	Active          bool   `json:"active"`
}

func toServiceBody(s model.Service) serviceBody {
	return serviceBody{
		ServiceID:       s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		BufferBefore:    s.BufferBefore,
		BufferAfter:     s.BufferAfter,
		Active:          s.Active,
	}
}

func (h *ConfigHandler) serviceFromBody(businessID string, req serviceBody) (model.Service, string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return model.Service{}, "name required"
	}
	if req.DurationMinutes <= 0 || req.DurationMinutes > 24*60 {
		return model.Service{}, "duration_minutes must be between 1 and 1440"
	}
	// A day is also the widest window the overlap scan looks across.
	if req.BufferBefore < 0 || req.BufferAfter < 0 || req.BufferBefore > 24*60 || req.BufferAfter > 24*60 {
		return model.Service{}, "buffers must be between 0 and 1440 minutes"
	}
	price := strings.TrimSpace(req.Price)
	if price == "" {
		price = "0"
	}
	if _, ok := parsePrice(price); !ok {
		return model.Service{}, "price must be a non-negative amount"
	}
	return model.Service{
		ID:              strings.TrimSpace(req.ServiceID),
		BusinessID:      businessID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           price,
		BufferBefore:    req.BufferBefore,
		BufferAfter:     req.BufferAfter,
		Active:          req.Active,
	}, ""
}

// Services handles GET (list) and POST (create) on the service catalog.
func (h *ConfigHandler) Services(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		activeOnly := strings.TrimSpace(r.URL.Query().Get("active")) == "true"
		services, err := h.repo.ListServices(ctx, businessID, activeOnly)
		if err != nil {
			http.Error(w, "failed to list services", http.StatusInternalServerError)
			return
		}
		out := make([]serviceBody, 0, len(services))
		for _, s := range services {
			out = append(out, toServiceBody(s))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req serviceBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		svc, msg := h.serviceFromBody(businessID, req)
		if msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		svc.ID = ""
		id, err := h.repo.CreateService(ctx, svc)
		if err != nil {
			http.Error(w, "failed to create service", http.StatusInternalServerError)
			return
		}
		svc.ID = id
		writeJSON(w, http.StatusCreated, toServiceBody(svc))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// UpdateService replaces a service's fields.
func (h *ConfigHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	var req serviceBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	svc, msg := h.serviceFromBody(businessID, req)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if svc.ID == "" {
		http.Error(w, "service_id required", http.StatusBadRequest)
		return
	}
	if err := h.repo.UpdateService(r.Context(), svc); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toServiceBody(svc))
}

type deleteServiceRequest struct {
	ServiceID string `json:"service_id"`
}

// DeleteService removes a service, or deactivates it when appointments still
// reference it so their history keeps its pricing and buffer context.
func (h *ConfigHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	var req deleteServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.ServiceID == "" {
		http.Error(w, "service_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err := h.repo.DeleteService(ctx, businessID, req.ServiceID)
	if err != nil && storage.IsRestricted(err) {
		if err = h.repo.DeactivateService(ctx, businessID, req.ServiceID); err == nil {
			writeJSON(w, http.StatusOK, map[string]string{"service_id": req.ServiceID, "result": "deactivated"})
			return
		}
	}
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"service_id": req.ServiceID, "result": "deleted"})
}

type workingHoursBody struct {
	Weekday int    `json:"weekday"` // 1=Monday .. 7=Sunday
	Closed  bool   `json:"closed"`
	Open    string `json:"open,omitempty"`  // HH:MM, required when open
	Close   string `json:"close,omitempty"` // HH:MM
}

// WorkingHours handles GET (all weekdays) and POST (per-weekday upsert).
func (h *ConfigHandler) WorkingHours(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		rows, err := h.repo.ListWorkingHours(ctx, businessID)
		if err != nil {
			http.Error(w, "failed to list working hours", http.StatusInternalServerError)
			return
		}
		out := make([]workingHoursBody, 0, len(rows))
		for _, wh := range rows {
			body := workingHoursBody{Weekday: int(wh.Weekday), Closed: wh.Closed}
			if !wh.Closed {
				body.Open = interval.MinuteLabel(wh.OpenMinute)
				body.Close = interval.MinuteLabel(wh.CloseMinute)
			}
			out = append(out, body)
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req workingHoursBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if req.Weekday < 1 || req.Weekday > 7 {
			http.Error(w, "weekday must be 1 (Monday) through 7 (Sunday)", http.StatusBadRequest)
			return
		}
		wh := model.WorkingHours{
			BusinessID: businessID,
			Weekday:    model.Weekday(req.Weekday),
			Closed:     req.Closed,
		}
		if !req.Closed {
			openMin, err := parseMinuteOfDay(req.Open)
			if err != nil {
				http.Error(w, "invalid open, want HH:MM", http.StatusBadRequest)
				return
			}
			closeMin, err := parseMinuteOfDay(req.Close)
			if err != nil {
				http.Error(w, "invalid close, want HH:MM", http.StatusBadRequest)
				return
			}
			if closeMin <= openMin {
				http.Error(w, "close must be after open", http.StatusBadRequest)
				return
			}
			wh.OpenMinute = openMin
			wh.CloseMinute = closeMin
		}
		if err := h.repo.UpsertWorkingHours(ctx, wh); err != nil {
			http.Error(w, "failed to save working hours", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func parseMinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

type policyBody struct {
	SlotIntervalMinutes       int `json:"slot_interval_minutes"`
	AdvanceNoticeMinutes      int `json:"advance_notice_minutes"`
	CancellationWindowMinutes int `json:"cancellation_window_minutes"`
	MaxAdvanceDays            int `json:"max_advance_days"`
}

func (b policyBody) validate() string {
	if b.SlotIntervalMinutes < 5 || b.SlotIntervalMinutes > 24*60 {
		return "slot_interval_minutes must be between 5 and 1440"
	}
	if b.AdvanceNoticeMinutes < 0 || b.CancellationWindowMinutes < 0 || b.MaxAdvanceDays < 0 {
		return "policy values must not be negative"
	}
	return ""
}

// Policy handles GET and PUT on the business's booking policy.
func (h *ConfigHandler) Policy(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		p, err := h.repo.GetBookingPolicy(ctx, businessID)
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "booking policy not configured", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to load booking policy", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, policyBody{
			SlotIntervalMinutes:       p.SlotIntervalMinutes,
			AdvanceNoticeMinutes:      p.AdvanceNoticeMinutes,
			CancellationWindowMinutes: p.CancellationWindowMinutes,
			MaxAdvanceDays:            p.MaxAdvanceDays,
		})
	case http.MethodPut:
		var req policyBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if msg := req.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		err := h.repo.UpsertBookingPolicy(ctx, model.BookingPolicy{
			BusinessID:                businessID,
			SlotIntervalMinutes:       req.SlotIntervalMinutes,
			AdvanceNoticeMinutes:      req.AdvanceNoticeMinutes,
			CancellationWindowMinutes: req.CancellationWindowMinutes,
			MaxAdvanceDays:            req.MaxAdvanceDays,
		})
		if err != nil {
			http.Error(w, "failed to save booking policy", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type timeOffBody struct {
	TimeOffID string `json:"time_off_id,omitempty"`
	StartTime string `json:"start_time"` // RFC3339, UTC instants
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

// TimeOff handles GET (list within a range) and POST (create a block).
func (h *ConfigHandler) TimeOff(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		now := time.Now().UTC()
		from, to := now, now.AddDate(1, 0, 0)
		if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				http.Error(w, "invalid from, want RFC3339", http.StatusBadRequest)
				return
			}
			from = t
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				http.Error(w, "invalid to, want RFC3339", http.StatusBadRequest)
				return
			}
			to = t
		}
		blocks, err := h.repo.ListTimeOffBetween(ctx, businessID, from, to)
		if err != nil {
			http.Error(w, "failed to list time off", http.StatusInternalServerError)
			return
		}
		out := make([]timeOffBody, 0, len(blocks))
		for _, b := range blocks {
			out = append(out, timeOffBody{
				TimeOffID: b.ID,
				StartTime: b.StartTime.UTC().Format(time.RFC3339),
				EndTime:   b.EndTime.UTC().Format(time.RFC3339),
				Reason:    b.Reason,
			})
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req timeOffBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
		if err != nil {
			http.Error(w, "invalid start_time, want RFC3339", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
		if err != nil {
			http.Error(w, "invalid end_time, want RFC3339", http.StatusBadRequest)
			return
		}
		if !end.After(start) {
			http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
			return
		}
		id, err := h.repo.CreateTimeOff(ctx, model.TimeOff{
			BusinessID: businessID,
			StartTime:  start.UTC(),
			EndTime:    end.UTC(),
			Reason:     strings.TrimSpace(req.Reason),
		})
		if err != nil {
			http.Error(w, "failed to create time off", http.StatusInternalServerError)
			return
		}
		req.TimeOffID = id
		writeJSON(w, http.StatusCreated, req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type deleteTimeOffRequest struct {
	TimeOffID string `json:"time_off_id"`
}

func (h *ConfigHandler) DeleteTimeOff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := businessIDFrom(r)
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	var req deleteTimeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TimeOffID = strings.TrimSpace(req.TimeOffID)
	if req.TimeOffID == "" {
		http.Error(w, "time_off_id required", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteTimeOff(r.Context(), businessID, req.TimeOffID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "time off not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete time off", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
