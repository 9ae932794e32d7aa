package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mentorhub/booking/internal/model"
	"github.com/mentorhub/booking/internal/render"
)

const callerHeader = "X-Caller-ID"

type setAvailabilityRequest struct {
	Slots []string `json:"slots"`
}

type setAvailabilityResponse struct {
	OK               bool             `json:"ok"`
	OrphanedBookings []*model.Booking `json:"orphaned_bookings,omitempty"`
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.pathInt64(w, r, "mentorID")
	if !ok {
		return
	}
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	if callerID != mentorID {
		h.writeError(w, r, model.ErrUnauthorized)
		return
	}

	weekday, err := parseWeekday(chi.URLParam(r, "weekday"))
	if err != nil {
		h.writeBadRequest(w, "weekday must be one of Monday..Sunday")
		return
	}

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}

	starts := make([]model.TimeOfDay, 0, len(req.Slots))
	for _, s := range req.Slots {
		start, err := model.ParseTimeOfDay(s)
		if err != nil {
			h.writeBadRequest(w, "slots must be HH:MM times")
			return
		}
		starts = append(starts, start)
	}

	orphans, err := h.availability.SetAvailability(r.Context(), mentorID, weekday, starts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, setAvailabilityResponse{OK: true, OrphanedBookings: orphans})
}

type availableCell struct {
	Date  string `json:"date"`
	Start string `json:"start"`
}

func (h *Handler) listAvailable(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.pathInt64(w, r, "mentorID")
	if !ok {
		return
	}

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		h.writeBadRequest(w, "from must be a YYYY-MM-DD date")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		h.writeBadRequest(w, "to must be a YYYY-MM-DD date")
		return
	}

	cells, err := h.availability.ListAvailable(r.Context(), mentorID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := []availableCell{}
	for cell := range cells {
		out = append(out, availableCell{
			Date:  cell.Date.Format("2006-01-02"),
			Start: cell.Start.String(),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"cells": out})
}

func (h *Handler) availabilityImage(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.pathInt64(w, r, "mentorID")
	if !ok {
		return
	}

	slots, err := h.availability.WeekTemplate(r.Context(), mentorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	png, err := render.WeeklyAvailability(slots)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

type requestSessionRequest struct {
	MentorID        int64  `json:"mentor_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	SessionType     string `json:"session_type"`
	Notes           string `json:"notes"`
}

func (h *Handler) requestSession(w http.ResponseWriter, r *http.Request) {
	menteeID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req requestSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeBadRequest(w, "date must be a YYYY-MM-DD date")
		return
	}
	start, err := model.ParseTimeOfDay(req.StartTime)
	if err != nil {
		h.writeBadRequest(w, "start_time must be an HH:MM time")
		return
	}
	sessionType := model.SessionType(req.SessionType)
	if !sessionType.Valid() {
		h.writeBadRequest(w, "session_type must be career, code or technical")
		return
	}

	id, err := h.bookings.RequestSession(r.Context(), req.MentorID, menteeID, date, start, req.DurationMinutes, sessionType, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"request_id": id.String()})
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r)
	if !ok {
		return
	}

	status, err := h.bookings.GetStatus(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Approve)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Decline)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Cancel)
}

func (h *Handler) listPendingRequests(w http.ResponseWriter, r *http.Request) {
	h.listBookings(w, r, "mentorID", h.bookings.ListPendingRequests)
}

func (h *Handler) listMentorSessions(w http.ResponseWriter, r *http.Request) {
	h.listBookings(w, r, "mentorID", h.bookings.ListMentorBookings)
}

func (h *Handler) listMenteeSessions(w http.ResponseWriter, r *http.Request) {
	h.listBookings(w, r, "menteeID", h.bookings.ListMenteeBookings)
}

// helpers

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID, callerID int64) error) {
	id, ok := h.pathUUID(w, r)
	if !ok {
		return
	}
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := op(r.Context(), id, callerID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request, param string, op func(ctx context.Context, userID int64) ([]*model.Booking, error)) {
	userID, ok := h.pathInt64(w, r, param)
	if !ok {
		return
	}

	bookings, err := op(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"sessions": bookings})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(callerHeader), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
			Code:    "missing_caller",
			Message: "X-Caller-ID header is required",
		}})
		return 0, false
	}
	return id, true
}

func (h *Handler) pathInt64(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		h.writeBadRequest(w, param+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeBadRequest(w, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

var errInvalidWeekday = errors.New("invalid weekday")

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, errInvalidWeekday
}
