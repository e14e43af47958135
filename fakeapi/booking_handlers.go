package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type bookingRequest struct {
	UserID      *int    `json:"user_id"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Service     string  `json:"service"`
	BookingDate string  `json:"booking_date"`
	BookingTime string  `json:"booking_time"`
	Notes       string  `json:"notes"`
	Status      *string `json:"status"`
}

func (s *Server) visibleBookingLocked(id int, caller *account) *booking {
	for _, b := range s.bookings {
		if b.ID == id && (caller.IsSuperuser || b.User == caller.ID) {
			return b
		}
	}
	return nil
}

func (s *Server) handleBookingList(w http.ResponseWriter, _ *http.Request, caller *account) {
	list := make([]booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if caller.IsSuperuser || b.User == caller.ID {
			list = append(list, *b)
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func validateBookingFields(b *booking) map[string][]string {
	errs := map[string][]string{}
	for field, value := range map[string]string{
		"full_name":    b.FullName,
		"email":        b.Email,
		"service":      b.Service,
		"booking_date": b.BookingDate,
		"booking_time": b.BookingTime,
	} {
		if strings.TrimSpace(value) == "" {
			errs[field] = []string{"This field is required."}
		}
	}
	if _, ok := errs["booking_date"]; !ok {
		if _, err := time.Parse(time.DateOnly, b.BookingDate); err != nil {
			errs["booking_date"] = []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}
		}
	}
	if _, ok := errs["booking_time"]; !ok {
		if _, err := time.Parse("15:04", b.BookingTime[:min(5, len(b.BookingTime))]); err != nil {
			errs["booking_time"] = []string{"Time has wrong format. Use one of these formats instead: hh:mm[:ss[.uuuuuu]]."}
		}
	}
	if !bookingStatuses[b.Status] {
		errs["status"] = []string{`"` + b.Status + `" is not a valid choice.`}
	}
	return errs
}

func (s *Server) handleBookingCreate(w http.ResponseWriter, r *http.Request, caller *account) {
	var req bookingRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("JSON parse error."))
		return
	}
	owner := caller
	if req.UserID != nil && caller.IsSuperuser {
		target, ok := s.accounts[*req.UserID]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"user_id": {"User not found."}})
			return
		}
		owner = target
	}
	now := s.now().UTC()
	b := &booking{
		User:        owner.ID,
		Username:    owner.Username,
		FullName:    req.FullName,
		Email:       req.Email,
		Service:     req.Service,
		BookingDate: req.BookingDate,
		BookingTime: req.BookingTime,
		Notes:       req.Notes,
		Status:      "pending",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Status != nil && caller.IsSuperuser {
		b.Status = *req.Status
	}
	if errs := validateBookingFields(b); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	b.ID = s.next("booking")
	s.bookings = append(s.bookings, b)
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleBookingPatch(w http.ResponseWriter, r *http.Request, caller *account) {
	var patch map[string]json.RawMessage
	if err := readJSON(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("JSON parse error."))
		return
	}
	b := s.visibleBookingLocked(pathID(r), caller)
	if b == nil {
		writeJSON(w, http.StatusNotFound, detail("Not found."))
		return
	}
	updated := *b
	fields := map[string]*string{
		"full_name":    &updated.FullName,
		"email":        &updated.Email,
		"service":      &updated.Service,
		"booking_date": &updated.BookingDate,
		"booking_time": &updated.BookingTime,
		"notes":        &updated.Notes,
		"status":       &updated.Status,
	}
	for field, raw := range patch {
		target, ok := fields[field]
		if !ok {
			continue
		}
		if field == "status" && !caller.IsSuperuser {
			writeJSON(w, http.StatusForbidden, errorBody("Only super users can change booking status."))
			return
		}
		if err := json.Unmarshal(raw, target); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string][]string{field: {"Not a valid string."}})
			return
		}
	}
	if errs := validateBookingFields(&updated); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	updated.UpdatedAt = s.now().UTC()
	*b = updated
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleBookingDelete(w http.ResponseWriter, r *http.Request, caller *account) {
	id := pathID(r)
	for i, b := range s.bookings {
		if b.ID == id && (caller.IsSuperuser || b.User == caller.ID) {
			s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, detail("Not found."))
}
