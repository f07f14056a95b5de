package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cricketpark/internal/domain"
	"cricketpark/internal/export"
	"cricketpark/internal/models"
	"cricketpark/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", s.handleHealth)

	s.handle(mux, "GET /api/v1/bookings", s.handleListBookings)
	s.handle(mux, "POST /api/v1/bookings", s.handleCreateBooking)
	s.handle(mux, "GET /api/v1/bookings/{id}", s.handleGetBooking)
	s.handle(mux, "PUT /api/v1/bookings/{id}", s.handleUpdateBooking)
	s.handle(mux, "DELETE /api/v1/bookings/{id}", s.handleDeleteBooking)
	s.handle(mux, "GET /api/v1/bookings/{id}/payments", s.handleBookingPayments)
	s.handle(mux, "GET /api/v1/availability", s.handleAvailability)

	s.handle(mux, "GET /api/v1/venues", s.handleListVenues)
	s.handle(mux, "GET /api/v1/venues/search", s.handleSearchVenues)
	s.handle(mux, "POST /api/v1/venues", s.handleCreateVenue)
	s.handle(mux, "GET /api/v1/venues/{id}", s.handleGetVenue)
	s.handle(mux, "PUT /api/v1/venues/{id}", s.handleUpdateVenue)
	s.handle(mux, "DELETE /api/v1/venues/{id}", s.handleDeleteVenue)
	s.handle(mux, "GET /api/v1/venues/{id}/managers", s.handleListManagers)
	s.handle(mux, "POST /api/v1/venues/{id}/managers", s.handleAssignManager)

	s.handle(mux, "GET /api/v1/payments", s.handleListPayments)
	s.handle(mux, "POST /api/v1/payments", s.handleCreatePayment)
	s.handle(mux, "GET /api/v1/payments/{id}", s.handleGetPayment)
	s.handle(mux, "PUT /api/v1/payments/{id}", s.handleUpdatePayment)
	s.handle(mux, "DELETE /api/v1/payments/{id}", s.handleDeletePayment)

	s.handle(mux, "GET /api/v1/users", s.handleListUsers)
	s.handle(mux, "POST /api/v1/users", s.handleRegisterUser)
	s.handle(mux, "GET /api/v1/users/{id}", s.handleGetUser)
	s.handle(mux, "PUT /api/v1/users/{id}", s.handleUpdateUser)
	s.handle(mux, "DELETE /api/v1/users/{id}", s.handleDeactivateUser)
	s.handle(mux, "GET /api/v1/users/{id}/bookings", s.handleUserBookings)

	s.handle(mux, "GET /api/v1/reports/bookings.xlsx", s.handleBookingReport)
}

// bookingView renders a booking with a calendar date instead of a timestamp.
type bookingView struct {
	ID          int64            `json:"id"`
	UserID      string           `json:"user_id"`
	VenueID     int64            `json:"venue_id"`
	Date        string           `json:"date"`
	StartTime   models.TimeOfDay `json:"start_time"`
	EndTime     models.TimeOfDay `json:"end_time"`
	TotalAmount int64            `json:"total_amount"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	IsActive    bool             `json:"is_active"`
}

func newBookingView(b *models.Booking) bookingView {
	return bookingView{
		ID:          b.ID,
		UserID:      b.UserID,
		VenueID:     b.VenueID,
		Date:        b.Date.Format(models.DateLayout),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		IsActive:    b.IsActive,
	}
}

func bookingViews(bookings []models.Booking) []bookingView {
	out := make([]bookingView, 0, len(bookings))
	for i := range bookings {
		out = append(out, newBookingView(&bookings[i]))
	}
	return out
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health != nil {
		if err := s.svc.Health.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.Bookings.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookingViews(bookings)})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VenueID   int64             `json:"venue_id"`
		Date      string            `json:"date"`
		StartTime *models.TimeOfDay `json:"start_time"`
		EndTime   *models.TimeOfDay `json:"end_time"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	date, err := parseDate(body.Date, "date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// a missing time must not decode to midnight
	if body.StartTime == nil || body.EndTime == nil {
		writeServiceError(w, r, fmt.Errorf("%w: start_time and end_time are required", domain.ErrInvalidInput))
		return
	}

	booking, err := s.svc.Bookings.Create(r.Context(), service.CreateBookingRequest{
		UserID:    strings.TrimSpace(r.Header.Get(userIDHeader)),
		VenueID:   body.VenueID,
		Date:      date,
		StartTime: *body.StartTime,
		EndTime:   *body.EndTime,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookingView(booking))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingView(booking))
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Update(r.Context(), id, strings.TrimSpace(body.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingView(booking))
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Bookings.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.Bookings.ListForUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookingViews(bookings)})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	venueID, err := parseID(q.Get("venue_id"), "venue_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	date, err := parseDate(q.Get("date"), "date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	start, err := parseTime(q.Get("start"), "start")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	end, err := parseTime(q.Get("end"), "end")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	available, err := s.svc.Bookings.IsSlotAvailable(r.Context(), venueID, date, start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"venue_id":   venueID,
		"date":       date.Format(models.DateLayout),
		"start_time": start,
		"end_time":   end,
		"available":  available,
	})
}

type venueRequest struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zip_code"`
	ContactNumber   string `json:"contact_number"`
	Email           string `json:"email"`
	PricePerHour    int64  `json:"price_per_hour"`
	NumberOfPitches int    `json:"number_of_pitches"`
}

func (s *HTTPServer) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.svc.Venues.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"venues": venues})
}

func (s *HTTPServer) handleSearchVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.svc.Venues.Search(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"venues": venues})
}

func (s *HTTPServer) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	var body venueRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	venue, err := s.svc.Venues.Create(r.Context(), &models.Venue{
		Name:            body.Name,
		Address:         body.Address,
		City:            body.City,
		State:           body.State,
		ZipCode:         body.ZipCode,
		ContactNumber:   body.ContactNumber,
		Email:           body.Email,
		PricePerHour:    body.PricePerHour,
		NumberOfPitches: body.NumberOfPitches,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, venue)
}

func (s *HTTPServer) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	venue, err := s.svc.Venues.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

func (s *HTTPServer) handleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var upd service.VenueUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeServiceError(w, r, err)
		return
	}
	venue, err := s.svc.Venues.Update(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

func (s *HTTPServer) handleDeleteVenue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Venues.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListManagers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	managers, err := s.svc.Venues.ListManagers(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"managers": managers})
}

func (s *HTTPServer) handleAssignManager(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	manager, err := s.svc.Venues.AssignManager(r.Context(), id, body.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, manager)
}

func (s *HTTPServer) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.svc.Payments.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *HTTPServer) handleBookingPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	payments, err := s.svc.Payments.ListForBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *HTTPServer) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	payment, err := s.svc.Payments.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *HTTPServer) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	payment, err := s.svc.Payments.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *HTTPServer) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var upd service.PaymentUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeServiceError(w, r, err)
		return
	}
	payment, err := s.svc.Payments.Update(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *HTTPServer) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Payments.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *HTTPServer) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone_number"`
		Role      string `json:"role"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, err := s.svc.Users.Register(r.Context(), service.RegisterUserRequest{
		Email:     body.Email,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		Role:      body.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd service.UserUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, err := s.svc.Users.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Users.Deactivate(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleBookingReport(w http.ResponseWriter, r *http.Request) {
	if s.svc.Reports == nil {
		writeError(w, http.StatusNotFound, "reports are not enabled")
		return
	}
	from, err := parseDate(r.URL.Query().Get("from"), "from")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"), "to")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := export.ValidateRange(from, to); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Reports.Write(r.Context(), &buf, from, to); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings_%s_%s.xlsx"`,
		from.Format("20060102"), to.Format("20060102")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func pathID(r *http.Request) (int64, error) {
	return parseID(r.PathValue("id"), "id")
}

func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, field)
	}
	return id, nil
}

func parseDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s format; expected YYYY-MM-DD", domain.ErrInvalidInput, field)
	}
	return date, nil
}

func parseTime(raw, field string) (models.TimeOfDay, error) {
	t, err := models.ParseTimeOfDay(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, field, err)
	}
	return t, nil
}
