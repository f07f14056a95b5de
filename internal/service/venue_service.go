package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cricketpark/internal/domain"
	"cricketpark/internal/models"

	"github.com/rs/zerolog"
)

// VenueUpdate holds the fields a venue update may change. Nil fields are left alone.
type VenueUpdate struct {
	Name            *string `json:"name,omitempty"`
	Address         *string `json:"address,omitempty"`
	City            *string `json:"city,omitempty"`
	State           *string `json:"state,omitempty"`
	ZipCode         *string `json:"zip_code,omitempty"`
	ContactNumber   *string `json:"contact_number,omitempty"`
	Email           *string `json:"email,omitempty"`
	PricePerHour    *int64  `json:"price_per_hour,omitempty"`
	NumberOfPitches *int    `json:"number_of_pitches,omitempty"`
}

// VenueService manages cricket parks and doubles as the booking core's venue directory.
type VenueService struct {
	store  domain.VenueStore
	cache  domain.VenueCache
	users  domain.UserStore
	logger *zerolog.Logger
	now    func() time.Time
}

// NewVenueService wires the store with an optional cache and user store.
func NewVenueService(store domain.VenueStore, cache domain.VenueCache, users domain.UserStore, logger *zerolog.Logger) *VenueService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &VenueService{store: store, cache: cache, users: users, logger: logger, now: time.Now}
}

// GetVenue reads through the cache. It returns nil, nil when the venue does not exist.
func (s *VenueService) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	if s.cache != nil {
		venue, err := s.cache.GetVenue(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Int64("venue_id", id).Msg("venue cache read failed")
		} else if venue != nil {
			return venue, nil
		}
	}

	venue, err := s.store.GetVenue(ctx, id)
	if err != nil || venue == nil {
		return venue, err
	}

	if s.cache != nil {
		if err := s.cache.SetVenue(ctx, venue); err != nil {
			s.logger.Warn().Err(err).Int64("venue_id", id).Msg("venue cache write failed")
		}
	}
	return venue, nil
}

func (s *VenueService) List(ctx context.Context) ([]models.Venue, error) {
	venues, err := s.store.ListActiveVenues(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "list_venues").Msg("storage error")
		return nil, err
	}
	return venues, nil
}

// Search matches term against name, city and state of active venues. A blank term lists them all.
func (s *VenueService) Search(ctx context.Context, term string) ([]models.Venue, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	venues, err := s.store.SearchActiveVenues(ctx, term)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "search_venues").Str("term", term).Msg("storage error")
		return nil, err
	}
	return venues, nil
}

func (s *VenueService) Get(ctx context.Context, id int64) (*models.Venue, error) {
	venue, err := s.GetVenue(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "get_venue").Int64("venue_id", id).Msg("storage error")
		return nil, err
	}
	if venue == nil || !venue.IsActive {
		return nil, fmt.Errorf("%w: venue %d", domain.ErrNotFound, id)
	}
	return venue, nil
}

func (s *VenueService) Create(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	venue.Name = strings.TrimSpace(venue.Name)
	if err := validateVenue(venue); err != nil {
		return nil, err
	}
	venue.IsActive = true
	venue.UpdatedAt = nil

	if err := s.store.CreateVenue(ctx, venue); err != nil {
		s.logger.Error().Err(err).Str("op", "create_venue").Str("name", venue.Name).Msg("storage error")
		return nil, err
	}
	s.logger.Info().Int64("venue_id", venue.ID).Str("name", venue.Name).Msg("venue created")
	return venue, nil
}

func (s *VenueService) Update(ctx context.Context, id int64, upd VenueUpdate) (*models.Venue, error) {
	venue, err := s.activeFromStore(ctx, id, "update_venue")
	if err != nil {
		return nil, err
	}

	applyString(&venue.Name, upd.Name)
	applyString(&venue.Address, upd.Address)
	applyString(&venue.City, upd.City)
	applyString(&venue.State, upd.State)
	applyString(&venue.ZipCode, upd.ZipCode)
	applyString(&venue.ContactNumber, upd.ContactNumber)
	applyString(&venue.Email, upd.Email)
	if upd.PricePerHour != nil {
		venue.PricePerHour = *upd.PricePerHour
	}
	if upd.NumberOfPitches != nil {
		venue.NumberOfPitches = *upd.NumberOfPitches
	}
	venue.Name = strings.TrimSpace(venue.Name)
	if err := validateVenue(venue); err != nil {
		return nil, err
	}

	if err := s.save(ctx, venue, "update_venue"); err != nil {
		return nil, err
	}
	return venue, nil
}

// Delete soft-deletes the venue. Existing bookings are untouched.
func (s *VenueService) Delete(ctx context.Context, id int64) error {
	venue, err := s.activeFromStore(ctx, id, "delete_venue")
	if err != nil {
		return err
	}
	venue.IsActive = false
	return s.save(ctx, venue, "delete_venue")
}

func (s *VenueService) AssignManager(ctx context.Context, venueID int64, userID string) (*models.ParkManager, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if _, err := s.activeFromStore(ctx, venueID, "assign_manager"); err != nil {
		return nil, err
	}
	if s.users != nil {
		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			s.logger.Error().Err(err).Str("op", "assign_manager").Str("user_id", userID).Msg("storage error")
			return nil, err
		}
		if user == nil || !user.IsActive {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
	}

	manager := &models.ParkManager{UserID: userID, VenueID: venueID, AssignedDate: models.DateOnly(s.now())}
	if err := s.store.AssignParkManager(ctx, manager); err != nil {
		s.logger.Error().Err(err).Str("op", "assign_manager").Int64("venue_id", venueID).Str("user_id", userID).Msg("storage error")
		return nil, err
	}
	return manager, nil
}

func (s *VenueService) ListManagers(ctx context.Context, venueID int64) ([]models.ParkManager, error) {
	if _, err := s.activeFromStore(ctx, venueID, "list_managers"); err != nil {
		return nil, err
	}
	managers, err := s.store.ListParkManagers(ctx, venueID)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "list_managers").Int64("venue_id", venueID).Msg("storage error")
		return nil, err
	}
	return managers, nil
}

// activeFromStore bypasses the cache so writes start from the stored row.
func (s *VenueService) activeFromStore(ctx context.Context, id int64, op string) (*models.Venue, error) {
	venue, err := s.store.GetVenue(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("op", op).Int64("venue_id", id).Msg("storage error")
		return nil, err
	}
	if venue == nil || !venue.IsActive {
		return nil, fmt.Errorf("%w: venue %d", domain.ErrNotFound, id)
	}
	return venue, nil
}

func (s *VenueService) save(ctx context.Context, venue *models.Venue, op string) error {
	now := s.now().UTC()
	venue.UpdatedAt = &now
	if err := s.store.UpdateVenue(ctx, venue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: venue %d", domain.ErrNotFound, venue.ID)
		}
		s.logger.Error().Err(err).Str("op", op).Int64("venue_id", venue.ID).Msg("storage error")
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateVenue(ctx, venue.ID); err != nil {
			s.logger.Warn().Err(err).Int64("venue_id", venue.ID).Msg("venue cache invalidation failed")
		}
	}
	return nil
}

func validateVenue(v *models.Venue) error {
	switch {
	case v.Name == "":
		return fmt.Errorf("%w: venue name is required", domain.ErrInvalidInput)
	case v.PricePerHour < 0:
		return fmt.Errorf("%w: price per hour must not be negative", domain.ErrInvalidInput)
	case v.NumberOfPitches < 1:
		return fmt.Errorf("%w: a venue needs at least one pitch", domain.ErrInvalidInput)
	}
	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
