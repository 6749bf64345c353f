package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"eventnotifier/internal/domain"
)

type userService struct {
	userRepo domain.UserRepository
	zones    domain.ZoneValidator
	clock    domain.Clock
}

// NewUserService creates a UserService that validates zones against zones.
func NewUserService(userRepo domain.UserRepository, zones domain.ZoneValidator, clock domain.Clock) domain.UserService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &userService{userRepo: userRepo, zones: zones, clock: clock}
}

func (s *userService) Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" || lastName == "" {
		return nil, domain.ErrNameRequired
	}
	zone, err := s.validateZone(in.TimeZone)
	if err != nil {
		return nil, err
	}
	birthday, err := domain.ParseCalendarDate(in.Birthday)
	if err != nil {
		return nil, fmt.Errorf("birthday: %w", err)
	}
	now := s.clock.Now().UTC()
	user := domain.NewUser(firstName, lastName, birthday, zone, now, now)
	if strings.TrimSpace(in.Anniversary) != "" {
		anniversary, err := domain.ParseCalendarDate(in.Anniversary)
		if err != nil {
			return nil, fmt.Errorf("anniversary: %w", err)
		}
		user.Anniversary = &anniversary
	}
	user.ID = uuid.NewString()
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateTimeZone changes only the user's zone; names and dates are immutable.
func (s *userService) UpdateTimeZone(ctx context.Context, id, zone string) (*domain.User, error) {
	zone, err := s.validateZone(zone)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	if err := s.userRepo.UpdateTimeZone(ctx, id, zone, now); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *userService) validateZone(zone string) (string, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return "", domain.ErrTimeZoneRequired
	}
	if !s.zones.Contains(zone) {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidTimeZone, zone)
	}
	return zone, nil
}

// IsValidationError reports whether err was caused by invalid user input.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidTimeZone) ||
		errors.Is(err, domain.ErrTimeZoneRequired) ||
		errors.Is(err, domain.ErrInvalidDate) ||
		errors.Is(err, domain.ErrNameRequired)
}
