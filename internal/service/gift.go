// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services validate, authorize,
// and orchestrate; repositories read and write the database. Services are
// written against the repository interfaces, so tests inject in-memory
// mocks and no service imports the sqlite package.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/apperror"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/model"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/repository"
)

const (
	MaxGiftNameLength        = 100
	MaxGiftDescriptionLength = 2000
)

// GiftService handles catalog reads, admin catalog mutation, and the claim
// operation.
type GiftService struct {
	gifts  repository.GiftRepository
	logger *slog.Logger
}

// NewGiftService creates a GiftService.
func NewGiftService(gifts repository.GiftRepository, logger *slog.Logger) *GiftService {
	return &GiftService{
		gifts:  gifts,
		logger: logger,
	}
}

// Stats are the aggregate counts shown on the admin report.
type Stats struct {
	Total     int `json:"total"`
	Claimed   int `json:"claimed"`
	Available int `json:"available"`
}

// ListFor returns the catalog projection for the caller: admins see every
// gift with the claimant resolved; guests see only what's still available.
func (s *GiftService) ListFor(ctx context.Context, caller *model.User) ([]model.Gift, error) {
	if caller.IsAdmin {
		gifts, err := s.gifts.ListAll(ctx)
		if err != nil {
			s.logger.Error("failed to list gifts for admin", slog.String("error", err.Error()))
			return nil, fmt.Errorf("listing gifts: %w", err)
		}
		return gifts, nil
	}

	gifts, err := s.gifts.ListAvailable(ctx)
	if err != nil {
		s.logger.Error("failed to list available gifts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing gifts: %w", err)
	}
	return gifts, nil
}

// Claim is the claim operation: the caller irreversibly reserves one gift.
//
// ELIGIBILITY GATE (checked here, before the store is touched):
//   - admins don't claim gifts
//   - a caller who already holds a claim is rejected with Forbidden
//
// The gate is a quota/UX check. Correctness does not depend on it: the
// repository's Claim transaction independently guarantees at most one
// claimant per gift and at most one gift per user, even if this gate is
// bypassed or the caller snapshot is stale.
//
// A lost race surfaces as ErrUnavailable and is terminal for this request;
// the caller picks another gift. No retries.
func (s *GiftService) Claim(ctx context.Context, caller *model.User, giftID string) (*model.Gift, error) {
	giftID = strings.TrimSpace(giftID)
	if giftID == "" {
		return nil, apperror.ValidationFailed("id", "gift ID is required")
	}

	if caller.IsAdmin {
		return nil, apperror.Forbidden("administrators cannot choose gifts")
	}
	if caller.HasChosenGift {
		return nil, apperror.Forbidden("you have already chosen a gift")
	}

	gift, err := s.gifts.Claim(ctx, giftID, caller.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("gift claimed",
		slog.String("giftID", gift.ID),
		slog.String("name", gift.Name),
		slog.String("userID", caller.ID),
	)

	return gift, nil
}

// Create adds a gift to the catalog. Admin only.
func (s *GiftService) Create(ctx context.Context, caller *model.User, name, description string) (*model.Gift, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "gift name is required")
	}
	if len(name) > MaxGiftNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("gift name must be %d characters or less", MaxGiftNameLength))
	}
	if len(description) > MaxGiftDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxGiftDescriptionLength))
	}

	gift := &model.Gift{
		Name:        name,
		Description: strings.TrimSpace(description),
	}

	if err := s.gifts.Create(ctx, gift); err != nil {
		s.logger.Error("failed to create gift",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating gift: %w", err)
	}

	s.logger.Info("gift created",
		slog.String("id", gift.ID),
		slog.String("name", gift.Name),
	)

	return gift, nil
}

// Update edits name/description of a gift that nobody has claimed yet.
// Admin only; a claimed gift is frozen and answers ErrUnavailable.
func (s *GiftService) Update(ctx context.Context, caller *model.User, id, name, description string) (*model.Gift, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "gift ID is required")
	}

	gift, err := s.gifts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gift.Available {
		return nil, apperror.Unavailable("cannot edit a gift that has already been chosen")
	}

	// Empty name means "keep the current one".
	if name = strings.TrimSpace(name); name != "" {
		if len(name) > MaxGiftNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("gift name must be %d characters or less", MaxGiftNameLength))
		}
		gift.Name = name
	}

	if len(description) > MaxGiftDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxGiftDescriptionLength))
	}
	gift.Description = strings.TrimSpace(description)

	if err := s.gifts.Update(ctx, gift); err != nil {
		s.logger.Error("failed to update gift",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating gift: %w", err)
	}

	s.logger.Info("gift updated",
		slog.String("id", gift.ID),
		slog.String("name", gift.Name),
	)

	return gift, nil
}

// Delete removes a gift that nobody has claimed yet. Admin only; a claimed
// gift is never deleted.
func (s *GiftService) Delete(ctx context.Context, caller *model.User, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "gift ID is required")
	}

	gift, err := s.gifts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !gift.Available {
		return apperror.Unavailable("cannot delete a gift that has already been chosen")
	}

	if err := s.gifts.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("gift deleted", slog.String("id", id))
	return nil
}

// Report returns every gift (claimed first, most recent claim first) plus
// the aggregate counts. Admin only.
func (s *GiftService) Report(ctx context.Context, caller *model.User) ([]model.Gift, Stats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, Stats{}, err
	}

	gifts, err := s.gifts.ListForReport(ctx)
	if err != nil {
		s.logger.Error("failed to build report", slog.String("error", err.Error()))
		return nil, Stats{}, fmt.Errorf("building report: %w", err)
	}

	stats := Stats{Total: len(gifts)}
	for _, g := range gifts {
		if g.Available {
			stats.Available++
		} else {
			stats.Claimed++
		}
	}

	return gifts, stats, nil
}

func requireAdmin(caller *model.User) error {
	if !caller.IsAdmin {
		return apperror.Forbidden("administrator access required")
	}
	return nil
}
