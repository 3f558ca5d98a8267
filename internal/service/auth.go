// Package service — authentication business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/apperror"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/auth"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/config"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/model"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/repository"
)

// AuthService sits between the HTTP handlers and the user repository:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT)
type AuthService struct {
	users  repository.UserRepository
	gifts  repository.GiftRepository
	tokens *auth.TokenService
	admins config.AllowList
	logger *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	gifts repository.GiftRepository,
	tokens *auth.TokenService,
	admins config.AllowList,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		gifts:  gifts,
		tokens: tokens,
		admins: admins,
		logger: logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGoogle handles the Google OAuth callback.
//
// After the handler exchanges the code for a Google profile, this method:
//
//  1. Decides the admin flag from the ADMIN_EMAILS allow-list. The verdict
//     is re-evaluated on EVERY login and persisted, so removing an address
//     from the list demotes the account at its next authentication —
//     admin is an allow-list membership, not a one-time grant.
//  2. Upserts the user (create on first login, profile refresh after).
//  3. Issues the JWT session token.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, profile *auth.GoogleUser) (*AuthResult, error) {
	user := &model.User{
		GoogleID: profile.ID,
		Email:    profile.Email,
		Name:     profile.Name,
		PhotoURL: profile.Picture,
		IsAdmin:  s.admins.Contains(profile.Email),
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		s.logger.Error("failed to upsert user on login",
			slog.String("email", profile.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
		slog.Bool("isAdmin", user.IsAdmin),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// CurrentUser loads the caller's account for the current-user endpoint.
//
// READ-TIME RECONCILIATION:
// The claim transaction writes both sides of a claim atomically, so in
// normal operation the user row and the gift row agree. But a store that
// predates the transaction (or was edited by hand) can hold a gift with
// claimed_by=userID while the user row still says has_chosen_gift=0.
// Answering from the user row alone would let that user claim a second
// gift, so this read checks the gift side and repairs the user row when
// they disagree. The repair is best-effort: if the write fails the caller
// is still reported as having claimed.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.HasChosenGift {
		return user, nil
	}

	gift, err := s.gifts.GetByClaimant(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Nothing claimed — the common case.
			return user, nil
		}
		return nil, fmt.Errorf("checking claimed gift for user %s: %w", userID, err)
	}

	s.logger.Warn("repairing claim state on read",
		slog.String("userID", userID),
		slog.String("giftID", gift.ID),
	)

	if err := s.users.SetChosenGift(ctx, userID, gift.ID); err != nil {
		s.logger.Error("failed to repair claim state",
			slog.String("userID", userID),
			slog.String("giftID", gift.ID),
			slog.String("error", err.Error()),
		)
	}

	user.HasChosenGift = true
	user.ChosenGiftID = &gift.ID

	return user, nil
}
