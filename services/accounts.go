// path: services/accounts.go
package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

// AccountService manages UserAccount profiles and the leaderboard.
type AccountService struct {
	identity ports.IdentityProvider
	users    ports.UserRepository
	logger   *slog.Logger
	nowFn    func() time.Time
}

func NewAccountService(identity ports.IdentityProvider, users ports.UserRepository, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{identity: identity, users: users, logger: logger, nowFn: time.Now}
}

// Create registers the account of the signed-in user with zeroed counters.
func (s *AccountService) Create(ctx context.Context, name, username string) (models.UserAccount, error) {
	user, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return models.UserAccount{}, ErrNotSignedIn
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = user.DisplayName
	}
	if err := models.ValidateName(name); err != nil {
		return models.UserAccount{}, precondition(err.Error())
	}
	username = strings.TrimSpace(username)
	if err := models.ValidateUsername(username); err != nil {
		return models.UserAccount{}, precondition(err.Error())
	}

	acct := models.UserAccount{
		ID:        user.ID,
		Name:      name,
		Username:  username,
		Email:     user.Email,
		CreatedAt: s.nowFn().UTC(),
	}
	err := s.users.Create(ctx, acct)
	if errors.Is(err, ports.ErrAlreadyExists) {
		return models.UserAccount{}, precondition("username is taken or account already exists")
	}
	if err != nil {
		return models.UserAccount{}, unknown("could not create the account", err)
	}
	s.logger.InfoContext(ctx, "account created", "user_id", acct.ID, "username", acct.Username)
	return acct, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (models.UserAccount, error) {
	acct, err := s.users.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return models.UserAccount{}, ErrAccountNotFound
	}
	if err != nil {
		return models.UserAccount{}, unknown("could not load the account", err)
	}
	return acct, nil
}

// Me returns the account of the signed-in user.
func (s *AccountService) Me(ctx context.Context) (models.UserAccount, error) {
	user, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return models.UserAccount{}, ErrNotSignedIn
	}
	return s.Get(ctx, user.ID)
}

// Leaderboard ranks users by points, highest first.
func (s *AccountService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	users, err := s.users.TopByPoints(ctx, clampLimit(limit))
	if err != nil {
		return nil, unknown("could not load the leaderboard", err)
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Points > users[j].Points })

	out := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, models.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.Username,
			Points:   u.Points,
			Cleaned:  u.Cleaned,
		})
	}
	return out, nil
}

// requireAccount fails unless userID has a UserAccount that counters can be credited to.
func requireAccount(ctx context.Context, users ports.UserRepository, userID string) error {
	_, err := users.Get(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return precondition("create your profile first")
	}
	if err != nil {
		return unknown("could not load your account", err)
	}
	return nil
}
