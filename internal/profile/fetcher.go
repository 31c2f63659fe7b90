// Package profile holds the signed-in user's profile and applies edits to it.
package profile

import (
	"context"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/state"
)

const msgUpdateInfoFailed = "Failed to update user info"

type API interface {
	GetProfile(ctx context.Context) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, req api.ProfileRequest) (domain.UserProfile, error)
	UpdateUserInfo(ctx context.Context, req api.UserInfoRequest) (api.StatusResponse, error)
}

type Fetcher struct {
	api     API
	profile *state.Value[domain.UserProfile]
	log     *slog.Logger
}

func NewFetcher(client API, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		api:     client,
		profile: state.NewValue(domain.UserProfile{}),
		log:     log.With(slog.String("component", "profile")),
	}
}

func (f *Fetcher) Fetch(ctx context.Context) error {
	p, err := f.api.GetProfile(ctx)
	if err != nil {
		f.log.WarnContext(ctx, "failed to fetch profile", slog.Any("error", err))
		return err
	}
	f.profile.Set(p)
	return nil
}

func (f *Fetcher) Profile() domain.UserProfile {
	return f.profile.Get()
}

// Draft returns a copy to edit. Changes reach the server only through Save.
func (f *Fetcher) Draft() domain.UserProfile {
	return f.profile.Get()
}

// Save sends draft to the server; the echoed profile becomes authoritative.
// An empty password leaves the password unchanged.
func (f *Fetcher) Save(ctx context.Context, draft domain.UserProfile, password string) error {
	updated, err := f.api.UpdateProfile(ctx, api.ProfileRequest{
		FirstName:     draft.FirstName,
		MiddleInitial: draft.MiddleInitial,
		LastName:      draft.LastName,
		Email:         draft.Email,
		Birthdate:     draft.Birthdate,
		Address:       draft.Address,
		Password:      password,
	})
	if err != nil {
		return err
	}
	f.profile.Set(updated)
	f.log.InfoContext(ctx, "profile updated")
	return nil
}

// UpdateContact changes the shipping contact fields, then re-reads the
// profile.
func (f *Fetcher) UpdateContact(ctx context.Context, contactNumber, address, birthdate string) error {
	resp, err := f.api.UpdateUserInfo(ctx, api.UserInfoRequest{
		ContactNumber: contactNumber,
		Address:       address,
		Birthdate:     birthdate,
	})
	if err != nil {
		return err
	}
	if err := resp.Err(msgUpdateInfoFailed); err != nil {
		return err
	}
	return f.Fetch(ctx)
}

func (f *Fetcher) Subscribe() (<-chan domain.UserProfile, func()) {
	return f.profile.Subscribe()
}

func (f *Fetcher) Reset() {
	f.profile.Set(domain.UserProfile{})
}
