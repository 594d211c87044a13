package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"vibeshop.com/app/internal/docstore"
)

var ErrNotFound = errors.New("user not found")

type Repo struct{ store docstore.Store }

func NewRepo(store docstore.Store) *Repo { return &Repo{store: store} }

// List returns every profile, newest first.
func (r *Repo) List(ctx context.Context) ([]User, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{OrderBy: "createdAt", Desc: true})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, FromDocument)
}

func (r *Repo) Get(ctx context.Context, id string) (User, error) {
	d, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return FromDocument(d)
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (User, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{
		Where: []docstore.Cond{docstore.Where("email", strings.ToLower(strings.TrimSpace(email)))},
		Limit: 1,
	})
	if err != nil {
		return User{}, err
	}
	if len(docs) == 0 {
		return User{}, ErrNotFound
	}
	return FromDocument(docs[0])
}

type CreateInput struct {
	ID       string
	Email    string
	Name     string
	Provider string
}

// Create stores the initial profile for a new identity.
func (r *Repo) Create(ctx context.Context, in CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultName(email)
	}
	data := docstore.Data{
		"uid":      in.ID,
		"email":    email,
		"name":     name,
		"role":     RoleUser,
		"status":   StatusActive,
		"provider": in.Provider,
	}
	if err := r.store.Set(ctx, Collection, in.ID, data); err != nil {
		return User{}, err
	}
	return r.Get(ctx, in.ID)
}

type ProfileInput struct {
	Name    string
	Phone   string
	Address string
}

func (r *Repo) UpdateProfile(ctx context.Context, id string, in ProfileInput) error {
	return r.update(ctx, id, docstore.Data{
		"name":    strings.TrimSpace(in.Name),
		"phone":   strings.TrimSpace(in.Phone),
		"address": strings.TrimSpace(in.Address),
	})
}

func (r *Repo) SetRole(ctx context.Context, id, role string) error {
	return r.update(ctx, id, docstore.Data{"role": role})
}

func (r *Repo) SetStatus(ctx context.Context, id, status string) error {
	return r.update(ctx, id, docstore.Data{"status": status})
}

func (r *Repo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, docstore.Data{"lastLoginAt": at.UTC().Format(time.RFC3339Nano)})
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}

func (r *Repo) update(ctx context.Context, id string, patch docstore.Data) error {
	err := r.store.Update(ctx, Collection, id, patch)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
