package reviews

import (
	"context"
	"errors"

	"vibeshop.com/app/internal/docstore"
)

var ErrNotFound = errors.New("review not found")

type Repo struct{ store docstore.Store }

func NewRepo(store docstore.Store) *Repo { return &Repo{store: store} }

// List returns every review, newest first.
func (r *Repo) List(ctx context.Context) ([]Review, error) {
	return r.query(ctx, docstore.Query{OrderBy: "createdAt", Desc: true})
}

func (r *Repo) ListByStatus(ctx context.Context, st Status, limit int) ([]Review, error) {
	return r.query(ctx, docstore.Query{
		Where:   []docstore.Cond{docstore.Where("status", string(st))},
		OrderBy: "createdAt",
		Desc:    true,
		Limit:   limit,
	})
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Review, error) {
	return r.query(ctx, docstore.Query{
		Where:   []docstore.Cond{docstore.Where("userId", userID)},
		OrderBy: "createdAt",
		Desc:    true,
	})
}

func (r *Repo) Get(ctx context.Context, id string) (Review, error) {
	d, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, err
	}
	return FromDocument(d)
}

func (r *Repo) Add(ctx context.Context, data docstore.Data) (string, error) {
	return r.store.Add(ctx, Collection, data)
}

func (r *Repo) SetStatus(ctx context.Context, id string, st Status) error {
	err := r.store.Update(ctx, Collection, id, docstore.Data{"status": string(st)})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}

func (r *Repo) query(ctx context.Context, q docstore.Query) ([]Review, error) {
	docs, err := r.store.Query(ctx, Collection, q)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, FromDocument)
}
