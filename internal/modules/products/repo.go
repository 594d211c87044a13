package products

import (
	"context"
	"errors"
	"slices"

	"vibeshop.com/app/internal/docstore"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ store docstore.Store }

func NewRepo(store docstore.Store) *Repo { return &Repo{store: store} }

// List returns every product, most recently modified first.
func (r *Repo) List(ctx context.Context) ([]Product, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{OrderBy: "updatedAt", Desc: true})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, FromDocument)
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	d, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return FromDocument(d)
}

func (r *Repo) FindBySlug(ctx context.Context, slug string) (Product, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{
		Where: []docstore.Cond{docstore.Where("slug", slug)},
		Limit: 1,
	})
	if err != nil {
		return Product{}, err
	}
	if len(docs) == 0 {
		return Product{}, ErrNotFound
	}
	return FromDocument(docs[0])
}

// Categories returns the distinct categories in first-seen order.
func Categories(items []Product) []string {
	var out []string
	for _, p := range items {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

func (r *Repo) create(ctx context.Context, data docstore.Data) (string, error) {
	return r.store.Add(ctx, Collection, data)
}

func (r *Repo) update(ctx context.Context, id string, patch docstore.Data) error {
	err := r.store.Update(ctx, Collection, id, patch)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) modify(ctx context.Context, id string, fn func(docstore.Data) (docstore.Data, error)) error {
	err := r.store.Modify(ctx, Collection, id, fn)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}
