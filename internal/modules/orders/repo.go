package orders

import (
	"context"
	"errors"

	"vibeshop.com/app/internal/docstore"
)

type Repo struct{ store docstore.Store }

func NewRepo(store docstore.Store) *Repo { return &Repo{store: store} }

// List returns every order, newest first.
func (r *Repo) List(ctx context.Context) ([]Order, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{OrderBy: "createdAt", Desc: true})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, FromDocument)
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{
		Where:   []docstore.Cond{docstore.Where("userId", userID)},
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, FromDocument)
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	d, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return FromDocument(d)
}

// FindByNumber looks an order up by the number handed to the payment widget.
func (r *Repo) FindByNumber(ctx context.Context, number string) (Order, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{
		Where: []docstore.Cond{docstore.Where("orderNumber", number)},
		Limit: 1,
	})
	if err != nil {
		return Order{}, err
	}
	if len(docs) == 0 {
		return Order{}, ErrNotFound
	}
	return FromDocument(docs[0])
}

func (r *Repo) Create(ctx context.Context, data docstore.Data) (string, error) {
	return r.store.Add(ctx, Collection, data)
}

func (r *Repo) modify(ctx context.Context, id string, fn func(docstore.Data) (docstore.Data, error)) error {
	err := r.store.Modify(ctx, Collection, id, fn)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) AddEvent(ctx context.Context, e Event) error {
	_, err := r.store.Add(ctx, EventsCollection, docstore.Data{
		"orderId": e.OrderID,
		"from":    string(e.From),
		"to":      string(e.To),
		"actorId": e.ActorID,
		"note":    e.Note,
	})
	return err
}

// Events returns the transitions of one order, oldest first.
func (r *Repo) Events(ctx context.Context, orderID string) ([]Event, error) {
	docs, err := r.store.Query(ctx, EventsCollection, docstore.Query{
		Where:   []docstore.Cond{docstore.Where("orderId", orderID)},
		OrderBy: "createdAt",
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, EventFromDocument)
}
