package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"dario.cat/mergo"
	"github.com/segmentio/ksuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is the storage model of a document.
type Row struct {
	Collection string         `gorm:"primaryKey;type:varchar(64)"`
	ID         string         `gorm:"primaryKey;type:varchar(64)"`
	Data       datatypes.JSON `gorm:"type:json;not null"`
	CreatedAt  time.Time      `gorm:"not null;index:ix_documents_created_at"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

func (Row) TableName() string { return "documents" }

func (r Row) document() (Document, error) {
	data := Data{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &data); err != nil {
			return Document{}, fmt.Errorf("docstore: decode %s/%s: %w", r.Collection, r.ID, err)
		}
	}
	if data == nil {
		data = Data{}
	}
	return Document{
		Collection: r.Collection,
		ID:         r.ID,
		Data:       data,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

type Repo struct {
	db    *gorm.DB
	clock *Clock
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db, clock: NewClock(nil)} }

// WithClock replaces the time source, for tests.
func (r *Repo) WithClock(c *Clock) *Repo { r.clock = c; return r }

func (r *Repo) lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *Repo) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	tx := r.db.WithContext(ctx).Model(&Row{}).Where("collection = ?", collection)
	for _, c := range q.Where {
		if !fieldName.MatchString(c.Field) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, c.Field)
		}
		tx = tx.Where(datatypes.JSONQuery("data").Equals(c.Value, c.Field))
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	switch q.OrderBy {
	case "":
		tx = tx.Order("created_at ASC")
	case "createdAt":
		tx = tx.Order("created_at " + dir)
	case "updatedAt":
		tx = tx.Order("updated_at " + dir)
	default:
		if !fieldName.MatchString(q.OrderBy) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, q.OrderBy)
		}
		tx = tx.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "JSON_EXTRACT(data, ?) " + dir,
			Vars: []any{"$." + q.OrderBy},
		}})
	}
	tx = tx.Order("id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var rows []Row
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		d, err := row.document()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, collection, id string) (Document, error) {
	var row Row
	err := r.db.WithContext(ctx).First(&row, "collection = ? AND id = ?", collection, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return row.document()
}

func (r *Repo) Add(ctx context.Context, collection string, data Data) (string, error) {
	id := ksuid.New().String()
	body, err := marshal(data)
	if err != nil {
		return "", err
	}
	now := r.clock.Now()
	row := Row{Collection: collection, ID: id, Data: body, CreatedAt: now, UpdatedAt: now}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) Set(ctx context.Context, collection, id string, data Data) error {
	body, err := marshal(data)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.clock.Now()
		var existing Row
		err := r.lockForUpdate(tx).First(&existing, "collection = ? AND id = ?", collection, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&Row{Collection: collection, ID: id, Data: body, CreatedAt: now, UpdatedAt: now}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&Row{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": body, "updated_at": now}).Error
	})
}

func (r *Repo) Update(ctx context.Context, collection, id string, patch Data) error {
	return r.Modify(ctx, collection, id, func(cur Data) (Data, error) {
		if err := mergo.Merge(&cur, normalize(patch), mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("docstore: merge %s/%s: %w", collection, id, err)
		}
		return cur, nil
	})
}

// Modify replaces the body with fn(body) while the row is locked. An error
// from fn aborts without writing.
func (r *Repo) Modify(ctx context.Context, collection, id string, fn func(Data) (Data, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Row
		err := r.lockForUpdate(tx).First(&row, "collection = ? AND id = ?", collection, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		doc, err := row.document()
		if err != nil {
			return err
		}
		next, err := fn(doc.Data)
		if err != nil {
			return err
		}
		body, err := marshal(next)
		if err != nil {
			return err
		}
		return tx.Model(&Row{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": body, "updated_at": r.clock.Now()}).Error
	})
}

// Delete removes a document. Deleting a missing document is not an error.
func (r *Repo) Delete(ctx context.Context, collection, id string) error {
	return r.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&Row{}).Error
}

func marshal(d Data) (datatypes.JSON, error) {
	if d == nil {
		d = Data{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return datatypes.JSON(b), nil
}

// normalize round-trips a patch through JSON so merged values have the same
// shapes as values read back from storage.
func normalize(d Data) Data {
	b, err := json.Marshal(d)
	if err != nil {
		return d
	}
	out := Data{}
	if err := json.Unmarshal(b, &out); err != nil {
		return d
	}
	return out
}

var _ Store = (*Repo)(nil)
