package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"park-ops/internal/store"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// SnapshotRow is one collection stored as JSON text.
type SnapshotRow struct {
	bun.BaseModel `bun:"table:snapshots"`

	Path      string    `bun:"path,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// DB stores collections in a SQL table. Subscriptions are served in process,
// so only writers going through this DB value are observed.
type DB struct {
	Bun     *bun.DB
	emitter *store.Emitter
}

func NewDB(b *bun.DB) *DB {
	return &DB{Bun: b, emitter: store.NewEmitter()}
}

// CreateSchema creates the snapshots table when it does not exist.
func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*SnapshotRow)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (d *DB) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if !store.KnownPath(path) {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownPath, path)
	}
	return get(ctx, d.Bun, path, false)
}

func (d *DB) Set(ctx context.Context, path string, value json.RawMessage) error {
	if !store.KnownPath(path) {
		return fmt.Errorf("%w: %s", store.ErrUnknownPath, path)
	}
	if err := put(ctx, d.Bun, path, value); err != nil {
		return err
	}
	d.emitter.Emit(store.Snapshot{Path: path, Value: value})
	return nil
}

// Update reads and writes inside one transaction, locking the row on Postgres.
func (d *DB) Update(ctx context.Context, path string, fn store.UpdateFunc) error {
	if !store.KnownPath(path) {
		return fmt.Errorf("%w: %s", store.ErrUnknownPath, path)
	}
	lock := d.Bun.Dialect().Name() == dialect.PG

	var next json.RawMessage
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := get(ctx, tx, path, lock)
		if err != nil {
			return err
		}
		next, err = fn(current)
		if err != nil {
			return err
		}
		return put(ctx, tx, path, next)
	})
	if err != nil {
		return err
	}
	d.emitter.Emit(store.Snapshot{Path: path, Value: next})
	return nil
}

func (d *DB) Subscribe(ctx context.Context, path string) (<-chan store.Snapshot, error) {
	current, err := d.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.emitter.Subscribe(ctx, path, &store.Snapshot{Path: path, Value: current}), nil
}

func get(ctx context.Context, db bun.IDB, path string, forUpdate bool) (json.RawMessage, error) {
	var row SnapshotRow
	q := db.NewSelect().
		Model(&row).
		Where("path = ?", path).
		Limit(1)
	if forUpdate {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(row.Value), nil
}

func put(ctx context.Context, db bun.IDB, path string, value json.RawMessage) error {
	if store.IsUnset(value) {
		_, err := db.NewDelete().
			Model((*SnapshotRow)(nil)).
			Where("path = ?", path).
			Exec(ctx)
		return err
	}

	row := SnapshotRow{Path: path, Value: string(value), UpdatedAt: time.Now().UTC()}
	_, err := db.NewInsert().
		Model(&row).
		On("CONFLICT (path) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
