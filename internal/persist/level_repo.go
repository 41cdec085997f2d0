package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/level"
)

// LevelRepo stores levels in Postgres. It implements level.Store.
type LevelRepo struct {
	db  *DB
	log *zap.Logger
}

var _ level.Store = (*LevelRepo)(nil)

func NewLevelRepo(db *DB, log *zap.Logger) *LevelRepo {
	return &LevelRepo{db: db, log: log}
}

// Save upserts the level. Content with an unchanged checksum is skipped;
// every real write bumps the revision and records it.
func (r *LevelRepo) Save(ctx context.Context, name string, raw []byte) (bool, error) {
	if err := level.ValidateName(name); err != nil {
		return false, err
	}
	sum := level.Checksum(raw)
	tiles, err := countTiles(raw)
	if err != nil {
		return false, err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("level save begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		id       uuid.UUID
		old      int64
		revision int
	)
	err = tx.QueryRow(ctx,
		`SELECT id, checksum, revision FROM levels WHERE name = $1 FOR UPDATE`, name,
	).Scan(&id, &old, &revision)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.New()
		revision = 1
		if _, err := tx.Exec(ctx,
			`INSERT INTO levels (id, name, data, checksum, tiles, revision)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, name, raw, int64(sum), tiles, revision,
		); err != nil {
			return false, fmt.Errorf("level insert: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("level lookup: %w", err)
	case uint64(old) == sum:
		return false, nil
	default:
		revision++
		if _, err := tx.Exec(ctx,
			`UPDATE levels SET data = $2, checksum = $3, tiles = $4, revision = $5, updated_at = now()
			 WHERE id = $1`,
			id, raw, int64(sum), tiles, revision,
		); err != nil {
			return false, fmt.Errorf("level update: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO level_revisions (level_id, revision, checksum, tiles) VALUES ($1, $2, $3, $4)`,
		id, revision, int64(sum), tiles,
	); err != nil {
		return false, fmt.Errorf("level revision: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("level save commit: %w", err)
	}
	r.log.Debug("level stored", zap.String("level", name), zap.Int("revision", revision))
	return true, nil
}

func (r *LevelRepo) Load(ctx context.Context, name string) ([]byte, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT data FROM levels WHERE name = $1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", level.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("level load %s: %w", name, err)
	}
	return raw, nil
}

func (r *LevelRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name FROM levels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("level list: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("level list: %w", err)
	}
	return names, nil
}

func (r *LevelRepo) Info(ctx context.Context, name string) (*level.Info, error) {
	info := &level.Info{}
	var sum int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, tiles, revision, checksum, updated_at FROM levels WHERE name = $1`, name,
	).Scan(&info.Name, &info.Tiles, &info.Revision, &sum, &info.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", level.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("level info %s: %w", name, err)
	}
	info.Checksum = uint64(sum)
	return info, nil
}

// Delete removes a level and its revision history.
func (r *LevelRepo) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM levels WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete level %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", level.ErrNotFound, name)
	}
	r.log.Debug("level deleted", zap.String("level", name))
	return nil
}

func countTiles(raw []byte) (int, error) {
	var f struct {
		TileInfos []json.RawMessage `json:"tileInfos"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("level document: %w", err)
	}
	return len(f.TileInfos), nil
}
