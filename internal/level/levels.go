package level

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/editor"
	"github.com/gridforge/editor/internal/geom"
)

// Levels saves the editor's committed tiles to a Store and rebuilds them.
type Levels struct {
	store  Store
	editor *editor.Editor
	comps  *component.Components
	known  func(model string) bool
	log    *zap.Logger
}

func New(store Store, e *editor.Editor, comps *component.Components, known func(string) bool, log *zap.Logger) *Levels {
	return &Levels{store: store, editor: e, comps: comps, known: known, log: log}
}

func (l *Levels) Store() Store { return l.store }

// Snapshot collects every entity with both Coord2 and Tile, in iteration order.
func (l *Levels) Snapshot() *File {
	f := &File{}
	for _, id := range l.editor.Tiles() {
		pos, _ := l.comps.Coords.Get(id)
		tile, _ := l.comps.Tiles.Get(id)
		f.TileInfos = append(f.TileInfos, TileInfo{
			X:         pos.X,
			Z:         pos.Z,
			YRotation: tile.YRotation,
			ModelType: tile.Model,
		})
	}
	return f
}

// Save writes the committed tiles under name and returns how many were saved.
// A level with no tiles is not written.
func (l *Levels) Save(ctx context.Context, name string) (int, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	f := l.Snapshot()
	if len(f.TileInfos) == 0 {
		l.log.Info("level save skipped, no tiles", zap.String("level", name))
		return 0, nil
	}
	raw, err := Encode(f)
	if err != nil {
		return 0, err
	}
	written, err := l.store.Save(ctx, name, raw)
	if err != nil {
		return 0, err
	}
	l.log.Info("level saved",
		zap.String("level", name),
		zap.Int("tiles", len(f.TileInfos)),
		zap.Bool("changed", written),
	)
	return len(f.TileInfos), nil
}

// Load replaces the committed tiles with the level's tiles. A level with no
// tiles leaves the current ones in place. The document is validated before
// anything is destroyed.
func (l *Levels) Load(ctx context.Context, name string) (int, error) {
	raw, err := l.store.Load(ctx, name)
	if err != nil {
		return 0, err
	}
	f, err := Decode(raw)
	if err != nil {
		return 0, fmt.Errorf("level %s: %w", name, err)
	}
	if len(f.TileInfos) == 0 {
		l.log.Info("level has no tiles", zap.String("level", name))
		return 0, nil
	}
	if err := f.Validate(l.known); err != nil {
		return 0, fmt.Errorf("level %s: %w", name, err)
	}

	removed := l.editor.Clear()
	for i, t := range f.TileInfos {
		if _, err := l.editor.Place(t.ModelType, geom.Cell{X: t.X, Z: t.Z}, t.YRotation); err != nil {
			return i, fmt.Errorf("level %s tile %d: %w", name, i, err)
		}
	}
	l.log.Info("level loaded",
		zap.String("level", name),
		zap.Int("tiles", len(f.TileInfos)),
		zap.Int("replaced", removed),
	)
	return len(f.TileInfos), nil
}

func (l *Levels) List(ctx context.Context) ([]string, error) { return l.store.List(ctx) }

func (l *Levels) Info(ctx context.Context, name string) (*Info, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return l.store.Info(ctx, name)
}

// Delete removes a saved level. Tiles placed from it stay on the grid.
func (l *Levels) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := l.store.Delete(ctx, name); err != nil {
		return err
	}
	l.log.Info("level deleted", zap.String("level", name))
	return nil
}
