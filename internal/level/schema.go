// Package level saves and loads the committed tiles of the editor.
package level

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// TileInfo is one committed tile.
type TileInfo struct {
	X         int     `json:"x"`
	Z         int     `json:"z"`
	YRotation float64 `json:"yRotation"`
	ModelType string  `json:"modelType"`
}

// File is the level document.
type File struct {
	TileInfos []TileInfo `json:"tileInfos"`
}

// Encode renders f as indented JSON.
func Encode(f *File) ([]byte, error) {
	if f.TileInfos == nil {
		f = &File{TileInfos: []TileInfo{}}
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode level: %w", err)
	}
	return append(raw, '\n'), nil
}

// Decode parses a level document.
func Decode(raw []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode level: %w", err)
	}
	return &f, nil
}

// Checksum identifies encoded level content.
func Checksum(raw []byte) uint64 { return xxhash.Sum64(raw) }

// Validate checks that every model is known and no cell is used twice.
func (f *File) Validate(known func(model string) bool) error {
	type cell struct{ x, z int }
	seen := make(map[cell]int, len(f.TileInfos))
	for i, t := range f.TileInfos {
		if !known(t.ModelType) {
			return fmt.Errorf("tile %d: unknown model type %q", i, t.ModelType)
		}
		c := cell{t.X, t.Z}
		if j, dup := seen[c]; dup {
			return fmt.Errorf("tile %d: cell (%d, %d) already used by tile %d", i, t.X, t.Z, j)
		}
		seen[c] = i
	}
	return nil
}
