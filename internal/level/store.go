package level

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("level not found")
	ErrInvalidName = errors.New("invalid level name")
	ErrChecksum    = errors.New("level checksum mismatch")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateName rejects names that are not safe as file names or keys.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Store persists encoded levels by name.
type Store interface {
	// Save stores raw under name. Returns false when the stored content was
	// already identical and nothing was written.
	Save(ctx context.Context, name string, raw []byte) (bool, error)
	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Info(ctx context.Context, name string) (*Info, error)
	Delete(ctx context.Context, name string) error
}

// Info describes a stored level.
type Info struct {
	Name      string
	Tiles     int
	Revision  int // 0 when the store keeps no history
	Checksum  uint64
	UpdatedAt time.Time
}

// FileStore keeps one <name>.json file per level in a directory, next to a
// <name>.sum file holding the xxhash of the content. Levels without a .sum
// file (written by hand) load unchecked.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

func (s *FileStore) path(name string) string { return filepath.Join(s.dir, name+".json") }
func (s *FileStore) sumPath(name string) string { return filepath.Join(s.dir, name+".sum") }

// stamp returns the recorded checksum of name, if any.
func (s *FileStore) stamp(name string) (uint64, bool) {
	raw, err := os.ReadFile(s.sumPath(name))
	if err != nil {
		return 0, false
	}
	sum, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 16, 64)
	return sum, err == nil
}

func (s *FileStore) Save(_ context.Context, name string, raw []byte) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	sum := Checksum(raw)
	if old, ok := s.stamp(name); ok && old == sum {
		if cur, err := os.ReadFile(s.path(name)); err == nil && Checksum(cur) == sum {
			return false, nil
		}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("create level dir: %w", err)
	}
	if err := s.write(name, s.path(name), raw); err != nil {
		return false, err
	}
	if err := s.write(name, s.sumPath(name), []byte(strconv.FormatUint(sum, 16)+"\n")); err != nil {
		return false, err
	}
	return true, nil
}

// write replaces path atomically through a temp file and rename.
func (s *FileStore) write(name, path string, raw []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("save level %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("save level %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save level %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save level %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load level %s: %w", name, err)
	}
	if sum, ok := s.stamp(name); ok && sum != Checksum(raw) {
		return nil, fmt.Errorf("%w: %s", ErrChecksum, name)
	}
	return raw, nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Info(ctx context.Context, name string) (*Info, error) {
	raw, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("level info %s: %w", name, err)
	}
	f, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("level info %s: %w", name, err)
	}
	return &Info{
		Name:      name,
		Tiles:     len(f.TileInfos),
		Checksum:  Checksum(raw),
		UpdatedAt: st.ModTime(),
	}, nil
}

// Delete removes the level and its checksum stamp.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete level %s: %w", name, err)
	}
	if err := os.Remove(s.sumPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete level %s: %w", name, err)
	}
	return nil
}
