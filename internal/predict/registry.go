package predict

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrModelNotFound indicates no persisted model exists for the key.
var ErrModelNotFound = errors.New("model not found")

// Registry persists model artifacts as JSON files keyed by entity (and
// optional materia) plus a monotonically increasing version. Retraining
// supersedes, it never rewrites an existing artifact.
type Registry struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex
}

// NewRegistry returns a registry rooted at dir, creating it if needed.
func NewRegistry(dir string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model registry dir: %w", err)
	}
	return &Registry{dir: dir, logger: logger.Named("registry")}, nil
}

// modelKey hex-encodes the entity/materia pair so arbitrary names never
// collide with or escape the filesystem layout.
func modelKey(entityID, materia string) string {
	key := entityID
	if materia != "" {
		key += "|" + materia
	}
	return hex.EncodeToString([]byte(key))
}

// Save assigns the next version for the model's key and writes the
// artifact. The returned model carries the assigned version.
func (r *Registry) Save(m *Model) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Join(r.dir, modelKey(m.Info.EntityID, m.Info.Materia))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	versions, err := listVersions(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	saved := *m
	saved.Info.Version = next

	data, err := json.MarshalIndent(&saved, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("v%d.json", next))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write model artifact: %w", err)
	}

	r.logger.Info("model artifact saved",
		zap.String("entity_id", m.Info.EntityID),
		zap.String("materia", m.Info.Materia),
		zap.Int("version", next),
		zap.Bool("trivial", m.Info.Trivial))
	return &saved, nil
}

// Latest loads the highest persisted version for the key.
func (r *Registry) Latest(entityID, materia string) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Join(r.dir, modelKey(entityID, materia))
	versions, err := listVersions(dir)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("entity %q materia %q: %w", entityID, materia, ErrModelNotFound)
	}
	return readModel(filepath.Join(dir, fmt.Sprintf("v%d.json", versions[len(versions)-1])))
}

// Load reads one specific persisted version.
func (r *Registry) Load(entityID, materia string, version int) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.dir, modelKey(entityID, materia), fmt.Sprintf("v%d.json", version))
	m, err := readModel(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("entity %q materia %q v%d: %w", entityID, materia, version, ErrModelNotFound)
	}
	return m, err
}

// Versions lists the persisted versions for a key, ascending.
func (r *Registry) Versions(entityID, materia string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return listVersions(filepath.Join(r.dir, modelKey(entityID, materia)))
}

func listVersions(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model dir: %w", err)
	}

	var versions []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "v") || !strings.HasSuffix(name, ".json") {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "v"), ".json"))
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

func readModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corrupt model artifact %s: %w", path, err)
	}
	if len(m.Info.FeatureNames) == 0 {
		return nil, fmt.Errorf("corrupt model artifact %s: missing feature names", path)
	}
	return &m, nil
}
