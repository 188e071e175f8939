// Package bundle caches a curriculum together with its modules, lessons and
// sections so clients can read a whole study plan in one call.
package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/platform/cache"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// DefaultTTL applies when the manager is built with a non-positive TTL.
const DefaultTTL = 30 * time.Minute

const maxParallelLoads = 8

// initialGeneration stands in for a generation that was never bumped or
// has expired.
const initialGeneration = "0"

// Bundle is a curriculum and its whole document tree.
type Bundle struct {
	Curriculum domain.Curriculum `json:"curriculum"`
	Modules    []ModuleBundle    `json:"modules"`
	BuiltAt    time.Time         `json:"built_at"`
}

// ModuleBundle is a module with its lessons.
type ModuleBundle struct {
	Module  domain.Module  `json:"module"`
	Lessons []LessonBundle `json:"lessons"`
}

// LessonBundle is a lesson with its sections.
type LessonBundle struct {
	Lesson   domain.Lesson    `json:"lesson"`
	Sections []domain.Section `json:"sections"`
}

// Stats counts cache hits and misses since the manager was created.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Manager builds and caches bundles. It implements service.BundleInvalidator.
type Manager struct {
	repos  service.Repositories
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

var _ service.BundleInvalidator = (*Manager)(nil)

// NewManager creates a Manager over repos and c.
func NewManager(repos service.Repositories, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		repos:  repos,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("component", "bundle_manager"),
	}
}

// Key is the cache key of a bundle built while the user and the curriculum
// were at the given generations.
func Key(userID, curriculumID uuid.UUID, userGen, curriculumGen string) string {
	return fmt.Sprintf("%s%s:%s.%s", userPrefix(userID), curriculumID, userGen, curriculumGen)
}

func userPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("bundle:%s:", userID)
}

func userGenerationKey(userID uuid.UUID) string {
	return fmt.Sprintf("bundlegen:%s", userID)
}

func curriculumGenerationKey(userID, curriculumID uuid.UUID) string {
	return fmt.Sprintf("bundlegen:%s:%s", userID, curriculumID)
}

// generationTTL outlives every bundle cached under a generation, so an
// expired generation never resurrects an entry.
func (m *Manager) generationTTL() time.Duration {
	return 2 * m.ttl
}

func (m *Manager) generation(ctx context.Context, key string) (string, error) {
	data, err := m.cache.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrMiss):
		return initialGeneration, nil
	case err != nil:
		return "", err
	}
	return string(data), nil
}

// currentKey reads both generations. A bundle is only ever cached under the
// generations read before its documents were loaded, so an invalidation
// that lands mid-build orphans the entry instead of leaving it stale.
func (m *Manager) currentKey(ctx context.Context, userID, curriculumID uuid.UUID) (string, error) {
	userGen, err := m.generation(ctx, userGenerationKey(userID))
	if err != nil {
		return "", err
	}
	curriculumGen, err := m.generation(ctx, curriculumGenerationKey(userID, curriculumID))
	if err != nil {
		return "", err
	}
	return Key(userID, curriculumID, userGen, curriculumGen), nil
}

func (m *Manager) bump(ctx context.Context, key string) error {
	return m.cache.Set(ctx, key, []byte(uuid.NewString()), m.generationTTL())
}

// Get returns the bundle of a curriculum, building and caching it on a miss.
// Cache failures are logged and fall back to the repositories.
func (m *Manager) Get(ctx context.Context, userID, curriculumID uuid.UUID) (*Bundle, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	key, err := m.currentKey(ctx, userID, curriculumID)
	if err != nil {
		log.Warn("bundle generation read failed", "user_id", userID, "curriculum_id", curriculumID, "error", err)
	} else {
		data, err := m.cache.Get(ctx, key)
		switch {
		case err == nil:
			var b Bundle
			if jsonErr := json.Unmarshal(data, &b); jsonErr == nil {
				m.hits.Add(1)
				return &b, nil
			}
			log.Warn("discarding corrupt cached bundle", "key", key)
		case !errors.Is(err, cache.ErrMiss):
			log.Warn("bundle cache read failed", "key", key, "error", err)
		}
	}

	m.misses.Add(1)
	b, err := m.build(ctx, userID, curriculumID)
	if err != nil {
		return nil, service.NewServiceError("bundle", "get", err)
	}
	if key == "" {
		return b, nil
	}

	if data, err := json.Marshal(b); err == nil {
		if err := m.cache.Set(ctx, key, data, m.ttl); err != nil {
			log.Warn("bundle cache write failed", "key", key, "error", err)
		}
	}
	return b, nil
}

func (m *Manager) build(ctx context.Context, userID, curriculumID uuid.UUID) (*Bundle, error) {
	c, err := m.repos.Curricula.Get(ctx, store.CurriculumPath(userID, curriculumID))
	if err != nil {
		return nil, err
	}
	modules, err := m.repos.Modules.GetAll(ctx, store.ModulesPath(userID, curriculumID))
	if err != nil {
		return nil, err
	}

	b := &Bundle{Curriculum: c, Modules: make([]ModuleBundle, len(modules)), BuiltAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, mod := range modules {
		g.Go(func() error {
			lessons, err := m.repos.Lessons.GetAll(gctx, store.LessonsPath(userID, curriculumID, mod.ID))
			if err != nil {
				return err
			}
			mb := ModuleBundle{Module: mod, Lessons: make([]LessonBundle, len(lessons))}
			for j, l := range lessons {
				mb.Lessons[j] = LessonBundle{Lesson: l}
			}
			b.Modules[i] = mb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i := range b.Modules {
		mb := &b.Modules[i]
		for j := range mb.Lessons {
			lb := &mb.Lessons[j]
			g.Go(func() error {
				sections, err := m.repos.Sections.GetAll(gctx,
					store.SectionsPath(userID, curriculumID, mb.Module.ID, lb.Lesson.ID))
				if err != nil {
					return err
				}
				lb.Sections = sections
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

// Invalidate moves the curriculum to a new generation. Bundles cached under
// the old one are never read again and expire on their own.
func (m *Manager) Invalidate(ctx context.Context, userID, curriculumID uuid.UUID) error {
	return m.bump(ctx, curriculumGenerationKey(userID, curriculumID))
}

// InvalidateUser moves the user to a new generation and drops every cached
// bundle of theirs.
func (m *Manager) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	if err := m.bump(ctx, userGenerationKey(userID)); err != nil {
		return err
	}
	return m.cache.DeleteByPrefix(ctx, userPrefix(userID))
}

// Stats returns the hit and miss counters.
func (m *Manager) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}
