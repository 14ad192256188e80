// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/query"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockCache provides a mock implementation of outbound.Cache
type MockCache struct {
	mock.Mock
}

var _ outbound.Cache = (*MockCache)(nil)

// Get returns the cached bytes
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

// Set stores bytes
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

// Delete removes keys
func (m *MockCache) Delete(ctx context.Context, keys ...string) (int64, error) {
	args := m.Called(ctx, keys)
	return args.Get(0).(int64), args.Error(1)
}

// Keys lists keys matching pattern
func (m *MockCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	args := m.Called(ctx, pattern)
	if keys, ok := args.Get(0).([]string); ok {
		return keys, args.Error(1)
	}
	return nil, args.Error(1)
}

// DeletePrefix removes keys starting with prefix
func (m *MockCache) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

// FlushAll empties the cache
func (m *MockCache) FlushAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Ping checks the cache
func (m *MockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// SetupUnavailable makes every cache call fail with err
func (m *MockCache) SetupUnavailable(err error) {
	m.On("Get", mock.Anything, mock.Anything).Return(nil, err)
	m.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(err)
	m.On("Delete", mock.Anything, mock.Anything).Return(int64(0), err)
	m.On("Keys", mock.Anything, mock.Anything).Return(nil, err)
	m.On("DeletePrefix", mock.Anything, mock.Anything).Return(int64(0), err)
	m.On("FlushAll", mock.Anything).Return(err)
	m.On("Ping", mock.Anything).Return(err)
}

// MockDishRepository provides a mock implementation of outbound.DishRepository
type MockDishRepository struct {
	mock.Mock
}

var _ outbound.DishRepository = (*MockDishRepository)(nil)

func dish(args mock.Arguments) (*catalog.Dish, error) {
	if d, ok := args.Get(0).(*catalog.Dish); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func dishes(args mock.Arguments) ([]*catalog.Dish, error) {
	if d, ok := args.Get(0).([]*catalog.Dish); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create stores a dish
func (m *MockDishRepository) Create(ctx context.Context, d *catalog.Dish, lines []catalog.IngredientLine) error {
	return m.Called(ctx, d, lines).Error(0)
}

// Update saves a dish
func (m *MockDishRepository) Update(ctx context.Context, d *catalog.Dish, lines []catalog.IngredientLine) error {
	return m.Called(ctx, d, lines).Error(0)
}

// Delete removes a dish
func (m *MockDishRepository) Delete(ctx context.Context, kind catalog.DishKind, id uuid.UUID) error {
	return m.Called(ctx, kind, id).Error(0)
}

// FindByID loads a dish
func (m *MockDishRepository) FindByID(ctx context.Context, kind catalog.DishKind, id uuid.UUID) (*catalog.Dish, error) {
	return dish(m.Called(ctx, kind, id))
}

// FindBySlug loads a dish by slug
func (m *MockDishRepository) FindBySlug(ctx context.Context, kind catalog.DishKind, slug string) (*catalog.Dish, error) {
	return dish(m.Called(ctx, kind, slug))
}

// FindByIDs loads several dishes
func (m *MockDishRepository) FindByIDs(ctx context.Context, kind catalog.DishKind, ids []uuid.UUID) ([]*catalog.Dish, error) {
	return dishes(m.Called(ctx, kind, ids))
}

// FindIngredientLines loads the lines of a dish
func (m *MockDishRepository) FindIngredientLines(ctx context.Context, kind catalog.DishKind, id uuid.UUID) ([]catalog.IngredientLine, error) {
	args := m.Called(ctx, kind, id)
	if lines, ok := args.Get(0).([]catalog.IngredientLine); ok {
		return lines, args.Error(1)
	}
	return nil, args.Error(1)
}

// FindMany filters dishes
func (m *MockDishRepository) FindMany(ctx context.Context, kind catalog.DishKind, pred query.Predicate, opts outbound.FindOptions) ([]*catalog.Dish, error) {
	return dishes(m.Called(ctx, kind, pred, opts))
}

// Count counts dishes
func (m *MockDishRepository) Count(ctx context.Context, kind catalog.DishKind, pred query.Predicate) (int64, error) {
	args := m.Called(ctx, kind, pred)
	return args.Get(0).(int64), args.Error(1)
}

// RankByOverlap ranks dishes by name overlap
func (m *MockDishRepository) RankByOverlap(ctx context.Context, kind catalog.DishKind, pred query.Predicate, names []string, limit, offset int) ([]outbound.DishMatch, error) {
	args := m.Called(ctx, kind, pred, names, limit, offset)
	if matches, ok := args.Get(0).([]outbound.DishMatch); ok {
		return matches, args.Error(1)
	}
	return nil, args.Error(1)
}

// FindSimilarCandidates lists dishes sharing ingredient ids
func (m *MockDishRepository) FindSimilarCandidates(ctx context.Context, kind catalog.DishKind, excludeID uuid.UUID, ingredientIDs []string) ([]*catalog.Dish, error) {
	return dishes(m.Called(ctx, kind, excludeID, ingredientIDs))
}

// IncrementCounter moves a counter
func (m *MockDishRepository) IncrementCounter(ctx context.Context, kind catalog.DishKind, id uuid.UUID, counter outbound.Counter, delta int) error {
	return m.Called(ctx, kind, id, counter, delta).Error(0)
}

// CountReferencing counts dishes listing an ingredient
func (m *MockDishRepository) CountReferencing(ctx context.Context, ingredientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ingredientID)
	return args.Get(0).(int64), args.Error(1)
}

// MockProfileRepository provides a mock implementation of outbound.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

var _ outbound.ProfileRepository = (*MockProfileRepository)(nil)

// FindByUserID loads a profile
func (m *MockProfileRepository) FindByUserID(ctx context.Context, userID string) (*user.DietProfile, error) {
	args := m.Called(ctx, userID)
	if p, ok := args.Get(0).(*user.DietProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// Upsert writes a profile
func (m *MockProfileRepository) Upsert(ctx context.Context, p *user.DietProfile) error {
	return m.Called(ctx, p).Error(0)
}

// RecordingEventHandler collects handled events
type RecordingEventHandler struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Handle records event
func (h *RecordingEventHandler) Handle(_ context.Context, event shared.DomainEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

// Events returns the recorded events in order
func (h *RecordingEventHandler) Events() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.events))
	copy(out, h.events)
	return out
}

// Names returns the recorded event names in order
func (h *RecordingEventHandler) Names() []string {
	events := h.Events()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.EventName())
	}
	return names
}

// Reset forgets all recorded events
func (h *RecordingEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}

// RecordingMetrics counts metric calls by label
type RecordingMetrics struct {
	mu            sync.Mutex
	Invalidations map[string]int
	Searches      map[string]int
	Mutations     map[string]int
}

// NewRecordingMetrics creates an empty recorder
func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		Invalidations: make(map[string]int),
		Searches:      make(map[string]int),
		Mutations:     make(map[string]int),
	}
}

// Invalidation counts an invalidation outcome
func (r *RecordingMetrics) Invalidation(event, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Invalidations[event+":"+status]++
}

// SearchServed counts a search by source
func (r *RecordingMetrics) SearchServed(kind, source string, _ int64, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Searches[kind+":"+source]++
}

// CatalogMutation counts a catalog write
func (r *RecordingMetrics) CatalogMutation(entity, operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Mutations[entity+":"+operation]++
}

// Count returns the value recorded under key in m
func (r *RecordingMetrics) Count(m map[string]int, key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return m[key]
}
