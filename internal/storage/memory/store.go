// Package memory is an in-process storage.Store used by tests and by
// STORAGE_DRIVER=memory for local runs. Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/pagination"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users, cases and the dashboard catalogue in maps guarded by a
// single lock.
type Store struct {
	mu          sync.RWMutex
	nextUserID  int64
	users       map[int64]models.User
	cases       map[string]models.Case
	dashboards  []models.Dashboard
	modules     []models.Module
	seedVersion int
	now         func() time.Time
}

// New returns an empty store holding the default catalogue.
func New() *Store {
	dashboards, modules := storage.Catalog()
	return &Store{
		nextUserID: 1,
		users:      map[int64]models.User{},
		cases:      map[string]models.Case{},
		dashboards: dashboards,
		modules:    modules,
		now:        time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() {}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// CreateUser inserts user, rejecting duplicate usernames or emails.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.ID = s.nextUserID
	s.nextUserID++
	user.CreatedAt = s.now().UTC()
	user = cloneUser(user)
	s.users[user.ID] = user
	return cloneUser(user), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) FindByUsernameOrEmail(_ context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.User
	for _, u := range s.users {
		if !strings.EqualFold(u.Username, identifier) && !strings.EqualFold(u.Email, identifier) {
			continue
		}
		if found == nil || u.ID < found.ID {
			found = &u
		}
	}
	if found == nil {
		return models.User{}, storage.ErrNotFound
	}
	return cloneUser(*found), nil
}

// ListUsers returns a page of users ordered by id.
func (s *Store) ListUsers(_ context.Context, p pagination.Params) ([]models.User, int, error) {
	s.mu.RLock()
	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, cloneUser(u))
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pagination.Slice(all, p), len(all), nil
}

func (s *Store) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	for _, u := range s.users {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.Username = existing.Username
	user.CreatedAt = existing.CreatedAt
	s.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CreateCase(_ context.Context, c models.Case) (models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cases[c.CaseNumber]; ok && existing.DeletedAt == nil {
		return models.Case{}, storage.ErrAlreadyExists
	}
	now := s.now().UTC()
	c.CreatedAt, c.UpdatedAt, c.DeletedAt = now, now, nil
	s.cases[c.CaseNumber] = c
	return c, nil
}

func (s *Store) GetCase(_ context.Context, caseNumber string) (models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseNumber]
	if !ok || c.DeletedAt != nil {
		return models.Case{}, storage.ErrNotFound
	}
	return c, nil
}

// ListCases filters and orders live cases with the cases package, then pages.
func (s *Store) ListCases(_ context.Context, q storage.CaseQuery) ([]models.Case, int, error) {
	s.mu.RLock()
	live := make([]models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		if c.DeletedAt == nil {
			live = append(live, c)
		}
	}
	s.mu.RUnlock()

	matched := cases.Apply(live, q.Filter)
	order := q.Order
	if order.Field == "" {
		order = cases.DefaultOrder
	}
	if order.Field == cases.SortSurvivalDays {
		// survival shrinks as opDate grows
		order = cases.Order{Field: cases.SortOpDate, Desc: !order.Desc}
	}
	cases.Sort(matched, order)
	if q.Page == nil {
		return matched, len(matched), nil
	}
	return pagination.Slice(matched, *q.Page), len(matched), nil
}

func (s *Store) UpdateCase(_ context.Context, c models.Case) (models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.cases[c.CaseNumber]
	if !ok || existing.DeletedAt != nil {
		return models.Case{}, storage.ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now().UTC()
	c.DeletedAt = nil
	s.cases[c.CaseNumber] = c
	return c, nil
}

func (s *Store) DeleteCase(_ context.Context, caseNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseNumber]
	if !ok || c.DeletedAt != nil {
		return storage.ErrNotFound
	}
	now := s.now().UTC()
	c.DeletedAt = &now
	s.cases[caseNumber] = c
	return nil
}

func (s *Store) UpsertCases(_ context.Context, list []models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for _, c := range list {
		if existing, ok := s.cases[c.CaseNumber]; ok {
			c.CreatedAt = existing.CreatedAt
		} else {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		c.DeletedAt = nil
		s.cases[c.CaseNumber] = c
	}
	return nil
}

func (s *Store) ListDashboards(_ context.Context) ([]models.Dashboard, error) {
	out := make([]models.Dashboard, len(s.dashboards))
	copy(out, s.dashboards)
	return out, nil
}

func (s *Store) GetDashboard(_ context.Context, key string) (models.Dashboard, error) {
	for _, d := range s.dashboards {
		if d.Key == key {
			return d, nil
		}
	}
	return models.Dashboard{}, storage.ErrNotFound
}

func (s *Store) ListModules(_ context.Context) (map[int64][]models.Module, error) {
	out := map[int64][]models.Module{}
	for _, m := range s.modules {
		out[m.DashboardID] = append(out[m.DashboardID], m)
	}
	return out, nil
}

func (s *Store) SeedVersion(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seedVersion, nil
}

func (s *Store) SetSeedVersion(_ context.Context, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedVersion = version
	return nil
}

func cloneUser(u models.User) models.User {
	u.Permissions = append([]models.TabPermission{}, u.Permissions...)
	u.Dashboards = append([]string{}, u.Dashboards...)
	return u
}
