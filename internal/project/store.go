// Package project caches the session's projects. The cache only changes
// after the backend has accepted a change.
package project

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/pkg/domain"
)

// ErrNameRequired is returned when creating or renaming to a blank name.
var ErrNameRequired = errors.New("project name is required")

// Session is the part of the session store projects need.
type Session interface {
	Token() string
	Epoch() uint64
	HandleUnauthorized(epoch uint64)
}

// Store is a cached view of the session's projects.
type Store struct {
	sel  *backend.Selector
	sess Session
	log  zerolog.Logger

	mu       sync.RWMutex
	projects []domain.Project
	loaded   bool
}

// New returns an empty store. Call Refresh to load it.
func New(sel *backend.Selector, sess Session, log zerolog.Logger) *Store {
	return &Store{
		sel:  sel,
		sess: sess,
		log:  log.With().Str("component", "project").Logger(),
	}
}

// Refresh reloads the cache from the backend.
func (s *Store) Refresh(ctx context.Context) ([]domain.Project, error) {
	token, epoch := s.sess.Token(), s.sess.Epoch()
	projects, used, err := backend.Call(ctx, s.sel, "list projects", token,
		func(ctx context.Context, b backend.Backend) ([]domain.Project, error) {
			return b.ListProjects(ctx, token)
		})
	if err != nil {
		return nil, s.failed(used, token, epoch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess.Epoch() != epoch {
		return nil, nil
	}
	s.projects = sortByName(projects)
	s.loaded = true
	return append([]domain.Project(nil), s.projects...), nil
}

// Loaded reports whether Refresh has succeeded at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// List returns the cached projects sorted by name. Archived projects are
// left out unless all is set.
func (s *Store) List(all bool) []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if all || !p.IsArchived {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the cached project with id.
func (s *Store) Get(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// Find resolves ref as an id first, then as a case-insensitive name.
func (s *Store) Find(ref string) (domain.Project, bool) {
	if p, ok := s.Get(ref); ok {
		return p, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if strings.EqualFold(p.Name, strings.TrimSpace(ref)) {
			return p, true
		}
	}
	return domain.Project{}, false
}

// Name returns the project name for id, or "" when unknown.
func (s *Store) Name(id *string) string {
	if id == nil {
		return ""
	}
	p, ok := s.Get(*id)
	if !ok {
		return ""
	}
	return p.Name
}

// Create adds a project.
func (s *Store) Create(ctx context.Context, req domain.ProjectCreate) (domain.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Project{}, ErrNameRequired
	}
	token, epoch := s.sess.Token(), s.sess.Epoch()
	p, used, err := backend.Call(ctx, s.sel, "create project", token,
		func(ctx context.Context, b backend.Backend) (*domain.Project, error) {
			return b.CreateProject(ctx, token, req)
		})
	if err != nil {
		return domain.Project{}, s.failed(used, token, epoch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess.Epoch() == epoch {
		s.projects = sortByName(append(s.projects, *p))
	}
	return *p, nil
}

// Update changes the project with id.
func (s *Store) Update(ctx context.Context, id string, req domain.ProjectUpdate) (domain.Project, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Project{}, ErrNameRequired
		}
		req.Name = &name
	}
	token, epoch := s.sess.Token(), s.sess.Epoch()
	p, used, err := backend.Call(ctx, s.sel, "update project", token,
		func(ctx context.Context, b backend.Backend) (*domain.Project, error) {
			return b.UpdateProject(ctx, token, id, req)
		})
	if err != nil {
		return domain.Project{}, s.failed(used, token, epoch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess.Epoch() == epoch {
		s.replace(*p)
	}
	return *p, nil
}

// Archive hides the project from List without deleting it.
func (s *Store) Archive(ctx context.Context, id string, archived bool) (domain.Project, error) {
	return s.Update(ctx, id, domain.ProjectUpdate{IsArchived: &archived})
}

// Delete removes the project. Its entries are kept without a project.
func (s *Store) Delete(ctx context.Context, id string) error {
	token, epoch := s.sess.Token(), s.sess.Epoch()
	used, err := backend.Do(ctx, s.sel, "delete project", token,
		func(ctx context.Context, b backend.Backend) error {
			return b.DeleteProject(ctx, token, id)
		})
	if err != nil {
		return s.failed(used, token, epoch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess.Epoch() != epoch {
		return nil
	}
	out := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != id {
			out = append(out, p)
		}
	}
	s.projects = out
	return nil
}

// Reset drops the cache, e.g. on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	s.projects = nil
	s.loaded = false
	s.mu.Unlock()
}

func (s *Store) replace(p domain.Project) {
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.projects[i] = p
			s.projects = sortByName(s.projects)
			return
		}
	}
	s.projects = sortByName(append(s.projects, p))
}

func (s *Store) failed(used backend.Backend, token string, epoch uint64, err error) error {
	if used != nil && s.sel.CredentialRejected(used, token, err) {
		s.sess.HandleUnauthorized(epoch)
	}
	s.log.Warn().Err(err).Msg("project call failed")
	return err
}

func sortByName(ps []domain.Project) []domain.Project {
	sort.SliceStable(ps, func(i, j int) bool {
		return strings.ToLower(ps[i].Name) < strings.ToLower(ps[j].Name)
	})
	return ps
}
