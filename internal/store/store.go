// Package store is the in-memory CRUD collaborator: mutex-guarded maps
// keyed by incrementing integer ids. Nothing survives a process restart.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/praveenlokku/EasyApply/internal/ai"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalidRecord  = errors.New("invalid record")
)

type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type WaitlistEntry struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Resume struct {
	ID        int                `json:"id"`
	UserID    int                `json:"userId,omitempty"`
	FileName  string             `json:"fileName"`
	MimeType  string             `json:"mimeType"`
	Text      string             `json:"text"`
	Analysis  *ai.AnalysisResult `json:"analysis,omitempty"`
	Matches   []ai.JobMatch      `json:"matches,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

type JobDescription struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store holds every collection behind one lock; contention is negligible at
// this scale and a single lock keeps cross-collection checks simple.
type Store struct {
	mu sync.RWMutex

	users    map[int]User
	waitlist map[int]WaitlistEntry
	resumes  map[int]Resume
	jobs     map[int]JobDescription

	nextUserID     int
	nextWaitlistID int
	nextResumeID   int
	nextJobID      int

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:          make(map[int]User),
		waitlist:       make(map[int]WaitlistEntry),
		resumes:        make(map[int]Resume),
		jobs:           make(map[int]JobDescription),
		nextUserID:     1,
		nextWaitlistID: 1,
		nextResumeID:   1,
		nextJobID:      1,
		now:            time.Now,
	}
}

func (s *Store) CreateUser(u User) (User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return User{}, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return User{}, ErrDuplicateEmail
		}
	}

	u.ID = s.nextUserID
	s.nextUserID++
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sortByID(out, func(u User) int { return u.ID })
	return out
}

func (s *Store) DeleteUser(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CreateWaitlistEntry(e WaitlistEntry) (WaitlistEntry, error) {
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	if e.Email == "" {
		return WaitlistEntry{}, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.waitlist {
		if existing.Email == e.Email {
			return WaitlistEntry{}, ErrDuplicateEmail
		}
	}

	e.ID = s.nextWaitlistID
	s.nextWaitlistID++
	e.CreatedAt = s.now()
	s.waitlist[e.ID] = e
	return e, nil
}

func (s *Store) ListWaitlist() []WaitlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]WaitlistEntry, 0, len(s.waitlist))
	for _, e := range s.waitlist {
		out = append(out, e)
	}
	sortByID(out, func(e WaitlistEntry) int { return e.ID })
	return out
}

func (s *Store) DeleteWaitlistEntry(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.waitlist[id]; !ok {
		return ErrNotFound
	}
	delete(s.waitlist, id)
	return nil
}

func (s *Store) CreateResume(r Resume) (Resume, error) {
	if strings.TrimSpace(r.Text) == "" && strings.TrimSpace(r.FileName) == "" {
		return Resume{}, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextResumeID
	s.nextResumeID++
	r.CreatedAt = s.now()
	s.resumes[r.ID] = r
	return r, nil
}

func (s *Store) GetResume(id int) (Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resumes[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return r, nil
}

func (s *Store) ListResumes() []Resume {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Resume, 0, len(s.resumes))
	for _, r := range s.resumes {
		out = append(out, r)
	}
	sortByID(out, func(r Resume) int { return r.ID })
	return out
}

// UpdateResumeAnalysis attaches an analysis result to a stored resume. The
// AI pipeline works without persistence; this is best-effort bookkeeping.
func (s *Store) UpdateResumeAnalysis(id int, analysis *ai.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resumes[id]
	if !ok {
		return ErrNotFound
	}
	r.Analysis = analysis
	s.resumes[id] = r
	return nil
}

// UpdateResumeMatches attaches a job-match batch to a stored resume.
func (s *Store) UpdateResumeMatches(id int, matches []ai.JobMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resumes[id]
	if !ok {
		return ErrNotFound
	}
	r.Matches = matches
	s.resumes[id] = r
	return nil
}

func (s *Store) DeleteResume(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resumes[id]; !ok {
		return ErrNotFound
	}
	delete(s.resumes, id)
	return nil
}

func (s *Store) CreateJob(j JobDescription) (JobDescription, error) {
	if strings.TrimSpace(j.Description) == "" {
		return JobDescription{}, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j.ID = s.nextJobID
	s.nextJobID++
	j.CreatedAt = s.now()
	s.jobs[j.ID] = j
	return j, nil
}

func (s *Store) GetJob(id int) (JobDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return JobDescription{}, ErrNotFound
	}
	return j, nil
}

func (s *Store) ListJobs() []JobDescription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobDescription, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sortByID(out, func(j JobDescription) int { return j.ID })
	return out
}

func (s *Store) DeleteJob(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func sortByID[T any](items []T, id func(T) int) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
