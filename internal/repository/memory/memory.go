// Package memory is an in-process implementation of the repository
// interfaces. It follows the PostgreSQL schema's rules (cascading deletes,
// reminder history kept after a subject is deleted, check-in protected
// upserts) and is selected with DATABASE_URL=memory://. Data is lost on exit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
)

// Store holds every table behind one lock.
type Store struct {
	mu sync.RWMutex

	nextUserID int64
	users      map[int64]*models.User
	goals      map[string]*models.Goal
	subjects   map[string]*models.Subject
	chapters   map[string]*models.Chapter
	reminders  map[string]models.ReminderRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*models.User),
		goals:     make(map[string]*models.Goal),
		subjects:  make(map[string]*models.Subject),
		chapters:  make(map[string]*models.Chapter),
		reminders: make(map[string]models.ReminderRecord),
	}
}

func (s *Store) Users() repository.UserRepository         { return userRepository{s} }
func (s *Store) Goals() repository.GoalRepository         { return goalRepository{s} }
func (s *Store) Subjects() repository.SubjectRepository   { return subjectRepository{s} }
func (s *Store) Chapters() repository.ChapterRepository   { return chapterRepository{s} }
func (s *Store) Reminders() repository.ReminderRepository { return reminderRepository{s} }

// Users

type userRepository struct{ s *Store }

func (r userRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.TelegramID != 0 {
		for _, u := range r.s.users {
			if u.TelegramID == user.TelegramID {
				return nil, fmt.Errorf("failed to create user: telegram_id %d already exists", user.TelegramID)
			}
		}
	}
	r.s.nextUserID++
	u := *user
	u.ID = r.s.nextUserID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = &u
	out := u
	return &out, nil
}

func (r userRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r userRepository) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.TelegramID == telegramID {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (r userRepository) ListWithChat(_ context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.User
	for _, u := range r.s.users {
		if u.ChatID != 0 {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", user.ID, repository.ErrNotFound)
	}
	u := *user
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now()
	r.s.users[u.ID] = &u
	out := u
	return &out, nil
}

// Goals

type goalRepository struct{ s *Store }

func (r goalRepository) Create(_ context.Context, goal *models.Goal) (*models.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[goal.ID]; ok {
		return nil, fmt.Errorf("failed to create goal: id %s already exists", goal.ID)
	}
	g := *goal
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	r.s.goals[g.ID] = &g
	out := g
	return &out, nil
}

func (r goalRepository) GetByID(_ context.Context, id string) (*models.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.goals[id]
	if !ok {
		return nil, nil
	}
	out := *g
	return &out, nil
}

func (r goalRepository) ListByUser(_ context.Context, userID int64) ([]*models.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Goal
	for _, g := range r.s.goals {
		if g.UserID == userID {
			c := *g
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r goalRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[id]; !ok {
		return fmt.Errorf("goal %s: %w", id, repository.ErrNotFound)
	}
	delete(r.s.goals, id)
	for sid, sub := range r.s.subjects {
		if sub.GoalID == id {
			r.s.deleteSubjectLocked(sid)
		}
	}
	return nil
}

// Subjects

type subjectRepository struct{ s *Store }

func (r subjectRepository) Save(_ context.Context, subject *models.Subject) (*models.Subject, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[subject.GoalID]; !ok {
		return nil, fmt.Errorf("failed to save subject: goal %s does not exist", subject.GoalID)
	}
	sub := cloneSubject(subject)
	now := time.Now()
	if existing, ok := r.s.subjects[sub.ID]; ok {
		sub.CreatedAt = existing.CreatedAt
		sub.StudyHoursCompleted = existing.StudyHoursCompleted
	} else if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	r.s.subjects[sub.ID] = sub
	return cloneSubject(sub), nil
}

func (r subjectRepository) GetByID(_ context.Context, id string) (*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.subjects[id]
	if !ok {
		return nil, nil
	}
	return cloneSubject(sub), nil
}

func (r subjectRepository) ListByUser(_ context.Context, userID int64) ([]*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Subject
	for _, sub := range r.s.subjects {
		if sub.UserID == userID {
			out = append(out, cloneSubject(sub))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r subjectRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.subjects[id]; !ok {
		return fmt.Errorf("subject %s: %w", id, repository.ErrNotFound)
	}
	r.s.deleteSubjectLocked(id)
	return nil
}

// deleteSubjectLocked removes the subject and its chapters. Reminders stay.
func (s *Store) deleteSubjectLocked(id string) {
	delete(s.subjects, id)
	for cid, c := range s.chapters {
		if c.SubjectID == id {
			delete(s.chapters, cid)
		}
	}
}

func cloneSubject(in *models.Subject) *models.Subject {
	out := *in
	if in.Schedule != nil {
		sched := *in.Schedule
		sched.Days = append([]models.Weekday(nil), in.Schedule.Days...)
		out.Schedule = &sched
	}
	if in.TargetHours != nil {
		v := *in.TargetHours
		out.TargetHours = &v
	}
	return &out
}

// Chapters

type chapterRepository struct{ s *Store }

func (r chapterRepository) Save(_ context.Context, chapter *models.Chapter) (*models.Chapter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.subjects[chapter.SubjectID]; !ok {
		return nil, fmt.Errorf("failed to save chapter: subject %s does not exist", chapter.SubjectID)
	}
	c := *chapter
	now := time.Now()
	if existing, ok := r.s.chapters[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Status = ""
	r.s.chapters[c.ID] = &c
	out := c
	return &out, nil
}

func (r chapterRepository) GetByID(_ context.Context, id string) (*models.Chapter, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chapters[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r chapterRepository) ListBySubject(_ context.Context, subjectID string) ([]*models.Chapter, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Chapter
	for _, c := range r.s.chapters {
		if c.SubjectID == subjectID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TargetDate != out[j].TargetDate {
			return out[i].TargetDate < out[j].TargetDate
		}
		return out[i].TargetTime < out[j].TargetTime
	})
	return out, nil
}

func (r chapterRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.chapters[id]; !ok {
		return fmt.Errorf("chapter %s: %w", id, repository.ErrNotFound)
	}
	delete(r.s.chapters, id)
	return nil
}

// Reminders

type reminderRepository struct{ s *Store }

func (r reminderRepository) ListByUser(_ context.Context, userID int64) ([]models.ReminderRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.ReminderRecord
	for _, rec := range r.s.reminders {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r reminderRepository) UpsertBatch(_ context.Context, records []models.ReminderRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range records {
		r.s.upsertLocked(rec)
	}
	return nil
}

func (r reminderRepository) SaveCheckIn(_ context.Context, record models.ReminderRecord) (*models.Subject, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.reminders[record.ID]
	if !ok {
		return nil, fmt.Errorf("reminder %s: %w", record.ID, repository.ErrNotFound)
	}
	if rec.IsCompleted() {
		return nil, fmt.Errorf("reminder %s: %w", record.ID, schedule.ErrAlreadyCompleted)
	}
	sub, ok := r.s.subjects[rec.SubjectID]
	if !ok {
		return nil, fmt.Errorf("subject %s: %w", rec.SubjectID, repository.ErrNotFound)
	}

	rec.Status = models.ReminderStatusCompleted
	rec.Read = true
	rec.UpdatedAt = record.UpdatedAt
	r.s.reminders[rec.ID] = rec

	sub.StudyHoursCompleted += rec.ScheduledHours
	sub.UpdatedAt = record.UpdatedAt
	return cloneSubject(sub), nil
}

// upsertLocked mirrors the SQL upsert: a COMPLETED row keeps its status and a
// read flag is never cleared.
func (s *Store) upsertLocked(rec models.ReminderRecord) {
	existing, ok := s.reminders[rec.ID]
	if !ok {
		s.reminders[rec.ID] = rec
		return
	}
	if !existing.IsCompleted() {
		existing.Status = rec.Status
	}
	existing.Read = existing.Read || rec.Read
	existing.UpdatedAt = rec.UpdatedAt
	s.reminders[rec.ID] = existing
}
