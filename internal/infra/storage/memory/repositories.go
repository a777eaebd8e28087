package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "nepalmentor/internal/domain/availability"
	domainchat "nepalmentor/internal/domain/chat"
	domainrequest "nepalmentor/internal/domain/request"
	domainuser "nepalmentor/internal/domain/user"
)

// ScheduleRepository stores mentor schedules in memory. Not suitable for
// production.
type ScheduleRepository struct {
	mu    sync.RWMutex
	items map[string]*domainavailability.Schedule
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{items: make(map[string]*domainavailability.Schedule)}
}

func (r *ScheduleRepository) ByMentor(ctx context.Context, mentorID string) (*domainavailability.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schedule, ok := r.items[mentorID]
	if !ok {
		return nil, domainavailability.ErrNotFound
	}
	return cloneSchedule(schedule), nil
}

func (r *ScheduleRepository) BySlot(ctx context.Context, slotID string) (*domainavailability.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, schedule := range r.items {
		if _, ok := schedule.Find(slotID); ok {
			return cloneSchedule(schedule), nil
		}
	}
	return nil, domainavailability.ErrNotFound
}

func (r *ScheduleRepository) Save(ctx context.Context, schedule *domainavailability.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[schedule.MentorID] = cloneSchedule(schedule)
	return nil
}

func cloneSchedule(s *domainavailability.Schedule) *domainavailability.Schedule {
	copied := *s
	copied.Slots = append([]domainavailability.Slot(nil), s.Slots...)
	return &copied
}

// RequestRepository stores mentorship requests in memory.
type RequestRepository struct {
	mu    sync.RWMutex
	items map[string]*domainrequest.Request
}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{items: make(map[string]*domainrequest.Request)}
}

func (r *RequestRepository) ByID(ctx context.Context, id string) (*domainrequest.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.items[id]
	if !ok {
		return nil, domainrequest.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (r *RequestRepository) ForMentor(ctx context.Context, mentorID string, status domainrequest.Status) ([]*domainrequest.Request, error) {
	return r.filter(func(req *domainrequest.Request) bool {
		return req.MentorID == mentorID && (status == "" || req.Status == status)
	}), nil
}

func (r *RequestRepository) ForMentee(ctx context.Context, menteeID string, status domainrequest.Status) ([]*domainrequest.Request, error) {
	return r.filter(func(req *domainrequest.Request) bool {
		return req.MenteeID == menteeID && (status == "" || req.Status == status)
	}), nil
}

func (r *RequestRepository) AcceptedForSlot(ctx context.Context, slotID string) ([]domainrequest.Requesters, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainrequest.Requesters
	for _, req := range r.items {
		if req.SlotID == slotID && req.Status == domainrequest.StatusAccepted {
			out = append(out, domainrequest.SingleRequester(req.MenteeID))
		}
	}
	return out, nil
}

func (r *RequestRepository) Open(ctx context.Context, mentorID, menteeID, slotID string) (*domainrequest.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, req := range r.items {
		if req.MentorID == mentorID && req.MenteeID == menteeID && req.SlotID == slotID &&
			(req.Status == domainrequest.StatusPending || req.Status == domainrequest.StatusAccepted) {
			return cloneRequest(req), nil
		}
	}
	return nil, domainrequest.ErrNotFound
}

func (r *RequestRepository) Save(ctx context.Context, req *domainrequest.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[req.ID] = cloneRequest(req)
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrequest.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *RequestRepository) filter(keep func(*domainrequest.Request) bool) []*domainrequest.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrequest.Request
	for _, req := range r.items {
		if keep(req) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func cloneRequest(req *domainrequest.Request) *domainrequest.Request {
	copied := *req
	return &copied
}

// UserRepository is the in-memory user directory.
type UserRepository struct {
	mu    sync.RWMutex
	items map[string]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[string]*domainuser.User)}
}

func (r *UserRepository) ByID(ctx context.Context, id string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *u
	r.items[u.ID] = &copied
	return nil
}

// MessageStore is the in-memory append-only message log.
type MessageStore struct {
	mu     sync.RWMutex
	bySlot map[string][]domainchat.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{bySlot: make(map[string][]domainchat.Message)}
}

func (s *MessageStore) Append(ctx context.Context, msg domainchat.Message) (domainchat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySlot[msg.SlotID] = append(s.bySlot[msg.SlotID], msg)
	return msg, nil
}

func (s *MessageStore) History(ctx context.Context, slotID string, limit int) ([]domainchat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.bySlot[slotID]
	out := append([]domainchat.Message(nil), log...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// EventLog collects published events, standing in for the broker in tests
// and the default memory wiring.
type EventLog struct {
	mu     sync.Mutex
	events []LoggedEvent
}

type LoggedEvent struct {
	Name    string
	Key     string
	Payload any
	At      time.Time
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Publish(ctx context.Context, event, key string, payload any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, LoggedEvent{Name: event, Key: key, Payload: payload, At: time.Now()})
	return nil
}

// Events returns a snapshot of everything published so far.
func (l *EventLog) Events() []LoggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LoggedEvent(nil), l.events...)
}
