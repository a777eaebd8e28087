package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"nepalmentor/internal/domain/availability"
	domainchat "nepalmentor/internal/domain/chat"
	"nepalmentor/internal/domain/user"
	"nepalmentor/internal/infra/storage/memory"
)

type testService struct {
	svc    *Service
	store  *memory.MessageStore
	users  *memory.UserRepository
	events *memory.EventLog
}

func newTestService(t *testing.T) testService {
	t.Helper()
	schedules, requests := seedDirectories(t)
	store := memory.NewMessageStore()
	users := memory.NewUserRepository()
	events := memory.NewEventLog()

	if err := users.Save(context.Background(), &user.User{
		ID:        testMenteeID,
		FirstName: "Sita",
		LastName:  "Sharma",
		Role:      user.RoleMentee,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return testService{
		svc: &Service{
			Resolver: &Resolver{Schedules: schedules, Requests: requests},
			Store:    store,
			Users:    users,
			Events:   events,
		},
		store:  store,
		users:  users,
		events: events,
	}
}

func TestAppendRejectsEmptyBody(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := ts.svc.Append(context.Background(), testSlotID, testMenteeID, "", body)
		if !errors.Is(err, domainchat.ErrEmptyBody) {
			t.Errorf("body %q: expected ErrEmptyBody, got %v", body, err)
		}
	}

	history, err := ts.store.History(context.Background(), testSlotID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("rejected message must not reach the store, found %d entries", len(history))
	}
	if len(ts.events.Events()) != 0 {
		t.Error("rejected message must not publish an event")
	}
}

func TestAppendRejectsMalformedIdentifiers(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)

	cases := []struct{ slot, sender, receiver string }{
		{"bad", testMenteeID, ""},
		{testSlotID, "bad", ""},
		{testSlotID, testMenteeID, "bad"},
	}
	for _, tc := range cases {
		_, err := ts.svc.Append(context.Background(), tc.slot, tc.sender, tc.receiver, "hello")
		mustDeny(t, err, domainchat.DenyInvalidIdentifier)
	}
}

func TestAppendStoresAndDecorates(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)

	msg, err := ts.svc.Append(context.Background(), testSlotID, testMenteeID, testMentorID, " hello mentor ")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected an assigned message id")
	}
	if msg.Body != " hello mentor " {
		t.Errorf("body must be stored verbatim, got %q", msg.Body)
	}
	if msg.Sender.FirstName != "Sita" || msg.Sender.LastName != "Sharma" {
		t.Errorf("sender not decorated: %+v", msg.Sender)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("expected an assigned timestamp")
	}

	stored, err := ts.store.History(context.Background(), testSlotID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != msg.ID {
		t.Fatalf("expected the appended message in the store, got %+v", stored)
	}

	events := ts.events.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events))
	}
	if events[0].Name != "chat.message.appended" || events[0].Key != testSlotID {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestAppendKeepsTimestampsStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)

	var last time.Time
	for i := 0; i < 20; i++ {
		msg, err := ts.svc.Append(context.Background(), testSlotID, testMenteeID, "", "ping")
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if !msg.CreatedAt.After(last) {
			t.Fatalf("timestamp did not advance: %v after %v", msg.CreatedAt, last)
		}
		last = msg.CreatedAt
	}

	stored, err := ts.store.History(context.Background(), testSlotID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for i := 1; i < len(stored); i++ {
		if !stored[i].CreatedAt.After(stored[i-1].CreatedAt) {
			t.Fatalf("stored order broken at %d", i)
		}
	}
}

func TestAppendSurvivesClockRegression(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)

	// Pre-load the slot's high-water mark an hour into the future, as a
	// clock step backwards would leave it. The next appends must still
	// advance past it, never stall on or before it.
	future := time.Now().UTC().Add(time.Hour)
	order := ts.svc.slotOrder(testSlotID)
	order.lastAt = future

	first, err := ts.svc.Append(context.Background(), testSlotID, testMenteeID, "", "one")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !first.CreatedAt.After(future) {
		t.Fatalf("expected timestamp after the high-water mark %v, got %v", future, first.CreatedAt)
	}
	second, err := ts.svc.Append(context.Background(), testSlotID, testMenteeID, "", "two")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Fatalf("expected %v after %v", second.CreatedAt, first.CreatedAt)
	}
}

func TestAppendStoreFailure(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)
	ts.svc.Store = failingStore{err: errors.New("disk full")}

	_, err := ts.svc.Append(context.Background(), testSlotID, testMenteeID, "", "hello")
	if !errors.Is(err, domainchat.ErrAppendFailed) {
		t.Fatalf("expected ErrAppendFailed, got %v", err)
	}
	if len(ts.events.Events()) != 0 {
		t.Error("failed append must not publish an event")
	}
}

func TestAppendUnknownSenderDegrades(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)

	// A sender absent from the user directory still gets the append; the
	// payload just carries the bare id.
	msg, err := ts.svc.Append(context.Background(), testSlotID, testMentorID, "", "hi")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.Sender.ID != testMentorID || msg.Sender.FirstName != "" {
		t.Errorf("expected bare sender, got %+v", msg.Sender)
	}
}

func TestHistoryDecoratesSenders(t *testing.T) {
	t.Parallel()
	ts := newTestService(t)

	for _, body := range []string{"one", "two", "three"} {
		if _, err := ts.svc.Append(context.Background(), testSlotID, testMenteeID, "", body); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	history, err := ts.svc.History(context.Background(), testSlotID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	if history[0].Body != "one" || history[2].Body != "three" {
		t.Errorf("history out of order: %q .. %q", history[0].Body, history[2].Body)
	}
	for _, msg := range history {
		if msg.Sender.FirstName != "Sita" {
			t.Errorf("sender not decorated on %q: %+v", msg.Body, msg.Sender)
		}
	}

	tail, err := ts.svc.History(context.Background(), testSlotID, 2)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(tail) != 2 || tail[0].Body != "two" {
		t.Errorf("expected the newest 2 messages, got %+v", tail)
	}
}

func TestResolveTimeoutReadsAsUnavailable(t *testing.T) {
	t.Parallel()
	_, requests := seedDirectories(t)
	svc := &Service{
		Resolver:    &Resolver{Schedules: stalledSchedules{}, Requests: requests},
		Store:       memory.NewMessageStore(),
		Users:       memory.NewUserRepository(),
		CallTimeout: 20 * time.Millisecond,
	}

	_, err := svc.Resolve(context.Background(), testSlotID, testMentorID)
	if !errors.Is(err, domainchat.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
	if _, denied := domainchat.Denied(err); denied {
		t.Error("a timed-out check must never read as a deny")
	}
}

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, domainchat.Message) (domainchat.Message, error) {
	return domainchat.Message{}, f.err
}

func (f failingStore) History(context.Context, string, int) ([]domainchat.Message, error) {
	return nil, f.err
}

// stalledSchedules blocks until the call context gives up.
type stalledSchedules struct{}

func (stalledSchedules) ByMentor(ctx context.Context, _ string) (*availability.Schedule, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledSchedules) BySlot(ctx context.Context, _ string) (*availability.Schedule, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledSchedules) Save(ctx context.Context, _ *availability.Schedule) error {
	<-ctx.Done()
	return ctx.Err()
}
