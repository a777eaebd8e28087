package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"nepalmentor/internal/domain/availability"
	domainchat "nepalmentor/internal/domain/chat"
	"nepalmentor/internal/domain/request"
	"nepalmentor/internal/infra/storage/memory"
)

const (
	testMentorID = "5f1a2b3c4d5e6f7a8b9c0d1e"
	testMenteeID = "6f1a2b3c4d5e6f7a8b9c0d1e"
	testOtherID  = "0000000000000000000000aa"
	testSlotID   = "7f1a2b3c4d5e6f7a8b9c0d1e"
)

// seedDirectories builds in-memory directories holding one mentor schedule
// with one slot and one accepted request from the mentee against that slot.
func seedDirectories(t *testing.T) (*memory.ScheduleRepository, *memory.RequestRepository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	schedules := memory.NewScheduleRepository()
	schedule := &availability.Schedule{MentorID: testMentorID, CreatedAt: now, UpdatedAt: now}
	if err := schedule.Add([]availability.Slot{{ID: testSlotID, Time: "9:00 PM - 10:00 PM", Price: 500}}, now); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	if err := schedules.Save(ctx, schedule); err != nil {
		t.Fatalf("save schedule: %v", err)
	}

	requests := memory.NewRequestRepository()
	req := request.New(testMenteeID, testMentorID, testSlotID, "9:00 PM - 10:00 PM", "", now)
	req.ID = "8f1a2b3c4d5e6f7a8b9c0d1e"
	if err := req.Accept(now); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	if err := requests.Save(ctx, req); err != nil {
		t.Fatalf("save request: %v", err)
	}
	return schedules, requests
}

func mustDeny(t *testing.T, err error, want domainchat.DenyReason) {
	t.Helper()
	reason, ok := domainchat.Denied(err)
	if !ok {
		t.Fatalf("expected deny %q, got %v", want, err)
	}
	if reason != want {
		t.Fatalf("expected deny %q, got %q", want, reason)
	}
}

func TestResolveInvalidIdentifiers(t *testing.T) {
	t.Parallel()
	schedules, requests := seedDirectories(t)
	r := &Resolver{Schedules: schedules, Requests: requests}

	cases := []struct{ slotID, userID string }{
		{"", testMentorID},
		{testSlotID, ""},
		{"not-an-id", testMentorID},
		{testSlotID, "zz1a2b3c4d5e6f7a8b9c0d1e"},
	}
	for _, tc := range cases {
		_, err := r.Resolve(context.Background(), tc.slotID, tc.userID)
		mustDeny(t, err, domainchat.DenyInvalidIdentifier)
	}
}

func TestResolveMentorOwnsSlot(t *testing.T) {
	t.Parallel()
	schedules, requests := seedDirectories(t)
	r := &Resolver{Schedules: schedules, Requests: requests}

	role, err := r.Resolve(context.Background(), testSlotID, testMentorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != domainchat.RoleMentor {
		t.Errorf("expected mentor role, got %q", role)
	}
}

func TestResolveMentorForeignSlot(t *testing.T) {
	t.Parallel()
	schedules, requests := seedDirectories(t)

	// The mentor also holds an accepted request against this foreign slot.
	// Ownership is still checked first and exclusively, so the mentee path
	// must never be consulted for a schedule owner.
	foreignSlot := "9f1a2b3c4d5e6f7a8b9c0d1e"
	req := request.New(testMentorID, testOtherID, foreignSlot, "", "", time.Now())
	req.ID = "1111111111111111111111aa"
	if err := req.Accept(time.Now()); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := requests.Save(context.Background(), req); err != nil {
		t.Fatalf("save: %v", err)
	}

	r := &Resolver{Schedules: schedules, Requests: requests}
	_, err := r.Resolve(context.Background(), foreignSlot, testMentorID)
	mustDeny(t, err, domainchat.DenySlotNotFound)
}

func TestResolveMenteeWithAcceptedRequest(t *testing.T) {
	t.Parallel()
	schedules, requests := seedDirectories(t)
	r := &Resolver{Schedules: schedules, Requests: requests}

	role, err := r.Resolve(context.Background(), testSlotID, testMenteeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != domainchat.RoleMentee {
		t.Errorf("expected mentee role, got %q", role)
	}
}

func TestResolveMenteeWithoutAcceptedRequest(t *testing.T) {
	t.Parallel()
	schedules, requests := seedDirectories(t)
	r := &Resolver{Schedules: schedules, Requests: requests}

	// Someone else's acceptance exists, so the slot has an open room the
	// caller is simply not part of.
	_, err := r.Resolve(context.Background(), testSlotID, testOtherID)
	mustDeny(t, err, domainchat.DenyNotAuthorized)
}

func TestResolveNoAcceptanceAtAll(t *testing.T) {
	t.Parallel()
	schedules, _ := seedDirectories(t)
	r := &Resolver{Schedules: schedules, Requests: memory.NewRequestRepository()}

	_, err := r.Resolve(context.Background(), testSlotID, testMenteeID)
	mustDeny(t, err, domainchat.DenyNoAcceptedRequest)
}

func TestResolvePendingIsNotEnough(t *testing.T) {
	t.Parallel()
	schedules, _ := seedDirectories(t)
	requests := memory.NewRequestRepository()
	req := request.New(testMenteeID, testMentorID, testSlotID, "", "", time.Now())
	req.ID = "8f1a2b3c4d5e6f7a8b9c0d1e"
	if err := requests.Save(context.Background(), req); err != nil {
		t.Fatalf("save: %v", err)
	}

	r := &Resolver{Schedules: schedules, Requests: requests}
	_, err := r.Resolve(context.Background(), testSlotID, testMenteeID)
	mustDeny(t, err, domainchat.DenyNoAcceptedRequest)
}

func TestResolveGroupRequest(t *testing.T) {
	t.Parallel()
	schedules, _ := seedDirectories(t)
	requests := groupRequests{
		slotID: testSlotID,
		sets:   []request.Requesters{request.ManyRequesters([]string{testOtherID, testMenteeID})},
	}

	r := &Resolver{Schedules: schedules, Requests: requests}
	role, err := r.Resolve(context.Background(), testSlotID, testMenteeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != domainchat.RoleMentee {
		t.Errorf("expected mentee role, got %q", role)
	}

	_, err = r.Resolve(context.Background(), testSlotID, "cc00000000000000000000cc")
	mustDeny(t, err, domainchat.DenyNotAuthorized)
}

func TestResolveDirectoryUnavailable(t *testing.T) {
	t.Parallel()
	schedules, requests := seedDirectories(t)
	boom := errors.New("connection refused")

	r := &Resolver{Schedules: failingSchedules{err: boom}, Requests: requests}
	_, err := r.Resolve(context.Background(), testSlotID, testMentorID)
	if !errors.Is(err, domainchat.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
	if _, denied := domainchat.Denied(err); denied {
		t.Error("directory fault must not read as a deny")
	}

	r = &Resolver{Schedules: schedules, Requests: failingRequests{err: boom}}
	_, err = r.Resolve(context.Background(), testSlotID, testMenteeID)
	if !errors.Is(err, domainchat.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable on request lookup, got %v", err)
	}
}

type failingSchedules struct{ err error }

func (f failingSchedules) ByMentor(context.Context, string) (*availability.Schedule, error) {
	return nil, f.err
}

func (f failingSchedules) BySlot(context.Context, string) (*availability.Schedule, error) {
	return nil, f.err
}

func (f failingSchedules) Save(context.Context, *availability.Schedule) error { return f.err }

type failingRequests struct{ err error }

func (f failingRequests) ByID(context.Context, string) (*request.Request, error) { return nil, f.err }

func (f failingRequests) ForMentor(context.Context, string, request.Status) ([]*request.Request, error) {
	return nil, f.err
}

func (f failingRequests) ForMentee(context.Context, string, request.Status) ([]*request.Request, error) {
	return nil, f.err
}

func (f failingRequests) AcceptedForSlot(context.Context, string) ([]request.Requesters, error) {
	return nil, f.err
}

func (f failingRequests) Open(context.Context, string, string, string) (*request.Request, error) {
	return nil, f.err
}

func (f failingRequests) Save(context.Context, *request.Request) error { return f.err }
func (f failingRequests) Delete(context.Context, string) error         { return f.err }

// groupRequests serves a fixed requester set for one slot, standing in for
// legacy group records.
type groupRequests struct {
	failingRequests
	slotID string
	sets   []request.Requesters
}

func (g groupRequests) AcceptedForSlot(_ context.Context, slotID string) ([]request.Requesters, error) {
	if slotID == g.slotID {
		return g.sets, nil
	}
	return nil, nil
}
