package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainavailability "nepalmentor/internal/domain/availability"
	domainchat "nepalmentor/internal/domain/chat"
	domainrequest "nepalmentor/internal/domain/request"
)

func TestScheduleRepositoryIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewScheduleRepository()

	schedule := &domainavailability.Schedule{MentorID: "m1", Slots: []domainavailability.Slot{{ID: "s1", Time: "9:00 AM - 10:00 AM", Price: 100}}}
	if err := repo.Save(ctx, schedule); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the loaded copy must not leak into the store.
	loaded, err := repo.ByMentor(ctx, "m1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded.Slots[0].Price = 999

	again, err := repo.ByMentor(ctx, "m1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Slots[0].Price != 100 {
		t.Errorf("stored schedule mutated through a loaded copy: %d", again.Slots[0].Price)
	}

	bySlot, err := repo.BySlot(ctx, "s1")
	if err != nil {
		t.Fatalf("by slot: %v", err)
	}
	if bySlot.MentorID != "m1" {
		t.Errorf("unexpected owner: %q", bySlot.MentorID)
	}
	if _, err := repo.BySlot(ctx, "missing"); !errors.Is(err, domainavailability.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestRepositoryAcceptedForSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewRequestRepository()
	now := time.Now()

	accepted := domainrequest.New("mentee-1", "mentor-1", "slot-1", "", "", now)
	accepted.ID = "r1"
	if err := accepted.Accept(now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	pending := domainrequest.New("mentee-2", "mentor-1", "slot-1", "", "", now)
	pending.ID = "r2"
	for _, req := range []*domainrequest.Request{accepted, pending} {
		if err := repo.Save(ctx, req); err != nil {
			t.Fatalf("save %s: %v", req.ID, err)
		}
	}

	sets, err := repo.AcceptedForSlot(ctx, "slot-1")
	if err != nil {
		t.Fatalf("accepted for slot: %v", err)
	}
	if len(sets) != 1 || !sets[0].Contains("mentee-1") {
		t.Errorf("expected only the accepted mentee, got %+v", sets)
	}
	if sets[0].Contains("mentee-2") {
		t.Error("pending request must not grant access")
	}

	if _, err := repo.Open(ctx, "mentor-1", "mentee-1", "slot-1"); err != nil {
		t.Errorf("accepted request should read as open: %v", err)
	}
	if _, err := repo.Open(ctx, "mentor-1", "mentee-3", "slot-1"); !errors.Is(err, domainrequest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMessageStoreHistoryTail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMessageStore()
	base := time.Now().UTC()

	for i, body := range []string{"a", "b", "c", "d"} {
		_, err := store.Append(ctx, domainchat.Message{
			ID:        body,
			SlotID:    "slot-1",
			SenderID:  "u1",
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append %q: %v", body, err)
		}
	}

	full, err := store.History(ctx, "slot-1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(full) != 4 || full[0].Body != "a" || full[3].Body != "d" {
		t.Errorf("unexpected full history: %+v", full)
	}

	tail, err := store.History(ctx, "slot-1", 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail) != 2 || tail[0].Body != "c" || tail[1].Body != "d" {
		t.Errorf("limit must keep the newest messages, got %+v", tail)
	}

	empty, err := store.History(ctx, "slot-2", 0)
	if err != nil {
		t.Fatalf("empty history: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no messages for unknown slot, got %+v", empty)
	}
}
