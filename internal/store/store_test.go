package store_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/Its-donkey/buildfront/internal/store"
	"github.com/Its-donkey/buildfront/internal/store/persist"
)

func newStore(t *testing.T, slot persist.Slot) *store.Store {
	t.Helper()
	return store.Open(context.Background(), store.Options{Slot: slot})
}

func TestAddProjectAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	const calls = 50
	for i := 0; i < calls; i++ {
		s.AddProject(ctx, store.ProjectInput{Name: fmt.Sprintf("Project %d", i), Description: "desc"})
	}

	projects := s.Snapshot().Projects
	if len(projects) != calls {
		t.Fatalf("expected %d projects, got %d", calls, len(projects))
	}
	seen := make(map[string]bool, calls)
	for i, p := range projects {
		if p.ID == "" {
			t.Fatalf("project %d has empty id", i)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate id %q", p.ID)
		}
		seen[p.ID] = true
		if want := fmt.Sprintf("Project %d", i); p.Name != want {
			t.Fatalf("expected insertion order, position %d has %q", i, p.Name)
		}
	}
}

func TestAssignIDRedrawsOnCollision(t *testing.T) {
	ids := []string{"a", "a", "", "b"}
	s := store.Open(context.Background(), store.Options{NewID: func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}})

	first := s.AddProject(context.Background(), store.ProjectInput{Name: "one"})
	second := s.AddProject(context.Background(), store.ProjectInput{Name: "two"})
	if first.ID != "a" || second.ID != "b" {
		t.Fatalf("expected ids a and b, got %q and %q", first.ID, second.ID)
	}
}

func TestAddProjectDefaultImage(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	withDefault := s.AddProject(ctx, store.ProjectInput{Name: "Tower", Description: "Tall"})
	if withDefault.ImageURL != store.DefaultProjectImage {
		t.Fatalf("expected default image, got %q", withDefault.ImageURL)
	}
	custom := s.AddProject(ctx, store.ProjectInput{Name: "Bridge", Description: "Long", ImageURL: "X"})
	if custom.ImageURL != "X" {
		t.Fatalf("expected custom image X, got %q", custom.ImageURL)
	}

	client := s.AddClient(ctx, store.ClientInput{Name: "Jo", Description: "Great", Designation: "CEO"})
	if client.ImageURL != store.DefaultClientImage {
		t.Fatalf("expected default client image, got %q", client.ImageURL)
	}
}

func TestDeleteProjectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	keep := s.AddProject(ctx, store.ProjectInput{Name: "keep"})
	drop := s.AddProject(ctx, store.ProjectInput{Name: "drop"})

	if !s.DeleteProject(ctx, drop.ID) {
		t.Fatal("expected first delete to remove the project")
	}
	afterFirst := s.Snapshot().Projects

	if s.DeleteProject(ctx, drop.ID) {
		t.Fatal("expected second delete to be a no-op")
	}
	afterSecond := s.Snapshot().Projects

	if !reflect.DeepEqual(afterFirst, afterSecond) {
		t.Fatalf("state changed on repeated delete: %+v vs %+v", afterFirst, afterSecond)
	}
	if len(afterSecond) != 1 || afterSecond[0].ID != keep.ID {
		t.Fatalf("expected only %q to remain, got %+v", keep.ID, afterSecond)
	}
}

func TestDeleteUnknownClientLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	s.AddClient(ctx, store.ClientInput{Name: "A", Description: "a", Designation: "CTO"})
	before := s.Snapshot().Clients

	calls := 0
	unsubscribe := s.Subscribe(func(store.Snapshot) { calls++ })
	defer unsubscribe()

	if s.DeleteClient(ctx, "never-added") {
		t.Fatal("expected delete of unknown id to report no removal")
	}
	after := s.Snapshot().Clients
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("clients changed: %+v vs %+v", before, after)
	}
	if calls != 0 {
		t.Fatalf("expected no notification for a no-op delete, got %d", calls)
	}
}

func TestAddContactStampsSubmission(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	before := time.Now()
	s.AddContact(ctx, store.ContactInput{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Mobile:   "1234567890",
		City:     "Indore",
	})
	after := time.Now()

	contacts := s.Snapshot().Contacts
	last := contacts[len(contacts)-1]
	if last.FullName != "Jane Doe" || last.Email != "jane@x.com" || last.Mobile != "1234567890" || last.City != "Indore" {
		t.Fatalf("unexpected contact: %+v", last)
	}
	if last.SubmittedAt.Before(before.Round(0)) || last.SubmittedAt.After(after.Round(0)) {
		t.Fatalf("submittedAt %s outside [%s, %s]", last.SubmittedAt, before, after)
	}
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	ctx := context.Background()
	clock := []time.Time{
		time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC),
	}
	s := store.Open(ctx, store.Options{Now: func() time.Time {
		now := clock[0]
		clock = clock[1:]
		return now
	}})

	a := s.AddSubscriber(ctx, "a@b.com")
	b := s.AddContact(ctx, store.ContactInput{FullName: "Jo"})
	c := s.AddSubscriber(ctx, "c@d.com")

	if b.SubmittedAt.Before(a.SubscribedAt) {
		t.Fatalf("timestamp went backwards: %s then %s", a.SubscribedAt, b.SubmittedAt)
	}
	if !c.SubscribedAt.Equal(time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected clock to resume, got %s", c.SubscribedAt)
	}
}

func TestAddSubscriberAllowsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	first := s.AddSubscriber(ctx, "a@b.com")
	second := s.AddSubscriber(ctx, "a@b.com")

	if first.ID == second.ID {
		t.Fatal("expected distinct ids for duplicate subscriptions")
	}
	if got := len(s.Snapshot().Subscribers); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := persist.NewMemorySlot()

	s := newStore(t, slot)
	s.AddSubscriber(ctx, "a@b.com")

	restarted := newStore(t, slot)
	subs := restarted.Snapshot().Subscribers
	if len(subs) != 1 || subs[0].Email != "a@b.com" {
		t.Fatalf("expected one restored subscriber a@b.com, got %+v", subs)
	}
	if !reflect.DeepEqual(s.Snapshot(), restarted.Snapshot()) {
		t.Fatalf("restored snapshot differs:\n%+v\n%+v", s.Snapshot(), restarted.Snapshot())
	}
}

func TestOpenFallsBackOnMalformedState(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":       `{"version":`,
		"wrong shape":    `{"version":1,"projects":{}}`,
		"wrong version":  `{"version":7,"projects":[],"clients":[],"contacts":[],"subscribers":[]}`,
		"duplicate id":   `{"version":1,"projects":[{"id":"p","name":"a","description":"","imageUrl":""},{"id":"p","name":"b","description":"","imageUrl":""}],"clients":[],"contacts":[],"subscribers":[]}`,
		"bad timestamp":  `{"version":1,"projects":[],"clients":[],"contacts":[],"subscribers":[{"id":"s","email":"a@b.com","subscribedAt":"yesterday"}]}`,
		"missing fields": `{"version":1,"projects":[{"id":"p"}],"clients":[],"contacts":[],"subscribers":[]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			slot := persist.NewMemorySlot()
			if err := slot.Save(ctx, store.StateKey, []byte(doc)); err != nil {
				t.Fatalf("seed slot: %v", err)
			}
			s := store.Open(ctx, store.Options{Slot: slot, Seed: true})
			snap := s.Snapshot()
			if len(snap.Projects) == 0 || len(snap.Clients) == 0 {
				t.Fatalf("expected seeded state, got %+v", snap.Counts())
			}
			if len(snap.Contacts) != 0 || len(snap.Subscribers) != 0 {
				t.Fatalf("expected seeded contacts/subscribers to be empty, got %+v", snap.Counts())
			}
		})
	}
}

type failingSlot struct{}

func (failingSlot) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage offline")
}

func (failingSlot) Save(context.Context, string, []byte) error {
	return errors.New("storage offline")
}

func TestPersistenceFailuresAreContained(t *testing.T) {
	ctx := context.Background()
	s := store.Open(ctx, store.Options{Slot: failingSlot{}})

	p := s.AddProject(ctx, store.ProjectInput{Name: "Still works"})
	if got := s.Snapshot().Projects; len(got) != 1 || got[0].ID != p.ID {
		t.Fatalf("expected in-memory state to keep the project, got %+v", got)
	}
}

func TestOpenWithoutSeedStartsEmpty(t *testing.T) {
	s := store.Open(context.Background(), store.Options{})
	if counts := s.Snapshot().Counts(); counts != (store.Counts{}) {
		t.Fatalf("expected empty store, got %+v", counts)
	}
}

func TestSubscribeNotifiesOncePerMutation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	var got []store.Snapshot
	unsubscribe := s.Subscribe(func(snap store.Snapshot) {
		got = append(got, snap)
	})

	client := s.AddClient(ctx, store.ClientInput{Name: "Rowan", Description: "Great", Designation: "CEO"})
	if len(got) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(got))
	}
	clients := got[0].Clients
	if len(clients) != 1 || clients[0].ID != client.ID {
		t.Fatalf("notification snapshot missing new client: %+v", clients)
	}

	unsubscribe()
	unsubscribe()
	s.AddClient(ctx, store.ClientInput{Name: "Morgan"})
	if len(got) != 1 {
		t.Fatalf("expected no notification after unsubscribe, got %d", len(got))
	}
}

func TestListenersObservePersistedState(t *testing.T) {
	ctx := context.Background()
	slot := persist.NewMemorySlot()
	s := newStore(t, slot)

	var persisted, live int
	s.Subscribe(func(store.Snapshot) {
		data, err := slot.Load(ctx, store.StateKey)
		if err != nil {
			t.Errorf("load during notification: %v", err)
			return
		}
		snap, err := store.DecodeSnapshot(data)
		if err != nil {
			t.Errorf("decode during notification: %v", err)
			return
		}
		persisted = len(snap.Projects)
		live = len(s.Snapshot().Projects)
	})

	s.AddProject(ctx, store.ProjectInput{Name: "Tower"})
	if persisted != 1 || live != 1 {
		t.Fatalf("expected listener to see committed state, persisted=%d live=%d", persisted, live)
	}
}

func TestDeletedIDsAreNeverReissued(t *testing.T) {
	ctx := context.Background()
	ids := []string{"a", "a", "b"}
	s := store.Open(ctx, store.Options{NewID: func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}})

	first := s.AddProject(ctx, store.ProjectInput{Name: "one"})
	if !s.DeleteProject(ctx, first.ID) {
		t.Fatalf("expected %q to be deleted", first.ID)
	}
	second := s.AddProject(ctx, store.ProjectInput{Name: "two"})
	if first.ID != "a" || second.ID != "b" {
		t.Fatalf("expected ids a then b, got %q and %q", first.ID, second.ID)
	}
}

func TestRestoredIDsAreNeverReissued(t *testing.T) {
	ctx := context.Background()
	slot := persist.NewMemorySlot()
	seeded := newStore(t, slot)
	client := seeded.AddClient(ctx, store.ClientInput{Name: "Rowan"})
	seeded.DeleteClient(ctx, client.ID)
	kept := seeded.AddClient(ctx, store.ClientInput{Name: "Morgan"})

	ids := []string{kept.ID, "fresh"}
	s := store.Open(ctx, store.Options{Slot: slot, NewID: func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}})
	if got := s.AddClient(ctx, store.ClientInput{Name: "Sam"}); got.ID != "fresh" {
		t.Fatalf("expected restored id to be skipped, got %q", got.ID)
	}
}

func TestListenerMutatesThroughAnotherGoroutine(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	done := make(chan store.Contact, 1)
	var once bool
	s.Subscribe(func(snap store.Snapshot) {
		if once || len(snap.Subscribers) == 0 {
			return
		}
		once = true
		go func() {
			done <- s.AddContact(ctx, store.ContactInput{FullName: "Follow Up", Email: snap.Subscribers[0].Email})
		}()
	})

	s.AddSubscriber(ctx, "reader@example.com")
	select {
	case contact := <-done:
		if contact.Email != "reader@example.com" {
			t.Fatalf("unexpected follow-up contact %+v", contact)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up mutation did not complete")
	}
	if n := len(s.Snapshot().Contacts); n != 1 {
		t.Fatalf("expected 1 contact, got %d", n)
	}
}

func TestUnsubscribeDuringNotificationKeepsOthers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	var firstCalls, secondCalls int
	var unsubscribeFirst func()
	unsubscribeFirst = s.Subscribe(func(store.Snapshot) {
		firstCalls++
		unsubscribeFirst()
	})
	s.Subscribe(func(store.Snapshot) { secondCalls++ })

	s.AddSubscriber(ctx, "a@b.com")
	s.AddSubscriber(ctx, "c@d.com")
	if firstCalls != 1 || secondCalls != 2 {
		t.Fatalf("expected first=1 second=2, got first=%d second=%d", firstCalls, secondCalls)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	s.AddProject(ctx, store.ProjectInput{Name: "Original"})

	snap := s.Snapshot()
	snap.Projects[0].Name = "Changed"
	snap.Projects = append(snap.Projects, store.Project{ID: "x"})

	again := s.Snapshot()
	if len(again.Projects) != 1 || again.Projects[0].Name != "Original" {
		t.Fatalf("store state leaked through snapshot: %+v", again.Projects)
	}
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	ctx := context.Background()
	slot := persist.NewMemorySlot()
	s := newStore(t, slot)

	const workers, perWorker = 8, 25
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < perWorker; i++ {
				s.AddContact(ctx, store.ContactInput{FullName: fmt.Sprintf("w%d-%d", w, i)})
				_ = s.Snapshot()
			}
		}(w)
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	if got := len(s.Snapshot().Contacts); got != workers*perWorker {
		t.Fatalf("expected %d contacts, got %d", workers*perWorker, got)
	}
	restarted := newStore(t, slot)
	if got := len(restarted.Snapshot().Contacts); got != workers*perWorker {
		t.Fatalf("expected last persisted document to hold every contact, got %d", got)
	}
}
