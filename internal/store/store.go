package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Its-donkey/buildfront/internal/store/persist"
	"github.com/Its-donkey/buildfront/logging"
)

const defaultWriteTimeout = 5 * time.Second

// Listener is invoked after every committed mutation with the post-mutation
// snapshot. Listeners run on the mutating goroutine while the mutation lock
// is held. They may call Snapshot and unsubscribe, but a synchronous call to
// any Add or Delete method blocks forever and stalls every later mutation.
// A listener that needs to mutate must hand the work to another goroutine.
type Listener func(Snapshot)

// Options configures Open.
type Options struct {
	// Slot receives the serialized state after each mutation. Nil keeps the
	// store in memory only.
	Slot persist.Slot
	// Seed starts from demonstration content when nothing is persisted.
	Seed         bool
	Logger       *logging.Logger
	WriteTimeout time.Duration
	Now          func() time.Time
	NewID        func() string
}

// Store is the single owner of the application's collections.
type Store struct {
	// mutateMu serializes whole mutations, including persistence and
	// notification; mu guards the collections and listeners for readers.
	mutateMu sync.Mutex
	mu       sync.RWMutex

	projects    []Project
	clients     []Client
	contacts    []Contact
	subscribers []Subscriber
	lastStamp   time.Time

	// issued holds every id handed out per collection, including deleted
	// ones, so an id is never reused while the store lives.
	issued map[string]map[string]struct{}

	listeners    []listenerEntry
	nextListener uint64

	slot         persist.Slot
	logger       *logging.Logger
	writeTimeout time.Duration
	now          func() time.Time
	newID        func() string
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Open builds a store and restores the last persisted document from
// opts.Slot. Missing, unreadable or incompatible documents are logged and
// replaced by the default state; Open itself never fails.
func Open(ctx context.Context, opts Options) *Store {
	s := &Store{
		slot:         opts.Slot,
		logger:       opts.Logger,
		writeTimeout: opts.WriteTimeout,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if s.logger == nil {
		s.logger = logging.New("store", logging.FATAL+1)
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultWriteTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	snap, restored := s.restore(ctx)
	if !restored {
		if opts.Seed {
			snap = seedSnapshot()
		} else {
			snap = emptySnapshot()
		}
	}
	s.replace(snap)
	return s
}

func (s *Store) restore(ctx context.Context) (Snapshot, bool) {
	if s.slot == nil {
		return Snapshot{}, false
	}
	data, err := s.slot.Load(ctx, StateKey)
	if errors.Is(err, persist.ErrNotFound) {
		s.logger.Info("store", "no persisted state, starting from defaults", nil)
		return Snapshot{}, false
	}
	if err != nil {
		s.logger.Error("store", "load persisted state", err, nil)
		return Snapshot{}, false
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		s.logger.Error("store", "discarding persisted state", err, map[string]any{"bytes": len(data)})
		return Snapshot{}, false
	}
	counts := snap.Counts()
	s.logger.Info("store", "restored persisted state", map[string]any{
		"projects":    counts.Projects,
		"clients":     counts.Clients,
		"contacts":    counts.Contacts,
		"subscribers": counts.Subscribers,
	})
	return snap, true
}

func (s *Store) replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = snap.Projects
	s.clients = snap.Clients
	s.contacts = snap.Contacts
	s.subscribers = snap.Subscribers
	s.issued = map[string]map[string]struct{}{
		"projects":    idSet(s.projects),
		"clients":     idSet(s.clients),
		"contacts":    idSet(s.contacts),
		"subscribers": idSet(s.subscribers),
	}
	for _, c := range s.contacts {
		if c.SubmittedAt.After(s.lastStamp) {
			s.lastStamp = c.SubmittedAt
		}
	}
	for _, sub := range s.subscribers {
		if sub.SubscribedAt.After(s.lastStamp) {
			s.lastStamp = sub.SubscribedAt
		}
	}
}

// Snapshot returns a copy of all four collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Projects:    cloneSlice(s.projects),
		Clients:     cloneSlice(s.clients),
		Contacts:    cloneSlice(s.contacts),
		Subscribers: cloneSlice(s.subscribers),
	}
}

// Subscribe registers fn and returns a func that removes it again. Calling
// the returned func more than once is harmless.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// AddProject appends a project, substituting DefaultProjectImage for an empty
// image URL.
func (s *Store) AddProject(ctx context.Context, in ProjectInput) Project {
	var project Project
	s.commit(ctx, "add_project", func() bool {
		project = Project{
			ID:          s.assignID("projects"),
			Name:        in.Name,
			Description: in.Description,
			ImageURL:    orDefault(in.ImageURL, DefaultProjectImage),
		}
		s.projects = append(s.projects, project)
		return true
	})
	return project
}

// DeleteProject removes the project with id. It reports whether a project was
// removed; deleting an unknown id changes nothing.
func (s *Store) DeleteProject(ctx context.Context, id string) bool {
	var removed bool
	s.commit(ctx, "delete_project", func() bool {
		s.projects, removed = removeByID(s.projects, id)
		return removed
	})
	return removed
}

// AddClient appends a client testimonial, substituting DefaultClientImage for
// an empty image URL.
func (s *Store) AddClient(ctx context.Context, in ClientInput) Client {
	var client Client
	s.commit(ctx, "add_client", func() bool {
		client = Client{
			ID:          s.assignID("clients"),
			Name:        in.Name,
			Description: in.Description,
			Designation: in.Designation,
			ImageURL:    orDefault(in.ImageURL, DefaultClientImage),
		}
		s.clients = append(s.clients, client)
		return true
	})
	return client
}

// DeleteClient removes the client with id, reporting whether one was removed.
func (s *Store) DeleteClient(ctx context.Context, id string) bool {
	var removed bool
	s.commit(ctx, "delete_client", func() bool {
		s.clients, removed = removeByID(s.clients, id)
		return removed
	})
	return removed
}

// AddContact records a contact-form submission. Fields are stored as given.
func (s *Store) AddContact(ctx context.Context, in ContactInput) Contact {
	var contact Contact
	s.commit(ctx, "add_contact", func() bool {
		contact = Contact{
			ID:          s.assignID("contacts"),
			FullName:    in.FullName,
			Email:       in.Email,
			Mobile:      in.Mobile,
			City:        in.City,
			SubmittedAt: s.stamp(),
		}
		s.contacts = append(s.contacts, contact)
		return true
	})
	return contact
}

// AddSubscriber records a newsletter signup. The same address may subscribe
// more than once.
func (s *Store) AddSubscriber(ctx context.Context, email string) Subscriber {
	var subscriber Subscriber
	s.commit(ctx, "add_subscriber", func() bool {
		subscriber = Subscriber{
			ID:           s.assignID("subscribers"),
			Email:        email,
			SubscribedAt: s.stamp(),
		}
		s.subscribers = append(s.subscribers, subscriber)
		return true
	})
	return subscriber
}

// commit runs apply under the write lock and, when it reports a change,
// persists the new state and notifies listeners before returning.
func (s *Store) commit(ctx context.Context, op string, apply func() bool) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	if !apply() {
		s.mu.Unlock()
		s.logger.Debug("store", "mutation made no change", map[string]any{"op": op})
		return
	}
	snap := s.snapshotLocked()
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.persist(ctx, op, snap)

	for _, l := range listeners {
		l.fn(snap.Clone())
	}
}

func (s *Store) persist(ctx context.Context, op string, snap Snapshot) {
	if s.slot == nil {
		return
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		s.logger.Error("store", "encode state", err, map[string]any{"op": op})
		return
	}
	// The mutation is already committed in memory, so the write must not be
	// abandoned when the caller's request goes away.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.slot.Save(writeCtx, StateKey, data); err != nil {
		s.logger.Error("store", "persist state", err, map[string]any{"op": op})
		return
	}
	s.logger.Debug("store", "persisted state", map[string]any{"op": op, "bytes": len(data)})
}

// assignID draws ids until one has never been issued for collection.
func (s *Store) assignID(collection string) string {
	issued := s.issued[collection]
	for {
		id := s.newID()
		if _, taken := issued[id]; id != "" && !taken {
			issued[id] = struct{}{}
			return id
		}
	}
}

func idSet[T entity](items []T) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item.entityID()] = struct{}{}
	}
	return set
}

// stamp returns the current UTC time, never earlier than a previously issued
// timestamp.
func (s *Store) stamp() time.Time {
	now := s.now().UTC()
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

func removeByID[T entity](items []T, id string) ([]T, bool) {
	for i, item := range items {
		if item.entityID() == id {
			out := make([]T, 0, len(items)-1)
			out = append(out, items[:i]...)
			out = append(out, items[i+1:]...)
			return out, true
		}
	}
	return items, false
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
