// Package store holds the application state shared by the landing page and the
// admin dashboard: projects, client testimonials, contact submissions and
// newsletter subscribers.
package store

import "time"

// Placeholder images used when a project or client is created without one.
const (
	DefaultProjectImage = "https://images.unsplash.com/photo-1487958449943-2429e8be8625?auto=format&fit=crop&q=80&w=800"
	DefaultClientImage  = "https://images.unsplash.com/photo-1519085360753-af0119f7cbe7?auto=format&fit=crop&q=80&w=800"
)

// Project is a showcased construction project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// Client is a client testimonial.
type Client struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Designation string `json:"designation"`
	ImageURL    string `json:"imageUrl"`
}

// Contact is a contact-form submission from the landing page.
type Contact struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Mobile      string    `json:"mobile"`
	City        string    `json:"city"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

func (p Project) entityID() string    { return p.ID }
func (c Client) entityID() string     { return c.ID }
func (c Contact) entityID() string    { return c.ID }
func (s Subscriber) entityID() string { return s.ID }

type entity interface {
	entityID() string
}

// Snapshot is a copy of every collection taken at one instant.
type Snapshot struct {
	Projects    []Project    `json:"projects"`
	Clients     []Client     `json:"clients"`
	Contacts    []Contact    `json:"contacts"`
	Subscribers []Subscriber `json:"subscribers"`
}

// Clone returns a deep copy whose slices can be modified freely.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Projects:    cloneSlice(s.Projects),
		Clients:     cloneSlice(s.Clients),
		Contacts:    cloneSlice(s.Contacts),
		Subscribers: cloneSlice(s.Subscribers),
	}
}

// Counts summarises the size of each collection.
type Counts struct {
	Projects    int `json:"projects"`
	Clients     int `json:"clients"`
	Contacts    int `json:"contacts"`
	Subscribers int `json:"subscribers"`
}

// Counts reports the number of entries in each collection.
func (s Snapshot) Counts() Counts {
	return Counts{
		Projects:    len(s.Projects),
		Clients:     len(s.Clients),
		Contacts:    len(s.Contacts),
		Subscribers: len(s.Subscribers),
	}
}

// cloneSlice never returns nil so encoded snapshots always carry arrays.
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
