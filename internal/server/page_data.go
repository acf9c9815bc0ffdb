package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/Its-donkey/buildfront/internal/store"
)

type basePageData struct {
	Page        string
	PageTitle   string
	SiteName    string
	CurrentYear int
	Notice      string
}

type homePageData struct {
	basePageData
	Projects   []store.Project
	Clients    []store.Client
	Contact    formView[store.ContactInput]
	Newsletter newsletterView
}

type adminPageData struct {
	basePageData
	Tab         string
	Snapshot    store.Snapshot
	Counts      store.Counts
	ProjectForm formView[store.ProjectInput]
	ClientForm  formView[store.ClientInput]
}

// formView carries submitted values back into a form together with the
// per-field messages from a failed validation.
type formView[T any] struct {
	Values T
	Errors map[string]string
}

type newsletterView struct {
	Email string
	Error string
}

var notices = map[string]string{
	"contact-sent":    "Message sent! We'll get back to you shortly.",
	"subscribed":      "Thank you for joining our newsletter.",
	"project-added":   "Project added.",
	"project-deleted": "Project deleted.",
	"client-added":    "Client added.",
	"client-deleted":  "Client deleted.",
}

var adminTabs = map[string]bool{
	"projects":    true,
	"clients":     true,
	"contacts":    true,
	"subscribers": true,
}

func (s *server) base(r *http.Request, page, title string) basePageData {
	return basePageData{
		Page:        page,
		PageTitle:   title,
		SiteName:    s.siteName,
		CurrentYear: s.now().Year(),
		Notice:      notices[r.URL.Query().Get("notice")],
	}
}

func (s *server) homeData(r *http.Request) homePageData {
	snap := s.store.Snapshot()
	return homePageData{
		basePageData: s.base(r, "home", "Building Tomorrow's World Today"),
		Projects:     snap.Projects,
		Clients:      snap.Clients,
	}
}

func (s *server) adminData(r *http.Request, tab string) adminPageData {
	if !adminTabs[tab] {
		tab = "projects"
	}
	snap := s.store.Snapshot()
	return adminPageData{
		basePageData: s.base(r, "admin", "Admin Dashboard"),
		Tab:          tab,
		Snapshot:     snap,
		Counts:       snap.Counts(),
	}
}

// render executes the named page into a buffer first so a template failure
// still produces a clean 500.
func (s *server) render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		s.logger.Error("server", "template missing", nil, map[string]any{"page": page})
		http.Error(w, "template missing", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		s.logger.Error("server", "render page", err, map[string]any{"page": page, "path": r.URL.Path})
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func fieldErrors(err error) map[string]string {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return map[string]string{"form": err.Error()}
}
