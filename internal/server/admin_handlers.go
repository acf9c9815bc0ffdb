package server

import (
	"net/http"
	"net/url"

	"github.com/Its-donkey/buildfront/internal/store"
)

func (s *server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "admin", http.StatusOK, s.adminData(r, r.URL.Query().Get("tab")))
}

func (s *server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	in, err := store.NewProjectInput(
		r.PostFormValue("name"),
		r.PostFormValue("description"),
		r.PostFormValue("imageUrl"),
	)
	if err != nil {
		data := s.adminData(r, "projects")
		data.ProjectForm = formView[store.ProjectInput]{Values: in, Errors: fieldErrors(err)}
		s.render(w, r, "admin", http.StatusUnprocessableEntity, data)
		return
	}

	project := s.store.AddProject(r.Context(), in)
	s.requestLog(r).WithField("projectId", project.ID).Info("project added")
	redirectAdmin(w, r, "projects", "project-added")
}

func (s *server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed := s.store.DeleteProject(r.Context(), id)
	s.requestLog(r).WithField("projectId", id).WithField("removed", removed).Info("project delete")
	redirectAdmin(w, r, "projects", "project-deleted")
}

func (s *server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	in, err := store.NewClientInput(
		r.PostFormValue("name"),
		r.PostFormValue("description"),
		r.PostFormValue("designation"),
		r.PostFormValue("imageUrl"),
	)
	if err != nil {
		data := s.adminData(r, "clients")
		data.ClientForm = formView[store.ClientInput]{Values: in, Errors: fieldErrors(err)}
		s.render(w, r, "admin", http.StatusUnprocessableEntity, data)
		return
	}

	client := s.store.AddClient(r.Context(), in)
	s.requestLog(r).WithField("clientId", client.ID).Info("client added")
	redirectAdmin(w, r, "clients", "client-added")
}

func (s *server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed := s.store.DeleteClient(r.Context(), id)
	s.requestLog(r).WithField("clientId", id).WithField("removed", removed).Info("client delete")
	redirectAdmin(w, r, "clients", "client-deleted")
}

func redirectAdmin(w http.ResponseWriter, r *http.Request, tab, notice string) {
	values := url.Values{}
	values.Set("tab", tab)
	values.Set("notice", notice)
	http.Redirect(w, r, "/admin?"+values.Encode(), http.StatusSeeOther)
}
