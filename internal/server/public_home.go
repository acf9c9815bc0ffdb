package server

import (
	"net/http"

	"github.com/Its-donkey/buildfront/internal/store"
)

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", http.StatusOK, s.homeData(r))
}

func (s *server) handleContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	in, err := store.NewContactInput(
		r.PostFormValue("fullName"),
		r.PostFormValue("email"),
		r.PostFormValue("mobile"),
		r.PostFormValue("city"),
	)
	if err != nil {
		data := s.homeData(r)
		data.Contact = formView[store.ContactInput]{Values: in, Errors: fieldErrors(err)}
		s.render(w, r, "home", http.StatusUnprocessableEntity, data)
		return
	}

	contact := s.store.AddContact(r.Context(), in)
	s.requestLog(r).WithField("contactId", contact.ID).Info("contact submitted")
	http.Redirect(w, r, "/?notice=contact-sent#contact", http.StatusSeeOther)
}

func (s *server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	email, err := store.NewSubscriberEmail(r.PostFormValue("email"))
	if err != nil {
		data := s.homeData(r)
		data.Newsletter = newsletterView{Email: email, Error: fieldErrors(err)["email"]}
		s.render(w, r, "home", http.StatusUnprocessableEntity, data)
		return
	}

	sub := s.store.AddSubscriber(r.Context(), email)
	s.requestLog(r).WithField("subscriberId", sub.ID).Info("newsletter signup")
	http.Redirect(w, r, "/?notice=subscribed#newsletter", http.StatusSeeOther)
}
