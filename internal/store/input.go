package store

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ProjectInput carries the caller-supplied fields of a new project.
type ProjectInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// ClientInput carries the caller-supplied fields of a new client testimonial.
type ClientInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Designation string `json:"designation" validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// ContactInput carries a contact-form submission.
type ContactInput struct {
	FullName string `json:"fullName" validate:"min=2"`
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"min=10"`
	City     string `json:"city" validate:"min=2"`
}

// fieldMessages are the user-facing messages shown by the forms.
var fieldMessages = map[string]string{
	"name":        "Name is required",
	"description": "Description is required",
	"designation": "Designation is required",
	"imageUrl":    "Image URL must be a valid URL",
	"fullName":    "Name is required",
	"email":       "Please enter a valid email",
	"mobile":      "Valid mobile number is required",
	"city":        "City is required",
}

// ValidationError lists the input fields that failed validation, keyed by
// their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("store: invalid input: %s", strings.Join(names, ", "))
}

// Field returns the message for a failed field, or "" when it passed.
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// NewProjectInput trims and validates the fields of a new project.
func NewProjectInput(name, description, imageURL string) (ProjectInput, error) {
	in := ProjectInput{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		ImageURL:    strings.TrimSpace(imageURL),
	}
	return in, check(in)
}

// NewClientInput trims and validates the fields of a new client testimonial.
func NewClientInput(name, description, designation, imageURL string) (ClientInput, error) {
	in := ClientInput{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Designation: strings.TrimSpace(designation),
		ImageURL:    strings.TrimSpace(imageURL),
	}
	return in, check(in)
}

// NewContactInput trims and validates a contact-form submission.
func NewContactInput(fullName, email, mobile, city string) (ContactInput, error) {
	in := ContactInput{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Mobile:   strings.TrimSpace(mobile),
		City:     strings.TrimSpace(city),
	}
	return in, check(in)
}

// NewSubscriberEmail trims and validates a newsletter address.
func NewSubscriberEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return email, &ValidationError{Fields: map[string]string{"email": fieldMessages["email"]}}
	}
	return email, nil
}

func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("store: validate input: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		fields[fe.Field()] = msg
	}
	return &ValidationError{Fields: fields}
}
