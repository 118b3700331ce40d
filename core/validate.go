package widget

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// UserContext is the profile the user submits before a session starts. It is
// passed by value into whichever transport opens the session and never
// mutated afterwards.
type UserContext struct {
	Name  string
	Email string
	Issue string
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError reports invalid UserContext fields. It never transitions
// widget state; the rendering layer presents the field messages inline.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid user context fields: %s", strings.Join(fields, ", "))
}

// Validate checks the presence of every field and the shape of the email.
func (u UserContext) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(u.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(u.Email) == "" {
		fields["email"] = "Email is required"
	} else if !emailShape.MatchString(u.Email) {
		fields["email"] = "Invalid email format"
	}
	if strings.TrimSpace(u.Issue) == "" {
		fields["issue"] = "Please describe your issue"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// variableValues maps the context onto the backend's first-turn variable
// names, shared by both transports.
func (u UserContext) variableValues() map[string]string {
	return map[string]string{
		"userName":  u.Name,
		"userEmail": u.Email,
		"userIssue": u.Issue,
	}
}
