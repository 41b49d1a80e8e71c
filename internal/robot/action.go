// Package robot builds and checks the action lists consumed by the browser
// automation service.
//
// An action list is a JSON document of the form
//
//	{"url": "https://app.example/login", "actions": [{"type": "type", "selector": "#email", "value": "ops@example.test"}]}
package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ActionType is the kind of interaction performed by the robot
type ActionType string

const (
	Click  ActionType = "click"
	Type   ActionType = "type"
	Select ActionType = "select"
	Wait   ActionType = "wait"
	Hover  ActionType = "hover"
	Submit ActionType = "submit"
)

// Kind is the selector language of an action
type Kind string

const (
	CSS   Kind = "css"
	XPath Kind = "xpath"
)

// SelectorKind reports whether selector is an XPath expression or a CSS selector
func SelectorKind(selector string) Kind {
	s := strings.TrimSpace(selector)
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "(") {
		return XPath
	}
	return CSS
}

// Action is one step of an action list
type Action struct {
	Type     ActionType `json:"type" validate:"required,oneof=click type select wait hover submit"`
	Selector string     `json:"selector" validate:"required_unless=Type wait"`
	Value    *string    `json:"value,omitempty"`
}

// ActionList is the document sent to the automation service
type ActionList struct {
	URL     string   `json:"url" validate:"required,http_url"`
	Actions []Action `json:"actions" validate:"dive"`
}

// FieldError is a single validation issue
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects every issue found in an action list
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Field + ": " + e.Message
	}
	return "invalid action list: " + strings.Join(msgs, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags and the per-type value rules
func (l *ActionList) Validate() error {
	var errs ValidationErrors

	if err := validate.Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{Field: fieldPath(fe.Namespace()), Message: tagMessage(fe)})
		}
	}

	for i, a := range l.Actions {
		if err := a.checkValue(); err != nil {
			errs = append(errs, FieldError{Field: fmt.Sprintf("actions[%d].value", i), Message: err.Error()})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks a single action
func (a Action) Validate() error {
	l := ActionList{URL: "http://localhost", Actions: []Action{a}}
	return l.Validate()
}

// checkValue enforces which types carry a value
func (a Action) checkValue() error {
	switch a.Type {
	case Type, Select:
		if a.Value == nil {
			return fmt.Errorf("required for %s", a.Type)
		}
	case Wait:
		if a.Value == nil {
			return fmt.Errorf("required for wait (milliseconds)")
		}
		ms, err := strconv.Atoi(*a.Value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("must be a positive number of milliseconds, got %q", *a.Value)
		}
	case Click, Hover, Submit:
		if a.Value != nil {
			return fmt.Errorf("not allowed for %s", a.Type)
		}
	}
	return nil
}

// fieldPath drops the root struct name: ActionList.actions[0].type -> actions[0].type
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "http_url":
		return "must be an absolute http or https URL"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// Decode reads an action list, rejecting unknown fields, and validates it
func Decode(r io.Reader) (*ActionList, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var l ActionList
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to decode action list: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Encode writes the action list as indented JSON
func (l *ActionList) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("failed to encode action list: %w", err)
	}
	return nil
}

// Add appends an action after validating it
func (l *ActionList) Add(a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	l.Actions = append(l.Actions, a)
	return nil
}
