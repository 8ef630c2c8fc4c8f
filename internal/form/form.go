// Package form binds rendered checkout forms to the event bus.
//
// A binder turns input into field-change events and never touches the
// application state itself. Validation results come back on
// events.FormErrors and drive the error text and the submit control.
package form

import (
	"errors"
	"strings"

	"web-larek/internal/events"
	"web-larek/internal/validation"
)

var (
	ErrNotValid         = errors.New("form is not valid")
	ErrAlreadySubmitted = errors.New("form already submitted")
)

const errorSeparator = "; "

// Phase is the lifecycle position of a form.
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseInvalid
	PhaseValid
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseInvalid:
		return "invalid"
	case PhaseValid:
		return "valid"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Controls is the rendered side of a form.
type Controls interface {
	SetValue(field events.Field, value string)
	SetValid(valid bool)
	SetErrors(text string)
}

// Form is the state shared by every binder.
type Form struct {
	name   events.Namespace
	bus    *events.Bus
	view   Controls
	fields []events.Field
	values map[events.Field]string
	valid  bool
	errors string
	phase  Phase
}

func newForm(name events.Namespace, bus *events.Bus, view Controls) *Form {
	f := &Form{
		name:   name,
		bus:    bus,
		view:   view,
		fields: validation.Fields[name],
		values: make(map[events.Field]string),
	}
	bus.On(events.FormErrors, f.applyResult)
	return f
}

func (f *Form) Name() events.Namespace { return f.name }

func (f *Form) Phase() Phase { return f.phase }

func (f *Form) Valid() bool { return f.valid }

func (f *Form) Errors() string { return f.errors }

func (f *Form) Value(field events.Field) string { return f.values[field] }

// Input records a field value and publishes "<form>.<field>:change".
func (f *Form) Input(field events.Field, value string) {
	f.values[field] = value

	change := events.FieldChange{Form: f.name, Field: field, Value: value}
	f.bus.Publish(change.Name(), change)
}

// Show starts an editing cycle. valid is the outcome of the validation pass
// run right before the form is rendered; the error text starts empty. A form
// that already passes opens in PhaseValid, anything else in PhaseEditing.
func (f *Form) Show(valid bool) {
	if valid {
		f.phase = PhaseValid
	} else {
		f.phase = PhaseEditing
	}
	f.render(valid, "")
}

func (f *Form) applyResult(payload any) {
	result, ok := payload.(validation.Result)
	if !ok || result.Form != f.name || f.phase == PhaseSubmitted {
		return
	}

	if result.Errors.Valid() {
		f.phase = PhaseValid
	} else {
		f.phase = PhaseInvalid
	}
	f.render(result.Errors.Valid(), f.joinErrors(result.Errors))
}

func (f *Form) joinErrors(errs validation.Errors) string {
	var parts []string
	for _, field := range f.fields {
		if msg := errs[field]; msg != "" {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, errorSeparator)
}

func (f *Form) render(valid bool, errText string) {
	f.valid = valid
	f.errors = errText
	f.view.SetValid(valid)
	f.view.SetErrors(errText)
}

// submit moves the form into PhaseSubmitted. The caller publishes the
// submit event afterwards.
func (f *Form) submit() error {
	if f.phase == PhaseSubmitted {
		return ErrAlreadySubmitted
	}
	if f.phase != PhaseValid {
		return ErrNotValid
	}

	f.phase = PhaseSubmitted
	f.view.SetValid(false)
	return nil
}

// Fail reopens a submitted form with message shown so the user can retry.
func (f *Form) Fail(message string) {
	if f.phase != PhaseSubmitted {
		return
	}
	f.phase = PhaseValid
	f.render(true, message)
}

func (f *Form) reset(defaults map[events.Field]string) {
	f.values = make(map[events.Field]string, len(defaults))
	for field, value := range defaults {
		f.values[field] = value
		f.view.SetValue(field, value)
	}
	f.phase = PhaseEditing
	f.render(false, "")
}
