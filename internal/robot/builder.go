package robot

import (
	"strconv"
	"time"
)

// Builder assembles an action list step by step
type Builder struct {
	list ActionList
}

// New starts an action list for url
func New(url string) *Builder {
	return &Builder{list: ActionList{URL: url, Actions: []Action{}}}
}

func (b *Builder) add(t ActionType, selector string, value *string) *Builder {
	b.list.Actions = append(b.list.Actions, Action{Type: t, Selector: selector, Value: value})
	return b
}

// Click clicks the element
func (b *Builder) Click(selector string) *Builder {
	return b.add(Click, selector, nil)
}

// Type types text into the element
func (b *Builder) Type(selector, text string) *Builder {
	return b.add(Type, selector, &text)
}

// Select picks option in a select element
func (b *Builder) Select(selector, option string) *Builder {
	return b.add(Select, selector, &option)
}

// Wait pauses for d, optionally for the element to appear when selector is set
func (b *Builder) Wait(selector string, d time.Duration) *Builder {
	ms := strconv.FormatInt(d.Milliseconds(), 10)
	return b.add(Wait, selector, &ms)
}

// Hover moves the pointer over the element
func (b *Builder) Hover(selector string) *Builder {
	return b.add(Hover, selector, nil)
}

// Submit submits the form containing the element
func (b *Builder) Submit(selector string) *Builder {
	return b.add(Submit, selector, nil)
}

// Build validates and returns the action list
func (b *Builder) Build() (*ActionList, error) {
	l := b.list
	l.Actions = append([]Action{}, b.list.Actions...)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// ParseAction builds an action from command line arguments
func ParseAction(typ, selector string, value ...string) (Action, error) {
	a := Action{Type: ActionType(typ), Selector: selector}
	if len(value) > 0 {
		v := value[0]
		a.Value = &v
	}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}
