// Package events implements the synchronous publish/subscribe bus that
// decouples application state from rendering.
//
// Dispatch is single threaded: Publish calls every matching handler in
// subscription order and returns when the last one has finished. A handler
// may publish again; the nested publish runs to completion before the outer
// one moves on to its next handler. Panics raised by handlers are not
// recovered. A Bus is not safe for concurrent use; every session owns one.
package events

import "regexp"

// Handler receives the payload of a matched event.
type Handler func(payload any)

// AllHandler receives every published event.
type AllHandler func(name Name, payload any)

// Matcher decides whether a subscription accepts an event name.
type Matcher interface {
	Match(name Name) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(name Name) bool

func (f MatcherFunc) Match(name Name) bool { return f(name) }

// Exact matches a single event name.
func Exact(name Name) Matcher {
	return MatcherFunc(func(n Name) bool { return n == name })
}

// Pattern matches event names against a regular expression.
func Pattern(re *regexp.Regexp) Matcher {
	return MatcherFunc(func(n Name) bool { return re.MatchString(string(n)) })
}

// FieldChanges matches field-level change events of the given forms, or of
// any form when none are given.
func FieldChanges(forms ...Namespace) Matcher {
	return MatcherFunc(func(n Name) bool {
		form, _, ok := n.FieldChange()
		if !ok {
			return false
		}
		if len(forms) == 0 {
			return true
		}
		for _, f := range forms {
			if f == form {
				return true
			}
		}
		return false
	})
}

var matchAll = MatcherFunc(func(Name) bool { return true })

// Subscription is the handle returned by the Subscribe family.
// The zero value refers to no subscription.
type Subscription struct {
	id uint64
}

// Valid reports whether the handle was issued by a Bus.
func (s Subscription) Valid() bool { return s.id != 0 }

type subscriber struct {
	id        uint64
	matcher   Matcher
	handle    AllHandler
	cancelled bool
}

type Bus struct {
	subs   []*subscriber
	nextID uint64
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for every event accepted by m.
func (b *Bus) Subscribe(m Matcher, h Handler) Subscription {
	return b.add(m, func(_ Name, payload any) { h(payload) })
}

// On registers h for the named event.
func (b *Bus) On(name Name, h Handler) Subscription {
	return b.Subscribe(Exact(name), h)
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h AllHandler) Subscription {
	return b.add(matchAll, h)
}

func (b *Bus) add(m Matcher, h AllHandler) Subscription {
	b.nextID++
	b.subs = append(b.subs, &subscriber{
		id:      b.nextID,
		matcher: m,
		handle:  h,
	})
	return Subscription{id: b.nextID}
}

// Unsubscribe removes a registration. Unknown or already removed handles are
// ignored.
func (b *Bus) Unsubscribe(s Subscription) {
	for i, sub := range b.subs {
		if sub.id != s.id {
			continue
		}
		sub.cancelled = true

		// Publishes in flight iterate over the old slice, so build a new one.
		next := make([]*subscriber, 0, len(b.subs)-1)
		next = append(next, b.subs[:i]...)
		b.subs = append(next, b.subs[i+1:]...)
		return
	}
}

// Publish delivers payload to every handler whose matcher accepts name.
func (b *Bus) Publish(name Name, payload any) {
	subs := b.subs
	for _, sub := range subs {
		if sub.cancelled || !sub.matcher.Match(name) {
			continue
		}
		sub.handle(name, payload)
	}
}

// HandlerCount returns the number of registrations accepting name,
// catch-all observers included.
func (b *Bus) HandlerCount(name Name) int {
	n := 0
	for _, sub := range b.subs {
		if sub.matcher.Match(name) {
			n++
		}
	}
	return n
}
