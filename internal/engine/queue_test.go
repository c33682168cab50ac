package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := newDispatcher()
	var got []string
	d.subscribe(ListenerFunc(func(ev Event) { got = append(got, "a:"+ev.Code.String()) }))
	d.subscribe(ListenerFunc(func(ev Event) { got = append(got, "b:"+ev.Code.String()) }))

	d.fire(Event{Code: ReportStarted})
	d.fire(Event{Code: ReportDone})

	assert.Equal(t, []string{
		"a:report-started", "b:report-started",
		"a:report-done", "b:report-done",
	}, got)
	assert.Equal(t, 2, d.count())
}

func TestDispatcher_ReentrantFireIsQueued(t *testing.T) {
	d := newDispatcher()
	var first, second []EventCode

	d.subscribe(ListenerFunc(func(ev Event) {
		first = append(first, ev.Code)
		if ev.Code == GroupStarted {
			d.fire(Event{Code: GroupFinished})
		}
	}))
	d.subscribe(ListenerFunc(func(ev Event) {
		second = append(second, ev.Code)
	}))

	d.fire(Event{Code: GroupStarted})

	// Every listener sees GroupStarted before the event fired from inside it.
	want := []EventCode{GroupStarted, GroupFinished}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	assert.Equal(t, 2, d.count())
}

func TestDispatcher_NoListeners(t *testing.T) {
	d := newDispatcher()
	d.fire(Event{Code: ItemsAdvanced})
	d.fire(Event{Code: ItemsAdvanced})
	assert.Equal(t, 2, d.count())
}
