// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// NewValidator returns a validator with all the application validations registered.
func NewValidator(inits ...func(*validator.Validate, ut.Translator)) (*validator.Validate, ut.Translator) {
	return core.NewValidator(inits...)
}

// NopLogger discards everything but fatal messages.
type NopLogger struct {
	T *testing.T
}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (l NopLogger) Fatal(msg string, args ...interface{}) {
	if l.T != nil {
		l.T.Fatal(append([]interface{}{msg}, args...)...)
	}
}

// EventRecorder is a core.EventPublisher keeping the published events in memory.
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

var _ core.EventPublisher = (*EventRecorder)(nil)

func (r *EventRecorder) Publish(_ context.Context, evts ...core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evts...)
	return nil
}

// Events returns the recorded events of the given types, all of them if none given.
func (r *EventRecorder) Events(types ...string) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(types) == 0 {
		return append([]core.Event(nil), r.events...)
	}
	want := make(map[string]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	var evts []core.Event
	for _, e := range r.events {
		if want[e.Type] {
			evts = append(evts, e)
		}
	}
	return evts
}

func (r *EventRecorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
