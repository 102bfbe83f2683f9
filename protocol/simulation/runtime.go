package simulation

import (
	"context"
	"sync"

	"github.com/CityOfZion/neo-ruby-sdk/log"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

func init() {
	// at= should name the host call that logged
	log.SkipFunc("github.com/CityOfZion/neo-ruby-sdk/protocol/simulation.(*Runtime).log")
}

// Notification is an item passed to Runtime.Notify.
type Notification struct {
	Script vm.Hash
	Item   vm.Item
}

// Runtime collects the messages and notifications emitted by
// contracts.
type Runtime struct {
	mu            sync.Mutex
	logs          []string
	notifications []Notification

	// Verbose also writes each message to the log package.
	Verbose bool
}

func (r *Runtime) log(ctx context.Context, h vm.Hash, msg string) {
	r.mu.Lock()
	r.logs = append(r.logs, msg)
	r.mu.Unlock()
	if r.Verbose {
		log.Printkv(log.WithScript(ctx, h), log.KeyMessage, msg)
	}
}

func (r *Runtime) notify(h vm.Hash, it vm.Item) {
	r.mu.Lock()
	r.notifications = append(r.notifications, Notification{Script: h, Item: it})
	r.mu.Unlock()
}

// Logs returns the messages logged so far, oldest first.
func (r *Runtime) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}

// Notifications returns the notifications sent so far, oldest first.
func (r *Runtime) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

func (r *Runtime) reset() {
	r.mu.Lock()
	r.logs = nil
	r.notifications = nil
	r.mu.Unlock()
}
