package ui

import (
	"context"
	"superchat/projection"

	tea "github.com/charmbracelet/bubbletea"
)

// Relay forwards controller states to a running program. Observe never
// blocks the controller loop: a pending state not yet delivered is replaced
// by the newer one.
type Relay struct {
	pending chan projection.State
}

func NewRelay() *Relay {
	return &Relay{pending: make(chan projection.State, 1)}
}

// Observe is meant to be registered as the controller observer.
func (r *Relay) Observe(state projection.State) {
	for {
		select {
		case r.pending <- state:
			return
		default:
		}
		select {
		case <-r.pending:
		default:
		}
	}
}

// Run delivers states with send, usually (*tea.Program).Send, until ctx is done.
func (r *Relay) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-r.pending:
			send(StateMsg(state))
		}
	}
}
