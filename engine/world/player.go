package world

import (
	"sync"

	"github.com/nathoo/trogdor/types"
)

// PendingCommand is a command waiting for the player to say which of
// several candidates they meant. The next input line names the choice.
type PendingCommand struct {
	Command types.Command
	// Indirect is true when the ambiguous word was the indirect object.
	Indirect   bool
	Candidates []string
}

// Player is a being driven by commands. Output produced on its behalf,
// including output from scheduler jobs, queues in an outbox that the front
// end drains.
type Player struct {
	Being

	outMu  sync.Mutex
	outbox []string
	notify chan struct{}

	pending *PendingCommand
}

// NewPlayer creates a living player outside any world.
func NewPlayer(name string) *Player {
	p := &Player{notify: make(chan struct{}, 1)}
	p.initBeing(KindPlayer, name, p)
	return p
}

// Out queues a line of output for the player.
func (p *Player) Out(line string) {
	p.outMu.Lock()
	p.outbox = append(p.outbox, line)
	p.outMu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Drain returns and clears the queued output.
func (p *Player) Drain() []string {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	lines := p.outbox
	p.outbox = nil
	return lines
}

// Notify receives a value whenever output was queued since the last
// receive.
func (p *Player) Notify() <-chan struct{} { return p.notify }

// SetPending installs (or with nil, clears) a disambiguation request.
func (p *Player) SetPending(pc *PendingCommand) {
	p.mu.Lock()
	p.pending = pc
	p.mu.Unlock()
}

// Pending returns the outstanding disambiguation request, if any.
func (p *Player) Pending() *PendingCommand {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pending
}

// TakePending returns and clears the outstanding request.
func (p *Player) TakePending() *PendingCommand {
	p.mu.Lock()
	defer p.mu.Unlock()
	pc := p.pending
	p.pending = nil
	return pc
}
