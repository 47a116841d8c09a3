package api

import (
    "sync"
)

// Run event types.
const (
    EventProgress = "run.progress"
    EventFinished = "run.finished"
)

type RunEvent struct {
    Type  string         `json:"type"`
    RunID string         `json:"runId"`
    Data  map[string]any `json:"data,omitempty"`
}

type Broker struct {
    mu      sync.Mutex
    subs    map[string]map[chan RunEvent]struct{} // runId -> set of channels
}

func NewBroker() *Broker {
    return &Broker{subs: map[string]map[chan RunEvent]struct{}{}}
}

func (b *Broker) Subscribe(runID string) chan RunEvent {
    ch := make(chan RunEvent, 32)
    b.mu.Lock()
    if b.subs[runID] == nil { b.subs[runID] = map[chan RunEvent]struct{}{} }
    b.subs[runID][ch] = struct{}{}
    b.mu.Unlock()
    return ch
}

func (b *Broker) Unsubscribe(runID string, ch chan RunEvent) {
    b.mu.Lock()
    defer b.mu.Unlock()
    m := b.subs[runID]
    if _, ok := m[ch]; !ok { return }
    delete(m, ch)
    if len(m) == 0 { delete(b.subs, runID) }
    close(ch)
}

// Publish never blocks; slow subscribers miss progress events.
func (b *Broker) Publish(runID string, evt RunEvent) {
    b.mu.Lock()
    m := b.subs[runID]
    for ch := range m {
        select { case ch <- evt: default: }
    }
    b.mu.Unlock()
}
