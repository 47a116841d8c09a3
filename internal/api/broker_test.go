package api

import (
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    rid := "r1"
    ch := b.Subscribe(rid)

    evt := RunEvent{Type: EventProgress, RunID: rid, Data: map[string]any{"step": 1}}
    b.Publish(rid, evt)
    b.Publish("other", RunEvent{Type: EventFinished})

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if got.Data["step"].(int) != 1 { t.Fatalf("bad payload: %+v", got.Data) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }
    select {
    case got := <-ch:
        t.Fatalf("event for another run delivered: %+v", got)
    default:
    }

    b.Unsubscribe(rid, ch)
    b.Unsubscribe(rid, ch) // second call is a no-op
    if _, ok := <-ch; ok { t.Fatal("channel should be closed after unsubscribe") }
}

func TestBrokerDropsWhenFull(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("r")
    defer b.Unsubscribe("r", ch)
    done := make(chan struct{})
    go func() {
        for i := 0; i < 1000; i++ { b.Publish("r", RunEvent{Type: EventProgress}) }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("publish blocked on a full subscriber")
    }
}

func TestRedisBrokerRoundTrip(t *testing.T) {
    mr := miniredis.RunT(t)
    b, err := NewRedisBroker("redis://" + mr.Addr())
    if err != nil { t.Fatalf("NewRedisBroker: %v", err) }
    defer b.Close()

    ch := b.Subscribe("run-1")
    b.Publish("run-1", RunEvent{Type: EventFinished, RunID: "run-1", Data: map[string]any{"cost": 12.5}})

    select {
    case got := <-ch:
        if got.Type != EventFinished || got.RunID != "run-1" { t.Fatalf("unexpected event %+v", got) }
        if got.Data["cost"].(float64) != 12.5 { t.Fatalf("bad payload: %+v", got.Data) }
    case <-time.After(2 * time.Second):
        t.Fatal("timeout waiting for redis event")
    }

    b.Unsubscribe("run-1", ch)
    select {
    case _, ok := <-ch:
        if ok { t.Fatal("unexpected event after unsubscribe") }
    case <-time.After(2 * time.Second):
        t.Fatal("channel not closed after unsubscribe")
    }
}

func TestRedisBrokerBadURL(t *testing.T) {
    if _, err := NewRedisBroker("not a url"); err == nil {
        t.Fatal("want error for bad url")
    }
}
