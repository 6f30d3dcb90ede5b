// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/healthmap/internal/config"
)

type passEvent struct {
	PassID string `json:"pass_id"`
	Alerts int    `json:"alerts"`
}

func newChannel(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func receive(t *testing.T, msgs <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-msgs:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestPublisher_Publish(t *testing.T) {
	ch := newChannel(t)
	msgs, err := ch.Subscribe(context.Background(), "healthmap.refresh_completed")
	if err != nil {
		t.Fatal(err)
	}

	p := NewPublisher(ch, "healthmap")
	if err := p.Publish("refresh_completed", passEvent{PassID: "ab12", Alerts: 3}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg := receive(t, msgs)
	if got := msg.Metadata.Get("event_type"); got != "refresh_completed" {
		t.Errorf("event_type metadata = %q", got)
	}
	if got := msg.Metadata.Get("source"); got != "healthmap" {
		t.Errorf("source metadata = %q", got)
	}
	var ev passEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.PassID != "ab12" || ev.Alerts != 3 {
		t.Errorf("payload = %+v", ev)
	}
}

func TestPublisher_Topic(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"healthmap", "healthmap.map_center"},
		{"", "map_center"},
	}
	for _, tt := range tests {
		if got := NewPublisher(newChannel(t), tt.prefix).Topic("map_center"); got != tt.want {
			t.Errorf("Topic with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestPublisher_Closed(t *testing.T) {
	p := NewPublisher(newChannel(t), "x")
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := p.Publish("refresh_completed", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	// BroadcastJSON only logs.
	p.BroadcastJSON("refresh_completed", nil)
}

func TestNewFromConfig_Disabled(t *testing.T) {
	p, cleanup, err := NewFromConfig(config.EventsConfig{})
	if err != nil || p != nil {
		t.Fatalf("disabled config = %v, %v", p, err)
	}
	cleanup()
}

func TestEmbeddedServerRoundTrip(t *testing.T) {
	srv, err := StartEmbeddedServer("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("StartEmbeddedServer: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	p, err := NewNATSPublisher(srv.ClientURL(), "healthmap", watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewNATSPublisher: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(nc.Close)
	sub, err := nc.SubscribeSync("healthmap.refresh_completed")
	if err != nil {
		t.Fatal(err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	if err := p.Publish("refresh_completed", passEvent{PassID: "ff00"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	var ev passEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.PassID != "ff00" {
		t.Errorf("payload = %+v", ev)
	}
}
