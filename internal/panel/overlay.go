// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package panel

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/healthmap/internal/websocket"
)

// Retained key for the open panel.
const retainKey = "panel"

// Variant is the panel kind.
type Variant string

// Panel variants.
const (
	VariantAlert  Variant = "alert"
	VariantHealth Variant = "health"
)

// Publisher receives overlay messages. *websocket.Hub satisfies it.
type Publisher interface {
	Publish(key, messageType string, data interface{})
	Retain(key, messageType string, data interface{})
	Forget(key string)
}

// Node is one overlay in the document.
type Node struct {
	ID        string            `json:"id"`
	Variant   Variant           `json:"variant"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
}

func (n *Node) clone() Node {
	fields := make(map[string]string, len(n.Fields))
	for k, v := range n.Fields {
		fields[k] = v
	}
	return Node{ID: n.ID, Variant: n.Variant, Fields: fields, CreatedAt: n.CreatedAt}
}

// PatchMessage is the panel_patch payload.
type PatchMessage struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// CloseMessage is the panel_close payload.
type CloseMessage struct {
	ID     string `json:"id"`
	FadeMs int64  `json:"fade_ms"`
}

// OverlayDocument holds the overlay nodes currently in the page.
type OverlayDocument struct {
	pub Publisher

	mu      sync.Mutex
	nodes   map[string]*Node
	closing map[string]bool
}

// NewOverlayDocument creates an empty document. pub may be nil.
func NewOverlayDocument(pub Publisher) *OverlayDocument {
	return &OverlayDocument{
		pub:     pub,
		nodes:   make(map[string]*Node),
		closing: make(map[string]bool),
	}
}

// Create inserts a node and returns a copy of it.
func (d *OverlayDocument) Create(variant Variant, fields map[string]string) Node {
	n := &Node{
		ID:        uuid.NewString(),
		Variant:   variant,
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	d.nodes[n.ID] = n
	snapshot := n.clone()
	d.mu.Unlock()

	if d.pub != nil {
		d.pub.Publish(retainKey, websocket.MessageTypePanelOpen, snapshot)
	}
	return snapshot
}

// Exists reports whether id is in the document and not fading out.
func (d *OverlayDocument) Exists(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.nodes[id]
	return ok && !d.closing[id]
}

// Patch sets one field on a live node. It reports false if the node is gone.
func (d *OverlayDocument) Patch(id, field, value string) bool {
	d.mu.Lock()
	n, ok := d.nodes[id]
	if !ok || d.closing[id] {
		d.mu.Unlock()
		return false
	}
	n.Fields[field] = value
	snapshot := n.clone()
	d.mu.Unlock()

	if d.pub != nil {
		d.pub.Publish("", websocket.MessageTypePanelPatch, PatchMessage{ID: id, Field: field, Value: value})
		d.pub.Retain(retainKey, websocket.MessageTypePanelOpen, snapshot)
	}
	return true
}

// Remove detaches id. With a positive fade the node stays in the document,
// no longer live, until the fade elapses.
func (d *OverlayDocument) Remove(id string, fade time.Duration) bool {
	d.mu.Lock()
	if _, ok := d.nodes[id]; !ok || d.closing[id] {
		d.mu.Unlock()
		return false
	}
	if fade > 0 {
		d.closing[id] = true
		time.AfterFunc(fade, func() { d.drop(id) })
	} else {
		delete(d.nodes, id)
	}
	d.mu.Unlock()

	if d.pub != nil {
		d.pub.Forget(retainKey)
		d.pub.Publish("", websocket.MessageTypePanelClose, CloseMessage{ID: id, FadeMs: fade.Milliseconds()})
	}
	return true
}

func (d *OverlayDocument) drop(id string) {
	d.mu.Lock()
	delete(d.nodes, id)
	delete(d.closing, id)
	d.mu.Unlock()
}

// RemoveAll removes every node immediately, fading or not, and returns how
// many were removed.
func (d *OverlayDocument) RemoveAll() int {
	d.mu.Lock()
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	d.nodes = make(map[string]*Node)
	d.closing = make(map[string]bool)
	d.mu.Unlock()

	if d.pub != nil && len(ids) > 0 {
		sort.Strings(ids)
		d.pub.Forget(retainKey)
		for _, id := range ids {
			d.pub.Publish("", websocket.MessageTypePanelClose, CloseMessage{ID: id})
		}
	}
	return len(ids)
}

// Get returns a copy of a node.
func (d *OverlayDocument) Get(id string) (Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Count returns how many nodes of variant are in the document, including
// ones still fading out. An empty variant counts all.
func (d *OverlayDocument) Count(variant Variant) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, node := range d.nodes {
		if variant == "" || node.Variant == variant {
			n++
		}
	}
	return n
}
