// Package webhook fires the outbound DocumentUpdatedEvent notification
// (spec.md §4.15, component C15): a best-effort, fire-and-forget POST so a
// slow or dead subscriber never backs up the mutation dispatcher.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Event is the payload POSTed to the configured webhook URL on every
// committed mutation, whether locally authored or remotely merged.
type Event struct {
	DocID        string `json:"doc_id"`
	TimestampUTC int64  `json:"timestamp"`
	UpdateB64    string `json:"update_base64"`
}

// Dispatcher posts events to a single configured URL from a small worker
// pool, so a burst of mutations can't pile up unbounded goroutines.
type Dispatcher struct {
	url     string
	client  *http.Client
	work    chan Event
	stop    chan struct{}
	log     *nlog.Tagged
}

const workers = 4

func New(cfg *cmn.Config) *Dispatcher {
	return &Dispatcher{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: time.Duration(cfg.WebhookTimeoutMS) * time.Millisecond},
		work:   make(chan Event, 256),
		stop:   make(chan struct{}),
		log:    nlog.Component("webhook"),
	}
}

// Enabled reports whether a webhook URL was configured; Fire returns
// without queuing anything when it isn't, per spec.md's optional webhook.
func (d *Dispatcher) Enabled() bool { return d.url != "" }

// Fire enqueues an event for best-effort delivery; it never blocks the
// caller (the CRDT observer), matching the bounded-channel pattern used
// throughout this codebase.
func (d *Dispatcher) Fire(docID string, update []byte, nowUnix int64) {
	if !d.Enabled() {
		return
	}
	ev := Event{DocID: docID, TimestampUTC: nowUnix, UpdateB64: base64.StdEncoding.EncodeToString(update)}
	select {
	case d.work <- ev:
	default:
		d.log.Errorln("webhook queue full, dropping event for", docID)
	}
}

// Run drains the work queue on dedicated goroutines until Stop is called.
func (d *Dispatcher) Run(ctx context.Context) {
	for i := 0; i < workers; i++ {
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case ev := <-d.work:
			d.post(ctx, ev)
		case <-d.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) Stop() { close(d.stop) }

func (d *Dispatcher) post(ctx context.Context, ev Event) {
	body, err := jsonAPI.Marshal(ev)
	if err != nil {
		d.log.Errorln("marshal webhook event:", err.Error())
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		d.log.Errorln("build webhook request:", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warnln("webhook delivery failed for", ev.DocID, ":", err.Error())
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.log.Warnln("webhook subscriber returned", resp.StatusCode, "for", ev.DocID)
	}
}
