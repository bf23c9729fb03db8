package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/visitor-desk/pkg/logger"
)

// MemoryBus delivers events synchronously inside the process. It backs local
// development when NATS is disabled and lets tests observe published events.
type MemoryBus struct {
	mu       sync.RWMutex
	subs     []memorySub
	queues   map[string]int
	seq      int64
	closed   bool
	Messages []*Message
}

type memorySub struct {
	subject string
	queue   string
	handler func(msg *Message)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{queues: make(map[string]int)}
}

func (b *MemoryBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("event bus closed")
	}
	b.seq++
	msg := &Message{
		Subject:   subject,
		Data:      payload,
		Timestamp: time.Now(),
		ID:        fmt.Sprintf("mem-%d", b.seq),
	}
	b.Messages = append(b.Messages, msg)
	targets := b.targetsLocked(subject)
	b.mu.Unlock()

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	for _, h := range targets {
		h(msg)
	}
	return nil
}

// targetsLocked picks every plain subscriber plus one member per queue group.
func (b *MemoryBus) targetsLocked(subject string) []func(*Message) {
	var out []func(*Message)
	groups := make(map[string][]func(*Message))
	for _, s := range b.subs {
		if !subjectMatches(s.subject, subject) {
			continue
		}
		if s.queue == "" {
			out = append(out, s.handler)
			continue
		}
		groups[s.queue] = append(groups[s.queue], s.handler)
	}
	for queue, members := range groups {
		idx := b.queues[queue] % len(members)
		b.queues[queue]++
		out = append(out, members[idx])
	}
	return out
}

func (b *MemoryBus) Subscribe(subject string, handler func(msg *Message)) error {
	return b.QueueSubscribe(subject, "", handler)
}

func (b *MemoryBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}
	b.subs = append(b.subs, memorySub{subject: subject, queue: queue, handler: handler})
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}

// Published returns the subjects seen so far, in publish order.
func (b *MemoryBus) Published() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.Messages))
	for _, m := range b.Messages {
		out = append(out, m.Subject)
	}
	return out
}

// subjectMatches supports the NATS tokens "*" (one token) and ">" (the rest).
func subjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, tok := range pt {
		if tok == ">" {
			return len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if tok != "*" && tok != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
