package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"datagpt-client/internal/entity"
	"datagpt-client/internal/gateway"
	"datagpt-client/internal/pkg/logger"

	"github.com/google/uuid"
)

// conversationLog is one workspace's message log together with its send mutex
// and generation counter. The record is never removed from the map, so a send
// issued right after a Forget still queues behind the in-flight one. The
// generation moves on every Forget; a reply resolving against an older
// generation is dropped instead of resurrecting the cleared log.
type conversationLog struct {
	send sync.Mutex
	gen  uint64
	msgs []entity.ChatMessage
}

// ConversationStore owns the per-workspace message logs. Logs for different
// workspaces are independent and never merged; within one workspace the order
// is strict insertion order with user/assistant pairing preserved.
type ConversationStore struct {
	notifier

	gw      *gateway.Client
	session *SessionStore
	log     logger.ILogger

	mu     sync.Mutex
	logs   map[int64]*conversationLog
	closed bool
}

func NewConversationStore(gw *gateway.Client, session *SessionStore, log logger.ILogger) *ConversationStore {
	return &ConversationStore{
		gw:      gw,
		session: session,
		log:     log,
		logs:    make(map[int64]*conversationLog),
	}
}

// Messages returns a copy of one workspace's log.
func (c *ConversationStore) Messages(workspaceId int64) []entity.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.logs[workspaceId]
	if !ok {
		return nil
	}
	return append([]entity.ChatMessage(nil), rec.msgs...)
}

// MessageCount implements MessageCounter for the workspace store's derived
// counts.
func (c *ConversationStore) MessageCount(workspaceId int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.logs[workspaceId]
	if !ok {
		return 0
	}
	return len(rec.msgs)
}

// SendMessage appends the user's turn immediately, queries the LLM gateway,
// and appends the assistant's turn with its citations in server order. On
// failure the user message stays in the log (it was genuinely attempted) and
// no assistant message is appended. Sends to the same workspace serialize:
// a second send issued before the first resolves queues behind it, so an
// assistant reply can never land before its triggering user message. A Forget
// during the round-trip invalidates the send; the late reply is dropped.
func (c *ConversationStore) SendMessage(ctx context.Context, workspaceId int64, text string) (*entity.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Message: "message must not be empty"}
	}
	if err := c.session.Guard(); err != nil {
		return nil, err
	}

	rec := c.entry(workspaceId)
	rec.send.Lock()
	defer rec.send.Unlock()

	userMsg := entity.ChatMessage{
		Id:        uuid.New(),
		Role:      entity.ChatRoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &ValidationError{Message: "store is closed"}
	}
	gen := rec.gen
	rec.msgs = append(rec.msgs, userMsg)
	c.mu.Unlock()
	c.publish()

	resp, err := c.gw.Query(ctx, text)
	if err != nil {
		c.log.Error("conversation", "query failed", map[string]interface{}{
			"ws_id": workspaceId,
			"error": err.Error(),
		})
		return nil, err
	}

	sources := make([]entity.Source, 0, len(resp.Sources))
	for _, src := range resp.Sources {
		sources = append(sources, entity.Source{
			SourceId: src.SourceId,
			File:     src.File,
			Page:     src.Page,
			Summary:  src.Summary,
		})
	}
	assistantMsg := entity.ChatMessage{
		Id:        uuid.New(),
		Role:      entity.ChatRoleAssistant,
		Content:   resp.Answer,
		CreatedAt: time.Now(),
		Sources:   sources,
	}

	c.mu.Lock()
	if c.closed || rec.gen != gen {
		c.mu.Unlock()
		return nil, &ValidationError{Message: "conversation no longer exists"}
	}
	rec.msgs = append(rec.msgs, assistantMsg)
	c.mu.Unlock()
	c.publish()
	return &assistantMsg, nil
}

// Forget clears one workspace's log, e.g. after the workspace is deleted. Any
// in-flight send for that workspace is invalidated so its reply cannot
// recreate the log when it arrives.
func (c *ConversationStore) Forget(workspaceId int64) {
	c.mu.Lock()
	if rec, ok := c.logs[workspaceId]; ok {
		rec.gen++
		rec.msgs = nil
	}
	c.mu.Unlock()
	c.publish()
}

// Close stops the store accepting appends from in-flight sends.
func (c *ConversationStore) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *ConversationStore) entry(workspaceId int64) *conversationLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.logs[workspaceId]
	if !ok {
		rec = &conversationLog{}
		c.logs[workspaceId] = rec
	}
	return rec
}
