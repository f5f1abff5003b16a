package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
)

// RoomInterval is how often a Room polls its messages.
const RoomInterval = 3 * time.Second

// RoomState is a snapshot of a Room.
type RoomState struct {
	Conversation *Conversation
	Messages     []Message
	UnreadCount  int
	Loading      bool
	Sending      bool
	Err          error // last failure, cleared by the next success
}

// Room is the chat view of a single user talking to the support team.
type Room struct {
	src       Source
	logger    core.Logger
	isAdmin   bool
	interval  time.Duration
	newTicker core.TickerFunc

	mu       sync.Mutex
	state    RoomState
	onChange []func(RoomState)
}

func NewRoom(src Source, logger core.Logger, isAdmin bool, interval time.Duration) *Room {
	if interval <= 0 {
		interval = RoomInterval
	}
	return &Room{src: src, logger: logger, isAdmin: isAdmin, interval: interval, newTicker: core.NewTicker}
}

// WithTicker replaces the ticker factory. Used by tests.
func (r *Room) WithTicker(fn core.TickerFunc) *Room {
	r.newTicker = fn
	return r
}

// OnChange registers fn to be called with every new state. Call before Run.
func (r *Room) OnChange(fn func(RoomState)) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Load fetches (or starts) the user's conversation and its messages.
// Non admins also mark the conversation read and fetch the messages again to get the read flags.
func (r *Room) Load(ctx context.Context) error {
	r.update(func(st *RoomState) { st.Loading = true })

	err := r.load(ctx)
	r.update(func(st *RoomState) {
		st.Loading = false
		st.Err = err
	})
	if err != nil {
		r.logger.Error("failed to load conversation", err)
	}
	return err
}

func (r *Room) load(ctx context.Context) error {
	conv, err := r.src.MyConversation(ctx)
	if err != nil {
		if !core.IsNotFound(err) || r.isAdmin {
			return errors.Wrap(err, "getting conversation")
		}
		r.logger.Info("no existing conversation, creating a new one")
		if conv, err = r.src.CreateConversation(ctx); err != nil {
			return errors.Wrap(err, "creating conversation")
		}
	}
	r.update(func(st *RoomState) { st.Conversation = &conv })

	page, err := r.src.Messages(ctx, conv.ID)
	if err != nil {
		return errors.Wrap(err, "getting messages")
	}
	r.setMessages(page.Results)

	if !r.isAdmin {
		if err = r.src.MarkConversationRead(ctx, conv.ID); err != nil {
			return errors.Wrap(err, "marking conversation read")
		}
		if page, err = r.src.Messages(ctx, conv.ID); err != nil {
			return errors.Wrap(err, "getting messages")
		}
		r.setMessages(page.Results)
	}

	unread, err := r.src.UnreadCount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting unread count")
	}
	r.update(func(st *RoomState) { st.UnreadCount = unread })
	return nil
}

// Send posts content to the conversation. The message shows up at once as pending
// and is replaced by the stored one when the server answers.
func (r *Room) Send(ctx context.Context, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, ErrEmptyMessage
	}

	r.mu.Lock()
	switch {
	case r.state.Conversation == nil:
		r.mu.Unlock()
		return Message{}, ErrNoConversation
	case r.state.Sending:
		r.mu.Unlock()
		return Message{}, ErrSending
	}
	convID := r.state.Conversation.ID
	pending := pendingMessage(convID, content)
	r.state.Sending = true
	r.state.Messages = append(r.state.Messages, pending)
	st, fns := r.snapshot(), r.listeners()
	r.mu.Unlock()
	publish(st, fns)

	msg, err := r.src.SendMessage(ctx, convID, NewMessage{Content: content, MessageType: MessageTypeText})
	r.update(func(st *RoomState) {
		st.Sending = false
		st.Messages = settlePending(st.Messages, pending.LocalID, msg, err)
		if err != nil {
			st.Err = err
		}
	})
	if err != nil {
		r.logger.Error("failed to send message", err)
		return Message{}, errors.Wrap(err, "sending message")
	}
	return msg, nil
}

// Poll replaces the messages with the server's and refreshes the unread count.
func (r *Room) Poll(ctx context.Context) error {
	r.mu.Lock()
	conv := r.state.Conversation
	r.mu.Unlock()
	if conv == nil {
		return nil
	}

	page, err := r.src.Messages(ctx, conv.ID)
	if err != nil {
		r.logger.Error("failed to poll messages", err)
		return errors.Wrap(err, "getting messages")
	}
	r.setMessages(page.Results)

	unread, err := r.src.UnreadCount(ctx)
	if err != nil {
		r.logger.Error("failed to poll unread count", err)
		return errors.Wrap(err, "getting unread count")
	}
	r.update(func(st *RoomState) { st.UnreadCount = unread })
	return nil
}

// Run loads the room, then polls until ctx is done.
func (r *Room) Run(ctx context.Context) {
	_ = r.Load(ctx)
	r.Follow(ctx)
}

// Follow polls an already loaded room until ctx is done.
func (r *Room) Follow(ctx context.Context) {
	ticks, stop := r.newTicker(r.interval)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			_ = r.Poll(ctx)
		}
	}
}

// setMessages replaces the messages, keeping the ones still being sent.
func (r *Room) setMessages(msgs []Message) {
	r.update(func(st *RoomState) { st.Messages = mergePending(msgs, st.Messages) })
}

func (r *Room) update(fn func(st *RoomState)) {
	r.mu.Lock()
	fn(&r.state)
	st, fns := r.snapshot(), r.listeners()
	r.mu.Unlock()
	publish(st, fns)
}

// must be called with r.mu held
func (r *Room) snapshot() RoomState {
	st := r.state
	st.Messages = append([]Message(nil), r.state.Messages...)
	if r.state.Conversation != nil {
		conv := *r.state.Conversation
		st.Conversation = &conv
	}
	return st
}

// must be called with r.mu held
func (r *Room) listeners() []func(RoomState) {
	fns := make([]func(RoomState), len(r.onChange))
	copy(fns, r.onChange)
	return fns
}

func publish[S any](st S, fns []func(S)) {
	for _, fn := range fns {
		fn(st)
	}
}

func pendingMessage(convID int, content string) Message {
	return Message{
		ConversationID: convID,
		Content:        content,
		MessageType:    MessageTypeText,
		CreatedAt:      nowFunc().UTC(),
		LocalID:        uuid.New().String(),
		Pending:        true,
	}
}

// settlePending swaps the pending message localID for sent, or drops it when the send failed
// or a poll already brought sent in.
func settlePending(msgs []Message, localID string, sent Message, err error) []Message {
	out := make([]Message, 0, len(msgs))
	var have bool
	for _, m := range msgs {
		if err == nil && !m.Pending && m.ID == sent.ID {
			have = true
		}
	}
	for _, m := range msgs {
		if m.LocalID == localID {
			if err == nil && !have {
				out = append(out, sent)
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

// mergePending returns fetched followed by the pending messages of current.
func mergePending(fetched, current []Message) []Message {
	out := append(make([]Message, 0, len(fetched)), fetched...)
	for _, m := range current {
		if m.Pending {
			out = append(out, m)
		}
	}
	return out
}
