package chat

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
)

// Desk defaults
const (
	DeskMessageInterval = 10 * time.Second
	DeskListInterval    = 30 * time.Second
	ActivityCheck       = time.Minute
	FilterDebounce      = 300 * time.Millisecond
)

type DeskConfig struct {
	MessageInterval time.Duration
	ListInterval    time.Duration
	ActivityCheck   time.Duration
	IdleAfter       time.Duration
	FilterDebounce  time.Duration
}

func (c *DeskConfig) clean() {
	if c.MessageInterval <= 0 {
		c.MessageInterval = DeskMessageInterval
	}
	if c.ListInterval <= 0 {
		c.ListInterval = DeskListInterval
	}
	if c.ActivityCheck <= 0 {
		c.ActivityCheck = ActivityCheck
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = DefaultIdleAfter
	}
	if c.FilterDebounce <= 0 {
		c.FilterDebounce = FilterDebounce
	}
}

// DeskState is a snapshot of a Desk.
type DeskState struct {
	Conversations []Conversation
	Selected      *Conversation
	Messages      []Message
	Filter        ConversationFilter
	Loading       bool
	Sending       bool
	Refreshing    bool
	Err           error
}

// Desk is the admin view over every conversation. It polls the selected conversation's
// messages and the conversation list on separate intervals, and skips both while the admin is idle.
type Desk struct {
	src       Source
	logger    core.Logger
	conf      DeskConfig
	tracker   *ActivityTracker
	newTicker core.TickerFunc

	mu       sync.Mutex
	state    DeskState
	onChange []func(DeskState)
	debounce *time.Timer
}

func NewDesk(src Source, logger core.Logger, conf DeskConfig) *Desk {
	conf.clean()
	return &Desk{
		src:       src,
		logger:    logger,
		conf:      conf,
		tracker:   NewActivityTracker(conf.IdleAfter),
		newTicker: core.NewTicker,
	}
}

// WithTicker replaces the ticker factory. Used by tests.
func (d *Desk) WithTicker(fn core.TickerFunc) *Desk {
	d.newTicker = fn
	return d
}

// WithFilter sets the initial list filter. Unlike SetFilter nothing is fetched;
// call it before the first LoadConversations.
func (d *Desk) WithFilter(filter ConversationFilter) *Desk {
	filter.Clean()
	d.mu.Lock()
	d.state.Filter = filter
	d.mu.Unlock()
	return d
}

// Tracker is fed the admin's input.
func (d *Desk) Tracker() *ActivityTracker { return d.tracker }

// OnChange registers fn to be called with every new state. Call before Run.
func (d *Desk) OnChange(fn func(DeskState)) {
	d.mu.Lock()
	d.onChange = append(d.onChange, fn)
	d.mu.Unlock()
}

func (d *Desk) State() DeskState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

// LoadConversations fetches the conversation list with the current filter.
func (d *Desk) LoadConversations(ctx context.Context) error {
	d.update(func(st *DeskState) { st.Loading = true })

	convs, err := d.fetchConversations(ctx)
	d.update(func(st *DeskState) {
		st.Loading = false
		if err != nil {
			st.Err = err
			st.Conversations = []Conversation{}
			return
		}
		st.Conversations = convs
	})
	if err != nil {
		d.logger.Error("failed to load conversations", err)
	}
	return err
}

// Select opens conv: loads its messages, marks it read, fetches the messages again
// for the read flags, then reloads the list for the unread counts.
func (d *Desk) Select(ctx context.Context, conv Conversation) error {
	d.update(func(st *DeskState) {
		st.Selected = &conv
		st.Messages = []Message{}
	})
	return d.loadMessages(ctx, conv.ID)
}

func (d *Desk) loadMessages(ctx context.Context, convID int) error {
	err := func() error {
		page, err := d.src.Messages(ctx, convID)
		if err != nil {
			return errors.Wrap(err, "getting messages")
		}
		d.setMessages(convID, page.Results)

		if err = d.src.MarkConversationRead(ctx, convID); err != nil {
			return errors.Wrap(err, "marking conversation read")
		}
		if page, err = d.src.Messages(ctx, convID); err != nil {
			return errors.Wrap(err, "getting messages")
		}
		d.setMessages(convID, page.Results)
		return nil
	}()
	if err != nil {
		d.logger.Error("failed to load messages", err)
		d.update(func(st *DeskState) {
			st.Err = err
			st.Messages = []Message{}
		})
		return err
	}
	return d.LoadConversations(ctx)
}

// Send posts content to the selected conversation.
func (d *Desk) Send(ctx context.Context, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, ErrEmptyMessage
	}

	d.mu.Lock()
	switch {
	case d.state.Selected == nil:
		d.mu.Unlock()
		return Message{}, ErrNoConversation
	case d.state.Sending:
		d.mu.Unlock()
		return Message{}, ErrSending
	}
	convID := d.state.Selected.ID
	pending := pendingMessage(convID, content)
	pending.SenderRole = SenderAdmin
	d.state.Sending = true
	d.state.Messages = append(d.state.Messages, pending)
	st, fns := d.snapshot(), d.listeners()
	d.mu.Unlock()
	publish(st, fns)

	msg, err := d.src.SendMessage(ctx, convID, NewMessage{Content: content, MessageType: MessageTypeText})
	d.update(func(st *DeskState) {
		st.Sending = false
		st.Messages = settlePending(st.Messages, pending.LocalID, msg, err)
		if err != nil {
			st.Err = err
		}
	})
	if err != nil {
		d.logger.Error("failed to send message", err)
		return Message{}, errors.Wrap(err, "sending message")
	}
	return msg, nil
}

// Refresh reloads the list and the selected conversation.
func (d *Desk) Refresh(ctx context.Context) error {
	d.update(func(st *DeskState) { st.Refreshing = true })
	defer d.update(func(st *DeskState) { st.Refreshing = false })

	if err := d.LoadConversations(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	selected := d.state.Selected
	d.mu.Unlock()
	if selected != nil {
		return d.loadMessages(ctx, selected.ID)
	}
	return nil
}

// SetFilter changes the list filter. The list is reloaded once the filter
// has not changed for the debounce delay.
func (d *Desk) SetFilter(ctx context.Context, filter ConversationFilter) {
	filter.Clean()

	d.mu.Lock()
	d.state.Filter = filter
	if d.debounce != nil {
		d.debounce.Stop()
	}
	d.debounce = time.AfterFunc(d.conf.FilterDebounce, func() {
		if ctx.Err() == nil {
			_ = d.LoadConversations(ctx)
		}
	})
	st, fns := d.snapshot(), d.listeners()
	d.mu.Unlock()
	publish(st, fns)
}

// pollMessages refreshes the selected conversation's messages, unless idle.
func (d *Desk) pollMessages(ctx context.Context) error {
	d.mu.Lock()
	selected := d.state.Selected
	d.mu.Unlock()
	if selected == nil || !d.tracker.IsActive() {
		return nil
	}

	page, err := d.src.Messages(ctx, selected.ID)
	if err != nil {
		d.logger.Error("failed to poll messages", err)
		return errors.Wrap(err, "getting messages")
	}
	d.setMessages(selected.ID, page.Results)
	return nil
}

// pollConversations refreshes the list, unless idle. The list is only replaced when it changed.
func (d *Desk) pollConversations(ctx context.Context) (changed bool, err error) {
	if !d.tracker.IsActive() {
		return false, nil
	}

	convs, err := d.fetchConversations(ctx)
	if err != nil {
		d.logger.Error("failed to poll conversations", err)
		return false, err
	}

	d.mu.Lock()
	if reflect.DeepEqual(convs, d.state.Conversations) {
		d.mu.Unlock()
		return false, nil
	}
	d.state.Conversations = convs
	st, fns := d.snapshot(), d.listeners()
	d.mu.Unlock()
	publish(st, fns)
	return true, nil
}

// Run loads the list, then polls until ctx is done.
func (d *Desk) Run(ctx context.Context) {
	_ = d.LoadConversations(ctx)
	d.Follow(ctx)
}

// Follow polls until ctx is done, without the initial load.
func (d *Desk) Follow(ctx context.Context) {
	msgTicks, stopMsgs := d.newTicker(d.conf.MessageInterval)
	defer stopMsgs()
	listTicks, stopList := d.newTicker(d.conf.ListInterval)
	defer stopList()
	checkTicks, stopCheck := d.newTicker(d.conf.ActivityCheck)
	defer stopCheck()

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			if d.debounce != nil {
				d.debounce.Stop()
			}
			d.mu.Unlock()
			return
		case <-msgTicks:
			_ = d.pollMessages(ctx)
		case <-listTicks:
			_, _ = d.pollConversations(ctx)
		case <-checkTicks:
			d.tracker.Check()
		}
	}
}

func (d *Desk) fetchConversations(ctx context.Context) ([]Conversation, error) {
	d.mu.Lock()
	filter := d.state.Filter
	d.mu.Unlock()

	page, err := d.src.Conversations(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "getting conversations")
	}
	if page.Results == nil {
		return []Conversation{}, nil
	}
	return page.Results, nil
}

// setMessages replaces the messages if convID is still selected.
func (d *Desk) setMessages(convID int, msgs []Message) {
	d.update(func(st *DeskState) {
		if st.Selected != nil && st.Selected.ID == convID {
			st.Messages = mergePending(msgs, st.Messages)
		}
	})
}

func (d *Desk) update(fn func(st *DeskState)) {
	d.mu.Lock()
	fn(&d.state)
	st, fns := d.snapshot(), d.listeners()
	d.mu.Unlock()
	publish(st, fns)
}

// must be called with d.mu held
func (d *Desk) snapshot() DeskState {
	st := d.state
	st.Conversations = append([]Conversation(nil), d.state.Conversations...)
	st.Messages = append([]Message(nil), d.state.Messages...)
	if d.state.Selected != nil {
		conv := *d.state.Selected
		st.Selected = &conv
	}
	return st
}

// must be called with d.mu held
func (d *Desk) listeners() []func(DeskState) {
	fns := make([]func(DeskState), len(d.onChange))
	copy(fns, d.onChange)
	return fns
}
