package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core"
)

// sourceMock is an in-memory chat backend recording the calls it gets.
type sourceMock struct {
	mu       sync.Mutex
	conv     *Conversation
	convs    []Conversation
	msgs     []Message
	unread   int
	sendErr  error
	calls    []string
	filters  []ConversationFilter
	pkCount  int
	sendGate chan struct{} // when set, SendMessage waits on it
}

var _ Source = (*sourceMock)(nil)

func (src *sourceMock) record(call string) {
	src.calls = append(src.calls, call)
}

func (src *sourceMock) Calls() []string {
	src.mu.Lock()
	defer src.mu.Unlock()
	return append([]string(nil), src.calls...)
}

func (src *sourceMock) MyConversation(context.Context) (Conversation, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.record("my")
	if src.conv == nil {
		return Conversation{}, errors.Wrap(core.ErrNotFound, "http 404")
	}
	return *src.conv, nil
}

func (src *sourceMock) CreateConversation(context.Context) (Conversation, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.record("create")
	src.conv = &Conversation{ID: 7, UserID: 1}
	return *src.conv, nil
}

func (src *sourceMock) Conversations(_ context.Context, filter ConversationFilter) (core.Page[Conversation], error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.record("list")
	src.filters = append(src.filters, filter)
	convs := append([]Conversation(nil), src.convs...)
	return core.Page[Conversation]{Count: len(convs), Pages: 1, Results: convs}, nil
}

func (src *sourceMock) Messages(context.Context, int) (core.Page[Message], error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.record("messages")
	msgs := append([]Message(nil), src.msgs...)
	return core.Page[Message]{Count: len(msgs), Pages: 1, Results: msgs}, nil
}

func (src *sourceMock) SendMessage(_ context.Context, convID int, nm NewMessage) (Message, error) {
	if src.sendGate != nil {
		<-src.sendGate
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	src.record("send")
	if src.sendErr != nil {
		return Message{}, src.sendErr
	}
	src.pkCount++
	msg := Message{ID: 100 + src.pkCount, ConversationID: convID, Content: nm.Content, MessageType: nm.MessageType}
	src.msgs = append(src.msgs, msg)
	return msg, nil
}

func (src *sourceMock) MarkConversationRead(context.Context, int) error {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.record("markread")
	for i := range src.msgs {
		src.msgs[i].IsRead = true
	}
	src.unread = 0
	return nil
}

func (src *sourceMock) UnreadCount(context.Context) (int, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.record("unread")
	return src.unread, nil
}

func (src *sourceMock) setConvs(convs ...Conversation) {
	src.mu.Lock()
	src.convs = convs
	src.mu.Unlock()
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "", Badge(0))
	assert.Equal(t, "3", Badge(3))
	assert.Equal(t, "9", Badge(9))
	assert.Equal(t, "9+", Badge(10))
}

func TestActivityTracker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	tracker := NewActivityTracker(2 * time.Minute)
	assert.True(t, tracker.IsActive())

	now = now.Add(time.Minute)
	assert.True(t, tracker.Check())

	now = now.Add(time.Minute)
	assert.True(t, tracker.IsActive()) // only drops on Check
	assert.False(t, tracker.Check())
	assert.False(t, tracker.IsActive())

	tracker.Touch()
	assert.True(t, tracker.IsActive())
}

func TestRoom_Load(t *testing.T) {
	tests := []struct {
		name      string
		isAdmin   bool
		existing  bool
		wantCalls []string
		wantErr   bool
	}{
		{
			name:      "creates the missing conversation",
			wantCalls: []string{"my", "create", "messages", "markread", "messages", "unread"},
		},
		{
			name:      "existing conversation",
			existing:  true,
			wantCalls: []string{"my", "messages", "markread", "messages", "unread"},
		},
		{
			name:      "admin does not mark read",
			isAdmin:   true,
			existing:  true,
			wantCalls: []string{"my", "messages", "unread"},
		},
		{
			name:      "admin does not create",
			isAdmin:   true,
			wantCalls: []string{"my"},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &sourceMock{msgs: []Message{{ID: 1, Content: "hello"}}, unread: 1}
			if tt.existing {
				src.conv = &Conversation{ID: 3, UserID: 1}
			}
			room := NewRoom(src, core.NopLogger{}, tt.isAdmin, 0)

			err := room.Load(context.Background())
			assert.Equal(t, tt.wantCalls, src.Calls())
			st := room.State()
			assert.False(t, st.Loading)
			if tt.wantErr {
				assert.True(t, core.IsNotFound(err))
				assert.Error(t, st.Err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, st.Conversation)
			assert.Len(t, st.Messages, 1)
			assert.Equal(t, !tt.isAdmin, st.Messages[0].IsRead)
			assert.Equal(t, src.unread, st.UnreadCount)
		})
	}
}

func TestRoom_Send(t *testing.T) {
	src := &sourceMock{conv: &Conversation{ID: 3, UserID: 1}}
	room := NewRoom(src, core.NopLogger{}, false, 0)

	_, err := room.Send(context.Background(), "hi")
	assert.Equal(t, ErrNoConversation, err)

	require.NoError(t, room.Load(context.Background()))

	_, err = room.Send(context.Background(), "   ")
	assert.Equal(t, ErrEmptyMessage, err)

	msg, err := room.Send(context.Background(), "  Where is my certificate?  ")
	require.NoError(t, err)
	assert.Equal(t, "Where is my certificate?", msg.Content)
	assert.Equal(t, MessageTypeText, msg.MessageType)

	st := room.State()
	require.Len(t, st.Messages, 1)
	assert.Equal(t, msg.ID, st.Messages[0].ID)
	assert.False(t, st.Messages[0].Pending)
	assert.False(t, st.Sending)

	// failed send drops the pending message
	src.sendErr = errors.New("http 500")
	_, err = room.Send(context.Background(), "again")
	assert.Error(t, err)
	st = room.State()
	assert.Len(t, st.Messages, 1)
	assert.Error(t, st.Err)
}

func TestRoom_SendShowsPendingAndRejectsConcurrentSend(t *testing.T) {
	src := &sourceMock{conv: &Conversation{ID: 3, UserID: 1}, sendGate: make(chan struct{})}
	room := NewRoom(src, core.NopLogger{}, false, 0)
	require.NoError(t, room.Load(context.Background()))

	done := make(chan error)
	go func() {
		_, err := room.Send(context.Background(), "first")
		done <- err
	}()

	assert.Eventually(t, func() bool { return room.State().Sending }, time.Second, time.Millisecond)
	st := room.State()
	require.Len(t, st.Messages, 1)
	assert.True(t, st.Messages[0].Pending)
	assert.NotEmpty(t, st.Messages[0].LocalID)

	_, err := room.Send(context.Background(), "second")
	assert.Equal(t, ErrSending, err)

	// a poll while sending keeps the pending message
	require.NoError(t, room.Poll(context.Background()))
	assert.True(t, room.State().Messages[0].Pending)

	close(src.sendGate)
	require.NoError(t, <-done)
	st = room.State()
	require.Len(t, st.Messages, 1)
	assert.False(t, st.Messages[0].Pending)
}

type tickerMock struct {
	mu    sync.Mutex
	chans map[time.Duration]chan time.Time
}

func newTickerMock() *tickerMock {
	return &tickerMock{chans: make(map[time.Duration]chan time.Time)}
}

func (tm *tickerMock) ch(d time.Duration) chan time.Time {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	c, ok := tm.chans[d]
	if !ok {
		c = make(chan time.Time)
		tm.chans[d] = c
	}
	return c
}

func (tm *tickerMock) new(d time.Duration) (<-chan time.Time, func()) {
	return tm.ch(d), func() {}
}

// tick blocks until the loop receives it.
func (tm *tickerMock) tick(t *testing.T, d time.Duration) {
	select {
	case tm.ch(d) <- time.Now():
	case <-time.After(time.Second):
		t.Fatalf("nobody listening on the %s ticker", d)
	}
}

func TestRoom_Run(t *testing.T) {
	src := &sourceMock{conv: &Conversation{ID: 3, UserID: 1}}
	ticker := newTickerMock()
	room := NewRoom(src, core.NopLogger{}, false, time.Second).WithTicker(ticker.new)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		room.Run(ctx)
		close(stopped)
	}()

	ticker.tick(t, time.Second)
	src.mu.Lock()
	src.msgs = append(src.msgs, Message{ID: 9, Content: "from admin", SenderRole: SenderAdmin})
	src.unread = 1
	src.mu.Unlock()
	ticker.tick(t, time.Second)

	assert.Eventually(t, func() bool { return room.State().UnreadCount == 1 }, time.Second, time.Millisecond)
	assert.Len(t, room.State().Messages, 1)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRoom_FollowDoesNotReload(t *testing.T) {
	src := &sourceMock{conv: &Conversation{ID: 3, UserID: 1}}
	ticker := newTickerMock()
	room := NewRoom(src, core.NopLogger{}, false, time.Second).WithTicker(ticker.new)
	require.NoError(t, room.Load(context.Background()))
	loaded := len(src.Calls())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go room.Follow(ctx)

	ticker.tick(t, time.Second)
	assert.Eventually(t, func() bool { return len(src.Calls()) == loaded+2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"messages", "unread"}, src.Calls()[loaded:])
}

func TestDesk_Select(t *testing.T) {
	src := &sourceMock{
		convs: []Conversation{{ID: 1, UserName: "Amina", UnreadCount: 2}},
		msgs:  []Message{{ID: 1, Content: "hello"}, {ID: 2, Content: "anyone?"}},
	}
	desk := NewDesk(src, core.NopLogger{}, DeskConfig{})

	require.NoError(t, desk.LoadConversations(context.Background()))
	require.NoError(t, desk.Select(context.Background(), desk.State().Conversations[0]))

	assert.Equal(t, []string{"list", "messages", "markread", "messages", "list"}, src.Calls())
	st := desk.State()
	require.NotNil(t, st.Selected)
	assert.Equal(t, 1, st.Selected.ID)
	require.Len(t, st.Messages, 2)
	assert.True(t, st.Messages[1].IsRead)

	msg, err := desk.Send(context.Background(), "Hi Amina")
	require.NoError(t, err)
	assert.Equal(t, msg.ID, desk.State().Messages[2].ID)
}

func TestDesk_PollsSkipWhileIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	src := &sourceMock{convs: []Conversation{{ID: 1}}}
	desk := NewDesk(src, core.NopLogger{}, DeskConfig{})
	require.NoError(t, desk.Select(context.Background(), Conversation{ID: 1}))
	before := len(src.Calls())

	now = now.Add(3 * time.Minute)
	desk.Tracker().Check()

	require.NoError(t, desk.pollMessages(context.Background()))
	changed, err := desk.pollConversations(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, src.Calls(), before)

	desk.Tracker().Touch()
	require.NoError(t, desk.pollMessages(context.Background()))
	assert.Len(t, src.Calls(), before+1)
}

func TestDesk_PollConversationsOnlyReplacesOnChange(t *testing.T) {
	src := &sourceMock{convs: []Conversation{{ID: 1, UnreadCount: 1}}}
	desk := NewDesk(src, core.NopLogger{}, DeskConfig{})
	require.NoError(t, desk.LoadConversations(context.Background()))

	var published int
	desk.OnChange(func(DeskState) { published++ })

	changed, err := desk.pollConversations(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0, published)

	src.setConvs(Conversation{ID: 1, UnreadCount: 2}, Conversation{ID: 2})
	changed, err = desk.pollConversations(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, published)
	assert.Len(t, desk.State().Conversations, 2)
}

func TestDesk_SetFilterDebounces(t *testing.T) {
	src := &sourceMock{}
	desk := NewDesk(src, core.NopLogger{}, DeskConfig{FilterDebounce: 20 * time.Millisecond})

	desk.SetFilter(context.Background(), ConversationFilter{Search: "am"})
	desk.SetFilter(context.Background(), ConversationFilter{Search: " amina ", UnreadOnly: true})

	assert.Eventually(t, func() bool { return len(src.Calls()) == 1 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return len(src.Calls()) > 1 }, 60*time.Millisecond, 5*time.Millisecond)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, ConversationFilter{Search: "amina", UnreadOnly: true}, src.filters[0])
}

func TestDesk_WithFilterFetchesOnce(t *testing.T) {
	src := &sourceMock{convs: []Conversation{{ID: 1}}}
	ticker := newTickerMock()
	conf := DeskConfig{MessageInterval: time.Second, ListInterval: 2 * time.Second, ActivityCheck: 3 * time.Second, FilterDebounce: 10 * time.Millisecond}
	desk := NewDesk(src, core.NopLogger{}, conf).WithTicker(ticker.new).
		WithFilter(ConversationFilter{Search: " amina ", UnreadOnly: true})

	require.NoError(t, desk.LoadConversations(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go desk.Follow(ctx)

	assert.Never(t, func() bool { return len(src.Calls()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, ConversationFilter{Search: "amina", UnreadOnly: true}, desk.State().Filter)

	src.mu.Lock()
	defer src.mu.Unlock()
	require.Len(t, src.filters, 1)
	assert.Equal(t, ConversationFilter{Search: "amina", UnreadOnly: true}, src.filters[0])
}

func TestDesk_Run(t *testing.T) {
	src := &sourceMock{convs: []Conversation{{ID: 1}}}
	ticker := newTickerMock()
	conf := DeskConfig{MessageInterval: time.Second, ListInterval: 2 * time.Second, ActivityCheck: 3 * time.Second}
	desk := NewDesk(src, core.NopLogger{}, conf).WithTicker(ticker.new)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go desk.Run(ctx)

	ticker.tick(t, 2*time.Second) // list poll
	ticker.tick(t, time.Second)   // nothing selected: no messages call
	ticker.tick(t, 3*time.Second) // activity check
	assert.Eventually(t, func() bool { return len(src.Calls()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"list", "list"}, src.Calls())
}

func TestUnreadWatcher(t *testing.T) {
	src := &sourceMock{unread: 12}
	w := NewUnreadWatcher(src, core.NopLogger{}, 0)

	var counts []int
	w.OnChange(func(n int) { counts = append(counts, n) })

	require.NoError(t, w.Poll(context.Background()))
	require.NoError(t, w.Poll(context.Background()))
	assert.Equal(t, "9+", w.Badge())

	src.mu.Lock()
	src.unread = 0
	src.mu.Unlock()
	require.NoError(t, w.Poll(context.Background()))
	assert.Equal(t, "", w.Badge())
	assert.Equal(t, []int{12, 0}, counts)
}
