package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/labstack/gommon/color"

	"github.com/3bdulrahman-M3/Front/core/chat"
	"github.com/3bdulrahman-M3/Front/core/notification"
)

const timeLayout = "2006-01-02 15:04"

// printer serializes the writes of the polling goroutines and the prompt.
type printer struct {
	mu  sync.Mutex
	out io.Writer
	c   *color.Color
}

func newPrinter(out io.Writer) *printer {
	c := color.New()
	c.Disable()
	return &printer{out: out, c: c}
}

func (p *printer) enableColor(on bool) {
	if on {
		p.c.Enable()
		return
	}
	p.c.Disable()
}

func (p *printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *printer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p, format, args...)
}

func (p *printer) ok(format string, args ...interface{}) {
	p.printf("%s\n", p.c.Green(fmt.Sprintf(format, args...)))
}

func (p *printer) warn(msg string) {
	p.printf("%s\n", p.c.Yellow(msg))
}

func (p *printer) fail(err error) {
	p.printf("%s %v\n", p.c.Red("error:"), err)
}

func (p *printer) notification(n notification.Notification) {
	mark := " "
	if !n.IsRead {
		mark = p.c.Cyan("*")
	}
	p.printf("%s #%d %s [%s] %s", mark, n.ID, p.c.Grey(n.CreatedAt.Local().Format(timeLayout)), n.Type, p.c.Bold(n.Title))
	if n.Message != "" {
		p.printf(": %s", n.Message)
	}
	if n.SenderName != "" {
		p.printf(" (from %s)", n.SenderName)
	}
	p.printf("\n")
}

func (p *printer) conversation(conv chat.Conversation, selected bool) {
	mark := " "
	if selected {
		mark = ">"
	}
	line := fmt.Sprintf("%s #%d %s", mark, conv.ID, p.c.Bold(conv.DisplayName()))
	if badge := chat.Badge(conv.UnreadCount); badge != "" {
		line += " " + p.c.Cyan("("+badge+")")
	}
	if conv.LastMessagePreview != nil {
		line += " " + p.c.Grey(preview(conv.LastMessagePreview.Content, 40))
	}
	p.printf("%s\n", line)
}

func (p *printer) message(m chat.Message) {
	name := m.SenderName
	if name == "" {
		name = m.SenderRole
	}
	p.printf("%s %s: %s\n", p.c.Grey("["+m.CreatedAt.Local().Format("15:04")+"]"), p.c.Bold(name), m.Content)
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}

// messageLog prints each stored message once, in order.
type messageLog struct {
	mu     sync.Mutex
	p      *printer
	convID int
	seen   map[int]bool
}

func newMessageLog(p *printer) *messageLog {
	return &messageLog{p: p, seen: make(map[int]bool)}
}

// show prints the messages of convID not printed yet. Switching conversations starts over.
func (l *messageLog) show(convID int, msgs []chat.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if convID != l.convID {
		l.convID = convID
		l.seen = make(map[int]bool)
	}
	for _, m := range msgs {
		if m.Pending || m.ID == 0 || l.seen[m.ID] {
			continue
		}
		l.seen[m.ID] = true
		l.p.message(m)
	}
}
