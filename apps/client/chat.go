package main

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core/chat"
)

// readLines feeds the input lines to the returned channel, closed on EOF.
func (cli *commandLine) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cli.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (cli *commandLine) unread(ctx context.Context, watch bool) error {
	if _, err := cli.signedIn(); err != nil {
		return err
	}
	w := chat.NewUnreadWatcher(cli.api, cli.logger, cli.conf.Client.UnreadInterval).WithTicker(cli.newTicker)
	if !watch {
		if err := w.Poll(ctx); err != nil {
			return err
		}
		cli.printBadge(w.Count())
		return nil
	}

	w.OnChange(cli.printBadge)
	w.Run(ctx)
	return nil
}

func (cli *commandLine) printBadge(n int) {
	if badge := chat.Badge(n); badge != "" {
		cli.p.printf("%s unread messages\n", cli.p.c.Cyan(badge))
		return
	}
	cli.p.printf("No unread messages.\n")
}

// chat opens the user's support conversation. Input lines are sent as messages;
// /refresh polls at once and /quit leaves.
func (cli *commandLine) chat(ctx context.Context) error {
	usr, err := cli.signedIn()
	if err != nil {
		return err
	}
	if usr.IsAdmin() {
		return errUseDesk
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	room := chat.NewRoom(cli.api, cli.logger, false, cli.conf.Client.ChatInterval).WithTicker(cli.newTicker)
	history := newMessageLog(cli.p)
	if err = room.Load(ctx); err != nil {
		return err
	}
	st := room.State()
	cli.p.printf("%s\n", cli.p.c.Bold("Support chat, type /quit to leave"))
	history.show(st.Conversation.ID, st.Messages)
	room.OnChange(func(st chat.RoomState) {
		if st.Conversation != nil {
			history.show(st.Conversation.ID, st.Messages)
		}
	})

	go room.Follow(ctx)

	lines := cli.readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.TrimSpace(line) {
			case "":
			case "/quit":
				return nil
			case "/refresh":
				_ = room.Poll(ctx)
			default:
				if _, err := room.Send(ctx, line); err != nil {
					cli.p.fail(err)
				}
			}
		}
	}
}

// desk is the admin side of the chat. Commands:
// /list, /open ID, /search [TEXT], /unread, /refresh, /quit; anything else answers the open conversation.
func (cli *commandLine) desk(ctx context.Context, search string, unreadOnly bool, openID int) error {
	usr, err := cli.signedIn()
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		return errAdminOnly
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	desk := chat.NewDesk(cli.api, cli.logger, chat.DeskConfig{
		MessageInterval: cli.conf.Client.DeskMessageInterval,
		ListInterval:    cli.conf.Client.DeskListInterval,
		ActivityCheck:   cli.conf.Client.ActivityCheck,
		IdleAfter:       cli.conf.Client.IdleAfter,
		FilterDebounce:  cli.conf.Client.FilterDebounce,
	}).WithTicker(cli.newTicker).WithFilter(chat.ConversationFilter{Search: search, UnreadOnly: unreadOnly})

	history := newMessageLog(cli.p)
	desk.OnChange(func(st chat.DeskState) {
		if st.Selected != nil {
			history.show(st.Selected.ID, st.Messages)
		}
	})

	if err = desk.LoadConversations(ctx); err != nil {
		return err
	}
	cli.printConversations(desk.State())
	if openID > 0 {
		if err = cli.openConversation(ctx, desk, openID); err != nil {
			return err
		}
	}

	go desk.Follow(ctx)

	lines := cli.readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			desk.Tracker().Touch()
			if quit := cli.deskCommand(ctx, desk, line); quit {
				return nil
			}
		}
	}
}

func (cli *commandLine) deskCommand(ctx context.Context, desk *chat.Desk, line string) (quit bool) {
	line = strings.TrimSpace(line)
	cmd, arg := line, ""
	if i := strings.IndexByte(line, ' '); i > 0 {
		cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
	}

	var err error
	switch cmd {
	case "":
	case "/quit":
		return true
	case "/list":
		cli.printConversations(desk.State())
	case "/open":
		id, convErr := strconv.Atoi(arg)
		if convErr != nil || id <= 0 {
			err = errors.Errorf("invalid conversation id %q", arg)
			break
		}
		err = cli.openConversation(ctx, desk, id)
	case "/search":
		filter := desk.State().Filter
		filter.Search = arg
		desk.SetFilter(ctx, filter)
	case "/unread":
		filter := desk.State().Filter
		filter.UnreadOnly = !filter.UnreadOnly
		desk.SetFilter(ctx, filter)
	case "/refresh":
		if err = desk.Refresh(ctx); err == nil {
			cli.printConversations(desk.State())
		}
	default:
		_, err = desk.Send(ctx, line)
	}
	if err != nil {
		cli.p.fail(err)
	}
	return false
}

// openConversation selects id, looking it up when the filtered list does not have it.
func (cli *commandLine) openConversation(ctx context.Context, desk *chat.Desk, id int) error {
	var conv *chat.Conversation
	for _, c := range desk.State().Conversations {
		if c.ID == id {
			c := c
			conv = &c
			break
		}
	}
	if conv == nil {
		c, err := cli.api.ConversationDetail(ctx, id)
		if err != nil {
			return err
		}
		conv = &c
	}
	cli.p.printf("%s\n", cli.p.c.Bold("Conversation with "+conv.DisplayName()))
	return desk.Select(ctx, *conv)
}

func (cli *commandLine) printConversations(st chat.DeskState) {
	if len(st.Conversations) == 0 {
		cli.p.printf("No conversations.\n")
		return
	}
	for _, conv := range st.Conversations {
		cli.p.conversation(conv, st.Selected != nil && st.Selected.ID == conv.ID)
	}
}
