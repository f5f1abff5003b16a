package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
	apiclient "github.com/3bdulrahman-M3/Front/services/api"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotSignedIn = errors.New("not signed in, run login first")
	errAdminOnly   = errors.New("the support desk is for admins")
	errUseDesk     = errors.New("admins answer conversations from the desk")
)

type commandLine struct {
	conf      *core.Config
	logger    core.Logger
	store     session.Store
	api       *apiclient.Client
	env       apiclient.EnvInfo
	mailSvc   core.EmailService // nil disables email alerts
	in        io.Reader
	p         *printer
	newTicker core.TickerFunc
}

func newCommandLine(conf *core.Config, logger core.Logger, store session.Store, in io.Reader, out io.Writer) *commandLine {
	return &commandLine{
		conf:      conf,
		logger:    logger,
		store:     store,
		in:        in,
		p:         newPrinter(out),
		newTicker: core.NewTicker,
	}
}

// connect (re)builds the API client for the resolved environment.
func (cli *commandLine) connect(onExpired func(msg string)) {
	cli.env = apiclient.ResolveEnv(cli.conf, cli.store)
	guard := session.NewExpiryGuard(cli.store, cli.logger, onExpired)
	cli.api = apiclient.New(cli.env.URL, cli.store, guard, cli.conf.Client.RequestTimeout)
}

func (cli *commandLine) printUsage() {
	cli.p.printf("Usage:\n")
	cli.p.printf("  login -email EMAIL - sign in, the password is prompted next\n")
	cli.p.printf("  logout - sign out\n")
	cli.p.printf("  whoami - show the signed in user\n")
	cli.p.printf("  env [set AUTO|LOCAL|PRODUCTION|RAILWAY|NETLIFY] - show or pick the API environment\n")
	cli.p.printf("  ping - check the API is reachable\n")
	cli.p.printf("  unread [-watch] - show the unread chat messages count\n")
	cli.p.printf("  notifications [list] - show the recent notifications\n")
	cli.p.printf("  notifications watch [-bell] [-email] - follow new notifications until interrupted\n")
	cli.p.printf("  notifications read ID | read-all - mark notifications read\n")
	cli.p.printf("  chat - talk to the support team\n")
	cli.p.printf("  desk [-search TEXT] [-unread] [-open ID] - answer support conversations (admins)\n")
}

func (cli *commandLine) promptPassword() (string, error) {
	cli.p.printf("Password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.p.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// signedIn returns the cached user, or errNotSignedIn.
func (cli *commandLine) signedIn() (session.User, error) {
	if !session.HasToken(cli.store) {
		return session.User{}, errNotSignedIn
	}
	usr, err := session.CurrentUser(cli.store)
	if err != nil {
		if core.IsNotFound(err) {
			return session.User{}, errNotSignedIn
		}
		return session.User{}, err
	}
	return usr, nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "The account email.")

	unreadCmd := flag.NewFlagSet("unread", flag.ContinueOnError)
	unreadWatch := unreadCmd.Bool("watch", false, "Keep polling and print every change.")

	watchCmd := flag.NewFlagSet("notifications watch", flag.ContinueOnError)
	watchBell := watchCmd.Bool("bell", false, "Ring the terminal bell on new notifications.")
	watchEmail := watchCmd.Bool("email", false, "Also forward new notifications by email.")

	deskCmd := flag.NewFlagSet("desk", flag.ContinueOnError)
	deskSearch := deskCmd.String("search", "", "Only list conversations matching this name or email.")
	deskUnread := deskCmd.Bool("unread", false, "Only list conversations with unread messages.")
	deskOpen := deskCmd.Int("open", 0, "Open this conversation right away.")

	for _, fs := range []*flag.FlagSet{loginCmd, unreadCmd, watchCmd, deskCmd} {
		fs.SetOutput(cli.p)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail)

	case "logout":
		return cli.logout(ctx)

	case "whoami":
		return cli.whoami(ctx)

	case "env":
		switch {
		case len(args) == 2 || (len(args) == 3 && args[2] == "show"):
			return cli.showEnv()
		case len(args) == 4 && args[2] == "set":
			return cli.setEnv(args[3])
		}
		cli.printUsage()
		return errHelp

	case "ping":
		return cli.ping(ctx)

	case "unread":
		if err := unreadCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.unread(ctx, *unreadWatch)

	case "notifications":
		sub := "list"
		if len(args) > 2 {
			sub = args[2]
		}
		switch sub {
		case "list":
			return cli.listNotifications(ctx)
		case "watch":
			if err := watchCmd.Parse(args[3:]); err != nil {
				return errHelp
			}
			return cli.watchNotifications(ctx, *watchBell, *watchEmail)
		case "read":
			if len(args) < 4 {
				cli.printUsage()
				return errHelp
			}
			id, err := strconv.Atoi(args[3])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid notification id %q", args[3])
			}
			return cli.readNotification(ctx, id)
		case "read-all":
			return cli.readAllNotifications(ctx)
		}
		cli.printUsage()
		return errHelp

	case "chat":
		return cli.chat(ctx)

	case "desk":
		if err := deskCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.desk(ctx, *deskSearch, *deskUnread, *deskOpen)

	default:
		cli.printUsage()
		return errHelp
	}
}
