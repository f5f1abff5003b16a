package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
	errNoDB = errors.New("migrate needs the postgres engine")
)

type commandLine struct {
	db       *sql.DB // nil with the inmem engine
	usrRepo  user.Repository
	notifSvc *notification.Service
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-role student|instructor|admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  notify -user ID|EMAIL -title TITLE -message MESSAGE [-type TYPE] - send a notification")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations (up, down, status, ...)")
}

// promptPassword reads a password from the terminal. Empty passwords are a usage error.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", user.RoleAdmin, "The user's role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	notifyCmd := flag.NewFlagSet("notify", flag.ContinueOnError)
	notifyUser := notifyCmd.String("user", "", "The recipient's ID or email.")
	notifyTitle := notifyCmd.String("title", "", "The notification title.")
	notifyMessage := notifyCmd.String("message", "", "The notification message.")
	notifyType := notifyCmd.String("type", notification.TypeInfo, "The notification type.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, notifyCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserEmail, *addUserRole, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "notify":
		if err := notifyCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *notifyUser == "" {
			notifyCmd.Usage()
			return errHelp
		}
		return cli.notify(*notifyUser, *notifyTitle, *notifyMessage, *notifyType)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
