package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/3bdulrahman-M3/Front/core"
	emailsvc "github.com/3bdulrahman-M3/Front/services/email"
	logsvc "github.com/3bdulrahman-M3/Front/services/logger"
	"github.com/3bdulrahman-M3/Front/storage/keystore"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "CLIENT : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := conf.Client.KeystorePath
	if path == "" {
		path = keystore.DefaultPath()
	}
	store, err := keystore.OpenSQLite(ctx, path)
	if err != nil {
		logger.Fatal("opening keystore", err)
	}

	cli := newCommandLine(conf, logger, store, os.Stdin, os.Stdout)
	cli.p.enableColor(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	cli.mailSvc = emailsvc.NewService(logger, conf)
	cli.connect(func(msg string) { cli.p.warn(msg) })

	err = cli.run(ctx, os.Args)
	stop()
	_ = store.Close()
	if err != nil {
		if err != errHelp {
			cli.p.fail(err)
		}
		os.Exit(1)
	}
}
