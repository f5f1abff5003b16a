package main

import (
	"context"

	"github.com/3bdulrahman-M3/Front/core/session"
	apiclient "github.com/3bdulrahman-M3/Front/services/api"
)

func (cli *commandLine) login(ctx context.Context, email string) error {
	if msg := session.TakeExpiredMessage(cli.store); msg != "" {
		cli.p.warn(msg)
	}
	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}

	res, err := cli.api.Login(ctx, email, pwd)
	if err != nil {
		return err
	}
	cli.p.ok("Signed in as %s (%s)", res.User.Name, res.User.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if !session.HasToken(cli.store) {
		cli.p.printf("Not signed in.\n")
		return nil
	}
	if err := cli.api.Logout(ctx); err != nil {
		cli.logger.Warn("logout call failed, local session cleared anyway", err)
	}
	cli.p.ok("Signed out")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	if _, err := cli.signedIn(); err != nil {
		return err
	}
	usr, err := cli.api.Profile(ctx)
	if err != nil {
		return err
	}
	cli.p.printf("%s <%s> %s\n", cli.p.c.Bold(usr.Name), usr.Email, usr.Role)
	return nil
}

func (cli *commandLine) showEnv() error {
	src := "auto"
	switch {
	case cli.env.Current == apiclient.EnvCustom:
		src = "config"
	case cli.env.Manual:
		src = "manual"
	}
	cli.p.printf("%s %s (%s)\n", cli.p.c.Bold(cli.env.Current), cli.env.URL, src)
	return nil
}

func (cli *commandLine) setEnv(env string) error {
	if err := apiclient.SetEnvironment(cli.store, env); err != nil {
		return err
	}
	cli.connect(func(msg string) { cli.p.warn(msg) })
	return cli.showEnv()
}

func (cli *commandLine) ping(ctx context.Context) error {
	h, err := cli.api.Ping(ctx)
	if err != nil {
		return err
	}
	cli.p.ok("%s is %s (version %s)", cli.env.URL, h.Status, h.Version)
	return nil
}
