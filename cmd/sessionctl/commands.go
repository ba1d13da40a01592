package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/token/jwt"
	"github.com/jrsteele09/go-session-client/users"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%v", err)
	}
	return nil
}

func noArgs(name string, args []string) error {
	fs := newFlagSet(name)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		return usagef("-u is required")
	}

	if *password == "" {
		fmt.Fprint(cmdCtx.Err, "Password: ")
		line, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}

	sess, err := a.gateway.Login(cmdCtx.Ctx, *username, *password)
	if err != nil {
		var msgErr *errors.MessageError
		if errors.As(err, &msgErr) {
			return fmt.Errorf("%s", msgErr.Message)
		}
		return err
	}
	fmt.Fprintf(cmdCtx.Out, "Signed in as %s (%s)\n", sess.User.Username, sess.User.Role)
	return nil
}

func runLogout(cmdCtx *commandContext, args []string) error {
	if err := noArgs("logout", args); err != nil {
		return err
	}
	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}
	a.gateway.Logout(cmdCtx.Ctx)
	fmt.Fprintln(cmdCtx.Out, "Signed out")
	return nil
}

func runWhoAmI(cmdCtx *commandContext, args []string) error {
	if err := noArgs("whoami", args); err != nil {
		return err
	}
	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}

	sess, err := a.store.Current(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return errors.ErrSessionNotFound
	}

	expiry := "unknown"
	if exp, err := jwt.ExpiresAt(sess.AccessToken); err == nil {
		expiry = fmt.Sprintf("%s (in %s)", exp.Local().Format(time.RFC3339), time.Until(exp).Round(time.Second))
	}

	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Username\t%s\n", sess.User.Username)
	fmt.Fprintf(tw, "Role\t%s\n", sess.User.Role)
	if sess.User.Email != "" {
		fmt.Fprintf(tw, "Email\t%s\n", sess.User.Email)
	}
	if name := strings.TrimSpace(sess.User.FirstName + " " + sess.User.LastName); name != "" {
		fmt.Fprintf(tw, "Name\t%s\n", name)
	}
	fmt.Fprintf(tw, "Landing page\t%s\n", a.router.DestinationFor(sess.User.Role))
	fmt.Fprintf(tw, "Access expires\t%s\n", expiry)
	return tw.Flush()
}

func runRefresh(cmdCtx *commandContext, args []string) error {
	if err := noArgs("refresh", args); err != nil {
		return err
	}
	if !cmdCtx.Config.GetRefreshEnabled() {
		return fmt.Errorf("token refresh is disabled (REFRESH_TOKEN_ENABLED=false)")
	}
	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}

	sess, err := a.gateway.Resume(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return errors.ErrSessionNotFound
	}
	defer a.scheduler.Stop()

	if err := a.scheduler.RefreshNow(cmdCtx.Ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmdCtx.Out, "Access token refreshed")
	return nil
}

func runCheck(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("check")
	role := fs.String("role", "", "single required role")
	anyRoles := fs.String("any", "", "comma-separated allowed roles")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if (*role == "") == (*anyRoles == "") {
		return usagef("exactly one of -role or -any is required")
	}

	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}

	var allowed bool
	if *role != "" {
		r, err := users.ParseRole(*role)
		if err != nil {
			return usagef("%v", err)
		}
		allowed = a.gate.RequireRole(cmdCtx.Ctx, r)
	} else {
		roles, err := users.ParseRoles(*anyRoles)
		if err != nil {
			return usagef("%v", err)
		}
		allowed = a.gate.RequireAnyRole(cmdCtx.Ctx, roles...)
	}

	if !allowed {
		return errors.ErrAccessDenied
	}
	fmt.Fprintln(cmdCtx.Out, "Access granted")
	return nil
}

func runGet(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("get")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("exactly one resource name is required")
	}
	name := fs.Arg(0)

	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}
	if !a.store.IsAuthenticated(cmdCtx.Ctx) {
		return errors.ErrSessionNotFound
	}

	body, err := a.client.Resource(cmdCtx.Ctx, a.store.TokenSource(cmdCtx.Ctx), name)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return usagef("unknown resource %q (known: %s)", name, strings.Join(a.client.Resources(), ", "))
		}
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(body)
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(cmdCtx.Out)
	return err
}
