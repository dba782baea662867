// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, logout and status commands.

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/aurora-tui/internal/api"
	"github.com/jeranaias/aurora-tui/internal/auth"
	"github.com/jeranaias/aurora-tui/internal/credstore"
	"github.com/jeranaias/aurora-tui/internal/session"
	"github.com/jeranaias/aurora-tui/internal/util"
)

// Decider produces a verdict for the stored credentials.
type Decider interface {
	Decide(ctx context.Context) auth.Decision
}

// ProfileFetcher looks up the signed-in user's record.
type ProfileFetcher interface {
	Profile(ctx context.Context, userID, role string) (*api.Profile, error)
}

// Env carries the collaborators a command needs.
type Env struct {
	Store   credstore.Store
	Decider Decider
	Session *session.Manager

	// Profiles is optional; status shows the user's name when set.
	Profiles ProfileFetcher

	In  io.Reader
	Out io.Writer

	// ReadPassword reads a secret without echo. Defaults to the terminal.
	ReadPassword func() (string, error)
	// Interactive reports whether prompting is possible. Defaults to CanPrompt.
	Interactive func() bool
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) in() io.Reader {
	if e.In == nil {
		return os.Stdin
	}
	return e.In
}

// requirePrompt fails when operation cannot prompt the user.
func (e *Env) requirePrompt(operation string) error {
	if e.Interactive == nil {
		return RequiresTTY(operation)
	}
	if !e.Interactive() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

// =============================================================================
// LOGIN
// =============================================================================

// LoginOutput is the --json payload of login.
type LoginOutput struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// HandleLogin signs in and stores the credentials.
func HandleLogin(ctx context.Context, env *Env, args Args) error {
	if err := env.requirePrompt("login"); err != nil {
		return err
	}
	w := env.out()

	email := strings.TrimSpace(args.Email)
	if email == "" {
		fmt.Fprint(w, "Email: ")
		line, err := bufio.NewReader(env.in()).ReadString('\n')
		if err != nil && line == "" {
			return &CommandError{Command: "login", Reason: "could not read email", Err: err}
		}
		email = strings.TrimSpace(line)
	}

	fmt.Fprint(w, "Password: ")
	read := env.ReadPassword
	if read == nil {
		read = readPassword
	}
	password, err := read()
	fmt.Fprintln(w)
	if err != nil {
		return &CommandError{Command: "login", Reason: "could not read password", Err: err}
	}

	creds, err := env.Session.Login(ctx, email, password)
	if err != nil {
		return &CommandError{Command: "login", Reason: session.UserMessage(err), Err: err}
	}

	if args.JSON {
		return NewJSONResponse("login", LoginOutput{UserID: creds.UserID, Role: string(creds.Role)}).Write(w)
	}
	fmt.Fprintf(w, "%s Signed in as user %s (%s)\n",
		SuccessStyle.Render("[OK]"), creds.UserID, creds.Role)
	return nil
}

// readPassword reads a password from stdin without echoing.
func readPassword() (string, error) {
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(passBytes), nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout clears the credential store. It succeeds when already
// signed out.
func HandleLogout(env *Env, args Args) error {
	// The navigation command only matters inside the TUI.
	_ = env.Session.Logout()

	w := env.out()
	if args.JSON {
		return NewJSONResponse("logout", map[string]bool{"signed_out": true}).Write(w)
	}
	fmt.Fprintf(w, "%s Signed out\n", SuccessStyle.Render("[OK]"))
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// StatusOutput is the --json payload of status.
type StatusOutput struct {
	Verdict   string `json:"verdict"`
	Reason    string `json:"reason"`
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

// HandleStatus runs the same decision the gate runs and prints it. A
// refresh may happen as a side effect.
func HandleStatus(ctx context.Context, env *Env, args Args) error {
	d := env.Decider.Decide(ctx)

	out := StatusOutput{
		Verdict: d.Verdict.String(),
		Reason:  string(d.Reason),
	}
	if d.Verdict == auth.Authorized {
		if snap, err := env.Store.Read(); err == nil {
			out.UserID = snap.UserID
			out.Role = string(snap.Role)
		}
		if env.Profiles != nil && out.UserID != "" {
			if p, err := env.Profiles.Profile(ctx, out.UserID, out.Role); err == nil {
				out.Name = p.Name()
				out.Email = p.Email
			} else {
				log.Printf("profile lookup failed: %v", err)
			}
		}
		if !d.ExpiresAt.IsZero() {
			out.ExpiresAt = d.ExpiresAt.UTC().Format(time.RFC3339)
			out.ExpiresIn = util.FormatDuration(time.Until(d.ExpiresAt))
		}
	}

	w := env.out()
	if args.JSON {
		return NewJSONResponse("status", out).Write(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("Session"))
	verdict := ErrorStyle.Render(strings.ToUpper(out.Verdict))
	if d.Verdict == auth.Authorized {
		verdict = SuccessStyle.Render(strings.ToUpper(out.Verdict))
	}
	fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render("Verdict:"), verdict)
	fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render("Reason:"), ValueStyle.Render(out.Reason))
	if out.UserID != "" {
		fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render("User:"), ValueStyle.Render(out.UserID))
	}
	if out.Name != "" {
		fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render("Name:"), ValueStyle.Render(out.Name))
	}
	if out.Email != "" {
		fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render("Email:"), ValueStyle.Render(out.Email))
	}
	if out.Role != "" {
		fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render("Role:"), ValueStyle.Render(out.Role))
	}
	if out.ExpiresIn != "" {
		fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render("Token expires:"), ValueStyle.Render("in "+out.ExpiresIn))
	}
	if d.Verdict != auth.Authorized {
		fmt.Fprintln(w)
		fmt.Fprintln(w, DimStyle.Render("  Run 'aurora login' to sign in"))
	}
	return nil
}
