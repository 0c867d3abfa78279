// Package admin implements oanctl, the operator CLI: schema migrations, demo
// data, account review and manual account creation.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/services"
)

const usage = `Usage: oanctl <command> [args]

Commands:
  migrate                        apply database migrations
  seed                           create the demo fund and LP (idempotent)
  approve <email>                approve a pending account
  reject <email>                 reject a pending account
  create-account <email> <role>  create a verified, approved account (role LP or FUND)
  upload-deck <email> <file.pdf> upload the pitch deck of an approved fund
`

var ErrUsage = errors.New("invalid usage")

type AccountAdmin interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Approve(ctx context.Context, email string) (*models.Account, error)
	Reject(ctx context.Context, email string) (*models.Account, error)
	Provision(ctx context.Context, email, password string, role models.Role) (*models.Account, error)
}

type ProfileWriter interface {
	Update(ctx context.Context, account *models.Account, patch services.ProfilePatch) (models.Profile, error)
}

type DeckUploader interface {
	DeckUploadURL(ctx context.Context, account *models.Account) (string, string, error)
}

type App struct {
	accounts  AccountAdmin
	profiles  ProfileWriter
	documents DeckUploader
	migrate   func(ctx context.Context) error
	out       io.Writer
	password  func(w io.Writer) (string, error)
}

func NewApp(accounts AccountAdmin, profiles ProfileWriter, documents DeckUploader, migrate func(ctx context.Context) error, out io.Writer) *App {
	return &App{
		accounts:  accounts,
		profiles:  profiles,
		documents: documents,
		migrate:   migrate,
		out:       out,
		password:  PromptPassword,
	}
}

// Run executes one command. Unknown commands and wrong argument counts print
// the usage text and return ErrUsage.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage()
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(a.out, "migrations applied")
		return nil

	case "seed":
		return a.seed(ctx)

	case "approve", "reject":
		if len(rest) != 1 {
			return a.usage()
		}
		return a.review(ctx, cmd, rest[0])

	case "create-account":
		if len(rest) != 2 {
			return a.usage()
		}
		return a.createAccount(ctx, rest[0], rest[1])

	case "upload-deck":
		if len(rest) != 2 {
			return a.usage()
		}
		return a.uploadDeck(ctx, rest[0], rest[1])

	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil

	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
		return a.usage()
	}
}

func (a *App) usage() error {
	fmt.Fprint(a.out, usage)
	return ErrUsage
}

func (a *App) review(ctx context.Context, cmd, email string) error {
	decide := a.accounts.Approve
	if cmd == "reject" {
		decide = a.accounts.Reject
	}

	acc, err := decide(ctx, email)
	if err != nil {
		return fmt.Errorf("%s %s: %w", cmd, email, err)
	}
	fmt.Fprintf(a.out, "%s is now %s\n", acc.Email, acc.Status)
	return nil
}

func (a *App) createAccount(ctx context.Context, email, roleArg string) error {
	role, err := models.ParseRole(roleArg)
	if err != nil {
		return err
	}

	pw, err := a.password(a.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	acc, err := a.accounts.Provision(ctx, email, pw, role)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	fmt.Fprintf(a.out, "created %s account %s (%s)\n", acc.Role, acc.Email, acc.ID)
	return nil
}
