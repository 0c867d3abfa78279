// Command oanctl is the operator CLI for the fund connector.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/fundconnector/internal/admin"
	"github.com/dmitrijs2005/fundconnector/internal/logging"
	"github.com/dmitrijs2005/fundconnector/internal/server/config"
	"github.com/dmitrijs2005/fundconnector/internal/server/mailer"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fundconnector/internal/server/services"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stderr, cfg.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	accounts := services.NewAccountService(db, rm, cfg, mailer.NewLogMailer(logger), logger)
	profiles := services.NewProfileService(db, rm, logger)
	documents := services.NewDocumentService(db, rm, cfg, logger)

	app := admin.NewApp(accounts, profiles, documents, func(ctx context.Context) error {
		return rm.RunMigrations(ctx, db)
	}, os.Stdout)

	if err := app.Run(ctx, positional(os.Args[1:])); err != nil {
		if !errors.Is(err, admin.ErrUsage) {
			log.Printf("%v", err)
		}
		db.Close()
		os.Exit(1)
	}
}

// positional drops the config flags so only the command and its arguments
// reach the CLI.
func positional(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) > 1 && strings.HasPrefix(a, "-") && a != "-h" && a != "--help" {
			if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, a)
	}
	return out
}
