// Command revise is the terminal client for the revision service.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-revise/internal/apiclient"
	"github.com/mind-engage/mindengage-revise/internal/auth"
	"github.com/mind-engage/mindengage-revise/internal/config"
	"github.com/mind-engage/mindengage-revise/internal/db"
	"github.com/mind-engage/mindengage-revise/internal/logging"
	"github.com/mind-engage/mindengage-revise/internal/progress"
	"github.com/mind-engage/mindengage-revise/internal/securestore"
	syncx "github.com/mind-engage/mindengage-revise/internal/sync"
	"github.com/mind-engage/mindengage-revise/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "revise:", err)
		os.Exit(1)
	}
}

func run() (err error) {
	config.LoadDotEnv()
	cfg := config.ClientFromEnv()

	log, logFile, err := logging.OpenFile(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, outbox, dbh, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if dbh != nil {
		defer func() {
			if cerr := dbh.Close(); cerr != nil {
				err = multierror.Append(err, errors.Wrap(cerr, "close store"))
			}
		}()
	}

	session := auth.NewSession(store, log)
	if err := session.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore login")
	}

	client := apiclient.New(cfg.APIURL,
		apiclient.WithTokenSource(session),
		apiclient.WithUnauthorizedHook(session.Unauthorized),
		apiclient.WithLogger(log),
		apiclient.WithTimeout(cfg.HTTPTimeout),
	)

	reporter := progress.NewReporter(client,
		progress.WithOutbox(outbox),
		progress.WithLogger(log),
		progress.WithSendTimeout(cfg.HTTPTimeout),
	)
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		if session.IsAuthenticated() {
			flushPending(reporter, log, cfg.HTTPTimeout)
		}
	}()

	app := tui.New(&tui.Deps{
		API:      client,
		Auth:     session,
		Progress: reporter,
		Log:      log,
		Timeout:  cfg.HTTPTimeout,
	})
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()

	// let the last report leave before the store closes
	reporter.Wait()
	<-flushed
	return errors.Wrap(err, "run ui")
}

// openStore picks the credential store and, for SQL backends, the outbox
// sharing its database. The file backend has no outbox.
func openStore(ctx context.Context, cfg config.Client) (securestore.Store, *syncx.EventRepo, *sql.DB, error) {
	sealer, err := securestore.NewSealer(cfg.StoreKey)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.StoreDriver == "file" {
		fs, err := securestore.NewFSStore(cfg.StoreDir, sealer)
		return fs, nil, nil, err
	}
	driver, err := db.ParseDriver(cfg.StoreDriver)
	if err != nil {
		return nil, nil, nil, err
	}
	dbh, err := db.Open(ctx, driver, cfg.StoreDSN, db.Merge(securestore.Schema, syncx.Schema))
	if err != nil {
		return nil, nil, nil, err
	}
	return securestore.NewSQLStore(dbh, sealer), syncx.NewEventRepo(dbh), dbh, nil
}

func flushPending(r *progress.Reporter, log zerolog.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*timeout)
	defer cancel()
	n, err := r.Flush(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("flush pending progress")
		return
	}
	if n > 0 {
		log.Info().Int("delivered", n).Msg("pending progress delivered")
	}
}
