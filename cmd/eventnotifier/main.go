// Command eventnotifier registers users and sends birthday and anniversary
// greetings at 09:00 in each user's local time zone.
//
//	eventnotifier serve     API, cron trigger and delivery consumer
//	eventnotifier trigger   evaluate the pipeline once and exit
//	eventnotifier consume   run the delivery consumer only
//	eventnotifier token     print an admin bearer token
//
// @title Event Notifier API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"eventnotifier/config"
	_ "eventnotifier/docs"
	"eventnotifier/internal/adapters/auth"
	"eventnotifier/internal/app"
	deliveryhttp "eventnotifier/internal/delivery/http"
	"eventnotifier/internal/delivery/http/controllers"
	"eventnotifier/internal/domain"
	"eventnotifier/internal/scheduler"
	"eventnotifier/internal/services"
)

const usage = `usage: eventnotifier <command> [flags]

commands:
  serve     run the API, the cron trigger and the delivery consumer
  trigger   evaluate the trigger once (-at RFC3339 to replay an instant)
  consume   run the delivery consumer only
  token     print an admin bearer token (-subject, -ttl)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger, args)
	case "trigger":
		err = trigger(ctx, cfg, logger, args)
	case "consume":
		err = consume(ctx, cfg, logger)
	case "token":
		err = token(cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error(cmd+" failed", "err", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	noCron := fs.Bool("no-cron", false, "do not schedule the trigger")
	noConsume := fs.Bool("no-consume", false, "do not run the delivery consumer")
	_ = fs.Parse(args)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	runners := make(map[domain.EventType]controllers.TriggerRunner, len(a.Triggers))
	for et, t := range a.Triggers {
		runners[et] = t
	}
	var db controllers.Pinger
	if a.DB != nil {
		db = a.DB
	}
	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Users:    controllers.NewUserController(logger, a.UserSvc),
		Triggers: controllers.NewTriggerController(logger, runners, a.Clock),
		Health:   controllers.NewHealthController(logger, db, a.Catalog.Len()),
	}, a.Authority, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deliveryhttp.NewHandler(mux, cfg.CORSAllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var sched *scheduler.Scheduler
	if !*noCron {
		sched = scheduler.New(logger)
		job := func(ctx context.Context) error {
			_, err := a.Trigger().Run(ctx)
			return err
		}
		if err := sched.Add("trigger:"+cfg.EventType.String(), cfg.TriggerSchedule, cfg.TriggerTimeout, job); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if !*noConsume || a.UsesMemoryTransport() {
		g.Go(func() error { return a.Consume(gctx) })
	}
	if sched != nil {
		sched.Start(gctx)
	}

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if sched != nil {
			if err := sched.Stop(shutdownCtx); err != nil {
				logger.Warn("scheduler stop", "err", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func trigger(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("trigger", flag.ExitOnError)
	atFlag := fs.String("at", "", "instant to evaluate (RFC3339); defaults to now")
	eventFlag := fs.String("event", "", "event type; defaults to EVENT_TYPE")
	_ = fs.Parse(args)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	t := a.Trigger()
	if *eventFlag != "" {
		et, err := domain.ParseEventType(*eventFlag)
		if err != nil {
			return err
		}
		t = a.Triggers[et]
	}
	at := a.Clock.Now()
	if *atFlag != "" {
		if at, err = time.Parse(time.RFC3339, *atFlag); err != nil {
			return fmt.Errorf("-at: %w", err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.TriggerTimeout)
	defer cancel()

	if !a.UsesMemoryTransport() {
		report, err := t.RunAt(runCtx, at)
		logReport(logger, report)
		return err
	}

	// Messages stay in this process, so deliver them before exiting.
	consumeCtx, stopConsume := context.WithCancel(ctx)
	g := new(errgroup.Group)
	g.Go(func() error { return a.Consume(consumeCtx) })
	report, runErr := t.RunAt(runCtx, at)
	logReport(logger, report)
	waitErr := a.WaitIdle(runCtx)
	stopConsume()
	return errors.Join(runErr, waitErr, g.Wait())
}

func consume(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.UsesMemoryTransport() {
		logger.Warn("consuming the in-memory transport; only messages published by this process are delivered")
	}
	logger.Info("delivery consumer started", "transport", cfg.Transport)
	return a.Consume(ctx)
}

func token(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("subject", "operator", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	_ = fs.Parse(args)

	tok, err := auth.NewJWTAuthority(cfg.JWTSecret).Issue(*subject, []string{auth.RoleAdmin}, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func logReport(logger *slog.Logger, r *services.TriggerReport) {
	if r == nil {
		return
	}
	logger.Info("trigger report",
		"at", r.At,
		"event_type", r.EventType,
		"zones", len(r.Zones),
		"candidates", r.Candidates,
		"matched", r.Matched,
		"emitted", r.Emitted,
		"skipped", r.Skipped,
		"failed_zones", r.FailedZones,
		"failed_users", r.FailedUsers,
	)
}
