package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/arkvest/arkvest/internal/app"
	seeders "github.com/arkvest/arkvest/internal/seeder"
	"github.com/arkvest/arkvest/internal/version"
	"github.com/arkvest/arkvest/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()
	defer application.Cache.Close()

	seeders.New(application.DB).Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := worker.New(&worker.Worker{
		KafkaStream: application.Kafka,
		DB:          application.DB,
		Mailer:      application.Mailer,
		Helper:      application.Helper,
		Ctx:         ctx,
	})

	go workers.DepositCreditWorker()
	go workers.DepositNotificationWorker()
	go workers.DisbursementWorker()

	accrual := worker.NewAccrualWorker(
		application.DB,
		time.Duration(application.Config.Accrual.Interval)*time.Second,
		logger,
	)
	accrual.Start()
	defer accrual.Stop()

	return application.ServeHTTP()
}
