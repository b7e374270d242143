package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/inkwell-erp/inkwell-erp/cmd/inkwell/cli"
	"github.com/inkwell-erp/inkwell-erp/internal/app"
	"github.com/inkwell-erp/inkwell-erp/internal/deliveries"
	"github.com/inkwell-erp/inkwell-erp/internal/finance"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/clients"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/printers"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/products"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/suppliers"
	"github.com/inkwell-erp/inkwell-erp/internal/observability"
	"github.com/inkwell-erp/inkwell-erp/internal/orders"
	"github.com/inkwell-erp/inkwell-erp/internal/platform/cache"
	"github.com/inkwell-erp/inkwell-erp/internal/platform/db"
	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
	"github.com/inkwell-erp/inkwell-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCLI(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	guard := shared.Guard{Logger: logger}
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	reconcileRepo := reconcile.NewRepository(pool)
	engine := reconcile.NewEngine(reconcileRepo, auditLogger, logger).WithMetrics(metrics)
	ledger := reconcile.NewLedger(reconcileRepo, auditLogger)
	reportCache := reconcile.NewReportCache(redisClient, cfg.ReportCacheTTL)
	reconcileHandler := reconcile.NewHandler(logger, engine, ledger, reportCache, metrics, guard)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, ledger, auditLogger)
	ordersHandler := orders.NewHandler(logger, ordersService, guard)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	deliveriesRepo := deliveries.NewRepository(pool)
	deliveriesService := deliveries.NewService(deliveriesRepo, ledger, jobsClient, auditLogger, idempotencyStore, logger)
	deliveriesHandler := deliveries.NewHandler(logger, deliveriesService, guard)

	clientsHandler := clients.NewHandler(logger, clients.NewService(clients.NewRepository(pool)), guard)
	suppliersHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(pool)), guard)
	productsHandler := products.NewHandler(logger, products.NewService(products.NewRepository(pool)), guard)
	printersHandler := printers.NewHandler(logger, printers.NewService(printers.NewRepository(pool)), guard)

	financeRepo := finance.NewRepository(pool)
	financeService := finance.NewService(financeRepo, auditLogger, logger)
	financeHandler := finance.NewHandler(logger, financeService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		OrdersHandler:     ordersHandler,
		DeliveriesHandler: deliveriesHandler,
		ReconcileHandler:  reconcileHandler,
		ClientsHandler:    clientsHandler,
		SuppliersHandler:  suppliersHandler,
		ProductsHandler:   productsHandler,
		PrintersHandler:   printersHandler,
		FinanceHandler:    financeHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runJobsCLI(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: inkwell jobs <stats|refresh ORDER_ID|warmup [MONTHS]|scheduled [N]>")
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	case "refresh":
		if len(args) < 2 {
			return fmt.Errorf("usage: inkwell jobs refresh ORDER_ID")
		}
		orderID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[1])
		}
		info, err := jobsCLI.TriggerReconcileRefresh(ctx, orderID)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s\n", info.Type, info.ID)
		return nil
	case "warmup":
		months := 12
		if len(args) > 1 {
			months, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid months %q", args[1])
			}
		}
		info, err := jobsCLI.TriggerFinanceWarmup(ctx, months)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s\n", info.Type, info.ID)
		return nil
	case "scheduled":
		size := 10
		if len(args) > 1 {
			size, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid size %q", args[1])
			}
		}
		tasks, err := jobsCLI.ListScheduled(ctx, size)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			fmt.Printf("task=%s id=%s next=%s\n", task.Type, task.ID, task.NextProcessAt.Format(time.RFC3339))
		}
		fmt.Printf("%d scheduled task(s)\n", len(tasks))
		return nil
	default:
		return fmt.Errorf("unknown jobs command %q", args[0])
	}
}
