package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/damwatch/taskdesk/internal"
	"github.com/damwatch/taskdesk/internal/activity"
	activityrepo "github.com/damwatch/taskdesk/internal/activity/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/collaboration"
	collaborationrepo "github.com/damwatch/taskdesk/internal/collaboration/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/config"
	"github.com/damwatch/taskdesk/internal/dashboard"
	"github.com/damwatch/taskdesk/internal/disposition"
	dispositionrepo "github.com/damwatch/taskdesk/internal/disposition/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/event"
	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/i18n"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/notification"
	notificationrepo "github.com/damwatch/taskdesk/internal/notification/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/pushnotification"
	pushsubrepo "github.com/damwatch/taskdesk/internal/pushsubscription/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/retention"
	"github.com/damwatch/taskdesk/internal/task"
	taskrepo "github.com/damwatch/taskdesk/internal/task/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/user"
	userrepo "github.com/damwatch/taskdesk/internal/user/repositoryimpl"
	"github.com/damwatch/taskdesk/pkg/clog"
	"github.com/damwatch/taskdesk/pkg/panicerr"
	"github.com/damwatch/taskdesk/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	inner, closer, err := openStorage(ctx, &env.StorageEnv)
	if err != nil {
		slog.Error("failed to open storage", "type", env.StorageEnv.Type, "error", err)
		os.Exit(1)
	}
	defer closer.Close()
	store := storage.NewBatching(inner)

	translator, err := i18n.New(env.DefaultLocale)
	if err != nil {
		slog.Error("failed to load translations", "error", err)
		os.Exit(1)
	}

	bus := eventbus.New()

	// Setup repositories
	userRepo := userrepo.NewYAMLRepository(store)
	taskRepo := taskrepo.NewYAMLRepository(store)
	dispositionRepo := dispositionrepo.NewYAMLRepository(store)
	collaborationRepo := collaborationrepo.NewYAMLRepository(store)
	notificationRepo := notificationrepo.NewYAMLRepository(store)
	activityRepo := activityrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	engine := lifecycle.NewEngine(store, notificationRepo, activityRepo, bus, translator)

	// Setup services
	userService := user.NewService(userRepo, engine)
	taskService := task.NewService(taskRepo, engine, userService)
	dispositionService := disposition.NewService(dispositionRepo, engine, userService)
	collaborationService := collaboration.NewService(collaborationRepo, engine, userService)
	notificationService := notification.NewService(notificationRepo, store, bus, nil)
	activityService := activity.NewService(activityRepo, userService, bus, nil)
	dashboardService := dashboard.NewService(taskService, dispositionService, collaborationService, notificationRepo, activityRepo)

	if admin, created, err := userService.Bootstrap(ctx, env.BootstrapAdminUsername, env.BootstrapAdminName); err != nil {
		slog.Error("failed to bootstrap admin", "error", err)
		os.Exit(1)
	} else if created {
		slog.Info("bootstrap admin created", "user_id", admin.ID, "username", admin.Username)
	}

	// Setup push notification
	vapidEnv := &env.VAPIDEnv
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushDispatcher := pushnotification.NewDispatcher(bus, notificationRepo, pushSender)

	sweeper := retention.NewSweeper(&env.RetentionEnv, notificationRepo, activityRepo, taskService, store, nil)

	srv := server.NewServer(env,
		[]server.RouteProvider{
			user.NewServer(userService),
			task.NewServer(taskService, userService),
			disposition.NewServer(dispositionService, userService),
			collaboration.NewServer(collaborationService, userService),
			notification.NewServer(notificationService),
			activity.NewServer(activityService),
			event.NewServer(bus),
			pushnotification.NewServer(vapidEnv, pushSubRepo, pushSender),
		},
		dashboard.NewHandler(dashboardService, userService),
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		panicerr.Loop(ctx, "push dispatcher", func(ctx context.Context) error {
			pushDispatcher.Start(ctx)
			return nil
		})
	})
	wg.Go(func() { panicerr.Loop(ctx, "retention sweeper", sweeper.Run) })
	if env.RosterFile != "" {
		watcher := user.NewRosterWatcher(env.RosterFile, userService)
		wg.Go(func() { panicerr.Loop(ctx, "roster watcher", watcher.Run) })
	}
	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, io.Closer, error) {
	switch env.Type {
	case "s3":
		s, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region, storage.WithS3Endpoint(env.S3Endpoint))
		return s, nopCloser{}, err
	case "sqlite":
		s, err := storage.NewSQLiteStorage(ctx, env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "memory":
		slog.Warn("using in-memory storage; data is lost on exit")
		return storage.NewMemoryStorage(), nopCloser{}, nil
	case "local":
		s, err := storage.NewLocalStorage(env.BaseDir)
		return s, nopCloser{}, err
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", env.Type)
	}
}
