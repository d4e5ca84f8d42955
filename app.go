package main

import (
	"context"
	"fmt"
	"net/http"

	"task-manager/server/config"
	"task-manager/server/handlers"
	"task-manager/server/logging"
	"task-manager/server/metrics"
	"task-manager/server/ratelimit"
	"task-manager/server/repositories"
	"task-manager/server/response"
	"task-manager/server/services"
	"task-manager/server/utils"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// app holds the wired HTTP handler and the resources to release on shutdown.
type app struct {
	handler http.Handler
	closers map[string]gfshutdown.Operation
}

func connectMongo(ctx context.Context, cfg config.Mongo) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{closers: map[string]gfshutdown.Operation{}}

	var (
		tasks services.TaskStore
		users services.UserStore
	)
	switch cfg.App.Store {
	case "memory":
		logging.Logger.Warn("Event ID: STORE_MEMORY, Description: Using in-memory store, data is lost on restart")
		tasks = repositories.NewMemoryTaskRepository()
		users = repositories.NewMemoryUserRepository()
	default:
		client, err := connectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Connected to MongoDB database %s", cfg.Mongo.Database)
		a.closers["mongo"] = client.Disconnect

		db := client.Database(cfg.Mongo.Database)
		if err := repositories.EnsureIndexes(ctx, db); err != nil {
			return nil, err
		}
		tasks = repositories.NewTaskRepository(db)
		users = repositories.NewUserRepository(db)
	}

	var notifier services.Notifier = utils.NopNotifier{}
	if cfg.SMTP.Host != "" && cfg.App.Env != config.EnvTest {
		notifier = utils.NewWelcomeNotifier(utils.NewSMTPMailer(cfg.SMTP))
	}

	tokens := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.Issuer)
	routerCfg := handlers.RouterConfig{
		Auth:           services.NewAuthGuard(tokens, users),
		Users:          services.NewUserService(users, tasks, tokens, notifier),
		Tasks:          services.NewTaskService(tasks),
		Metrics:        metrics.New(),
		Out:            response.NewWriter(!cfg.IsProduction()),
		FrontendURL:    cfg.CORS.FrontendURL,
		AuthRateLimit:  cfg.Redis.AuthLimit,
		AuthRateWindow: cfg.Redis.Window,
	}

	if cfg.Redis.Addr != "" {
		client, err := ratelimit.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logging.Logger.Warnf("Event ID: REDIS_UNAVAILABLE, Description: Rate limiting disabled: %v", err)
		} else {
			routerCfg.Limiter = ratelimit.NewLimiter(client, "ratelimit:auth:")
			a.closers["redis"] = func(context.Context) error { return client.Close() }
		}
	}

	a.handler = handlers.NewRouter(routerCfg)
	return a, nil
}
