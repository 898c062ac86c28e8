package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dynaform/internal/cache"
	"dynaform/internal/config"
	"dynaform/internal/engine"
	"dynaform/internal/objectgraph"
	"dynaform/internal/repository"
	"dynaform/internal/service"
	"dynaform/internal/transport/rest"
)

// App holds the connected stores and wired services
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Mongo *mongo.Client
	Redis *redis.Client

	QuestionSheetRepo repository.QuestionSheetRepo
	AnswerSheetRepo   repository.AnswerSheetRepo
	AnswerRepo        repository.AnswerRepo
	ObjectRepo        repository.ObjectRepo

	Engine               *engine.Engine
	AuthService          *service.AuthService
	QuestionSheetService *service.QuestionSheetService
	AnswerSheetService   *service.AnswerSheetService
}

// New connects to MongoDB and Redis and wires every service. Redis is
// skipped when no address is configured.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	a.Mongo = mongoClient

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Info("connected to mongodb", "database", cfg.MongoDatabase, "transactions", cfg.MongoTransactions)

	if addr := strings.TrimPrefix(cfg.RedisAddr, "redis://"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			a.Close(ctx)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.Redis = rdb
		logger.Info("connected to redis", "addr", addr)
	}

	db := mongoClient.Database(cfg.MongoDatabase)
	ec := cfg.Engine
	a.QuestionSheetRepo = repository.NewQuestionSheetRepo(db, ec.Collection("question_sheets"))
	a.AnswerSheetRepo = repository.NewAnswerSheetRepo(db, ec.Collection("answer_sheets"))
	a.AnswerRepo = repository.NewAnswerRepo(db, ec.Collection("answers"), cfg.MongoTransactions)
	a.ObjectRepo = repository.NewObjectRepo(db, ec.Collection("objects"))

	if err := a.AnswerRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("answer index creation failed", "error", err)
	}

	if err := a.wire(); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// NewWithRepos wires services over the given stores without connecting
// anything
func NewWithRepos(cfg *config.Config, logger *slog.Logger, questions repository.QuestionSheetRepo, sheets repository.AnswerSheetRepo, answers repository.AnswerRepo, objects repository.ObjectRepo) (*App, error) {
	a := &App{
		Config:            cfg,
		Logger:            logger,
		QuestionSheetRepo: questions,
		AnswerSheetRepo:   sheets,
		AnswerRepo:        answers,
		ObjectRepo:        objects,
	}
	if err := a.wire(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	cfg := a.Config

	locks := engine.DefaultLockRules()
	if cfg.LockRulesPath != "" {
		rules, err := engine.LoadLockRules(cfg.LockRulesPath)
		if err != nil {
			return err
		}
		locks = rules
	}

	schema := objectgraph.DefaultSchema()
	if cfg.ObjectSchemaPath != "" {
		s, err := objectgraph.LoadSchema(cfg.ObjectSchemaPath)
		if err != nil {
			return err
		}
		schema = s
	}

	opts := []engine.Option{engine.WithLockRules(locks)}
	a.AuthService = service.NewAuthService(cfg.Auth)
	a.QuestionSheetService = service.NewQuestionSheetService(a.QuestionSheetRepo)

	if a.Redis != nil {
		a.QuestionSheetService.SetCache(cache.NewSheetCache(a.Redis))
		if cfg.Engine.ChoiceCacheTTL > 0 {
			opts = append(opts, engine.WithSourceCache(cache.NewChoiceCache(a.Redis, cfg.Engine.ChoiceCacheTTL)))
		}
	}

	a.Engine = engine.New(cfg.Engine, a.AnswerRepo, opts...)
	a.AnswerSheetService = service.NewAnswerSheetService(
		a.AnswerSheetRepo,
		a.AnswerRepo,
		a.ObjectRepo,
		a.QuestionSheetService,
		a.Engine,
		schema,
		cfg.Engine.DefaultAnswerSheetType,
	)
	return nil
}

// Router builds the HTTP handler over the wired services
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:          a.AuthService,
		QuestionSheetService: a.QuestionSheetService,
		AnswerSheetService:   a.AnswerSheetService,
		Logger:               a.Logger,
	})
}

// Close releases the store connections
func (a *App) Close(ctx context.Context) {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", "error", err)
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.Logger.Warn("mongodb disconnect failed", "error", err)
		}
	}
}
