package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/humanbelnik/pokerboard/internal/config"
	http_board "github.com/humanbelnik/pokerboard/internal/delivery/http/board"
	http_feature "github.com/humanbelnik/pokerboard/internal/delivery/http/feature"
	http_feed "github.com/humanbelnik/pokerboard/internal/delivery/http/feed"
	http_init "github.com/humanbelnik/pokerboard/internal/delivery/http/init"
	ws_board "github.com/humanbelnik/pokerboard/internal/delivery/ws/board"
	infra_memory "github.com/humanbelnik/pokerboard/internal/infra/memory"
	infra_postgres_board "github.com/humanbelnik/pokerboard/internal/infra/postgres/board"
	infra_postgres_feature "github.com/humanbelnik/pokerboard/internal/infra/postgres/feature"
	infra_pg_init "github.com/humanbelnik/pokerboard/internal/infra/postgres/init"
	infra_postgres_message "github.com/humanbelnik/pokerboard/internal/infra/postgres/message"
	infra_redis_init "github.com/humanbelnik/pokerboard/internal/infra/redis/init"
	infra_redis_relay "github.com/humanbelnik/pokerboard/internal/infra/redis/relay"
	infra_redis_votelock "github.com/humanbelnik/pokerboard/internal/infra/redis/votelock"
	"github.com/humanbelnik/pokerboard/internal/service/broker"
	usecase_board "github.com/humanbelnik/pokerboard/internal/usecase/board"
	usecase_feature "github.com/humanbelnik/pokerboard/internal/usecase/feature"
	usecase_feed "github.com/humanbelnik/pokerboard/internal/usecase/feed"
	log "github.com/sirupsen/logrus"
)

type repositories struct {
	boards   usecase_board.BoardRepository
	messages usecase_feed.MessageRepository
	features usecase_feature.FeatureRepository
}

type publisher interface {
	usecase_board.Publisher
	usecase_feed.Publisher
}

func Go(cfg *config.Config) {
	const (
		featureVotesKey = "feature_votes"
	)

	setLogLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos := mustRepositories(ctx, cfg)

	hub := broker.New()
	var (
		pub      publisher = hub
		voteLock usecase_feature.VoteLock
	)
	switch cfg.Broker.Backend {
	case config.BackendRedis:
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		relay := infra_redis_relay.New(redisConn, cfg.Broker.ChannelPrefix, hub)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Errorf("snapshot relay stopped: %v", err)
			}
		}()
		pub = relay
		voteLock = infra_redis_votelock.New(redisConn, featureVotesKey, cfg.Feature.VoteTTL)
	default:
		voteLock = infra_memory.NewVoteLock(cfg.Feature.VoteTTL)
	}

	boardUC := usecase_board.New(repos.boards, pub)
	feedUC := usecase_feed.New(repos.messages, pub)
	featureUC := usecase_feature.New(repos.features, voteLock)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_board.New(boardUC))
	controllerPool.Add(http_feed.New(feedUC))
	controllerPool.Add(http_feature.New(featureUC))
	controllerPool.Add(ws_board.New(boardUC, feedUC, hub))

	controllerPool.Register()
	if err := controllerPool.RunAll(ctx, cfg.HTTP.Host, cfg.HTTP.Port); err != nil {
		log.Fatal(err)
	}
	log.Info("server stopped")
}

func mustRepositories(ctx context.Context, cfg *config.Config) repositories {
	if cfg.Store.Backend == config.BackendMemory {
		boards := infra_memory.NewBoardStore()
		return repositories{
			boards:   boards,
			messages: infra_memory.NewMessageStore(boards),
			features: infra_memory.NewFeatureStore(),
		}
	}

	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
	if err := infra_pg_init.Migrate(ctx, pgConn); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	return repositories{
		boards:   infra_postgres_board.New(pgConn),
		messages: infra_postgres_message.New(pgConn),
		features: infra_postgres_feature.New(pgConn),
	}
}

// Components log through slog; keep it in step with the logrus level.
func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	switch {
	case lvl >= log.DebugLevel:
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case lvl == log.WarnLevel:
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case lvl <= log.ErrorLevel:
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}
}
