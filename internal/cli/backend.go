package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/config"
	"ladder-quiz-bot/internal/infra/memory"
	"ladder-quiz-bot/internal/infra/postgres"
	redisstore "ladder-quiz-bot/internal/infra/redis"
	"ladder-quiz-bot/internal/infra/sqlite"
	"ladder-quiz-bot/internal/random"
	"ladder-quiz-bot/internal/seed"
)

// bankImporter is implemented by the durable stores.
type bankImporter interface {
	ImportBank(ctx context.Context, bank seed.Bank) (int, error)
}

// backend holds the repositories chosen by the storage config.
type backend struct {
	bank     app.Bank
	quests   app.QuestRepository
	sessions app.SessionRepository
	players  app.PlayerRepository
	importer bankImporter
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func loadBank(cfg config.Config) (seed.Bank, error) {
	if cfg.Bank.Path == "" {
		return seed.Default(), nil
	}
	return seed.Load(cfg.Bank.Path)
}

// openStorage connects the configured driver without caches or redis.
func openStorage(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{
			bank: store, quests: store, sessions: store, players: store, importer: store,
			closers: []func(){func() { store.Close() }},
		}, nil
	case config.DriverPostgres:
		if err := runMigrations(ctx, cfg.Postgres.URL); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := postgres.NewStore(pool)
		return &backend{
			bank: store, quests: store, sessions: store, players: store, importer: store,
			closers: []func(){pool.Close},
		}, nil
	default:
		bank, err := loadBank(cfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			bank:     memory.NewBank(bank),
			quests:   memory.NewQuestStore(),
			sessions: memory.NewSessionStore(),
			players:  memory.NewPlayerStore(),
		}, nil
	}
}

// openBackend opens storage, imports the bank when asked and layers caches and redis on top.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if b.importer != nil && cfg.Bank.ImportOnStart {
		if err := importBank(ctx, cfg, b.importer); err != nil {
			b.Close()
			return nil, err
		}
	}

	cacheTTL := config.TTLDuration(cfg.Bank.CacheTTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.closers = append(b.closers, func() { client.Close() })
		b.sessions = redisstore.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
		b.bank = redisstore.NewBankCache(client, b.bank, cacheTTL)
		log.Printf("sessions and bank cache on redis %s", cfg.Redis.Addr)
	} else if b.importer != nil {
		b.bank = memory.NewBankCache(b.bank, cacheTTL)
	}
	return b, nil
}

func importBank(ctx context.Context, cfg config.Config, importer bankImporter) error {
	bank, err := loadBank(cfg)
	if err != nil {
		return err
	}
	added, err := importer.ImportBank(ctx, bank)
	if err != nil {
		return fmt.Errorf("import bank: %w", err)
	}
	log.Printf("bank imported: %d new questions", added)
	return nil
}

func newGame(cfg config.Config, b *backend) (*app.Game, error) {
	rnd, err := random.NewSource()
	if err != nil {
		return nil, err
	}
	factory := app.NewQuestFactory(b.bank, b.quests, rnd)
	return app.NewGame(b.sessions, b.players, factory, app.NewHintEngine(rnd, hintConfig(cfg))), nil
}

// hintConfig applies the configured overrides to the default weighting.
func hintConfig(cfg config.Config) app.HintConfig {
	hints := app.DefaultHintConfig()
	if cfg.Hints.Ceiling != nil {
		hints.Ceiling = *cfg.Hints.Ceiling
	}
	if cfg.Hints.Factor != nil {
		hints.Factor = *cfg.Hints.Factor
	}
	return hints
}
