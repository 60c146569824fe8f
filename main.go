package main

import (
	"context"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/MohitJain-git/wordle-royale/config"
	"github.com/MohitJain-git/wordle-royale/game"
	"github.com/MohitJain-git/wordle-royale/migrations"
	"github.com/MohitJain-git/wordle-royale/storage"
	"github.com/MohitJain-git/wordle-royale/wordlist"
)

func newLogger(debug bool) zerolog.Logger {
	if debug {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

func newStore(ctx context.Context, cfg config.Config, log zerolog.Logger) storage.DocumentStore {
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, rooms held in process memory only")
		return storage.NewMemoryStore()
	}

	store, err := storage.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to redis")
	}
	log.Info().Msg("connected to redis")
	return store
}

func newDictionary(ctx context.Context, cfg config.Config, log zerolog.Logger) *wordlist.Dictionary {
	if cfg.PostgresURL != "" {
		if err := migrations.Up(cfg.PostgresURL); err != nil {
			log.Fatal().Err(err).Msg("could not migrate words schema")
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to postgres")
		}
		defer pool.Close()

		dict, err := wordlist.FromPostgres(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load words from postgres")
		}
		if dict.Len() > 0 {
			log.Info().Int("words", dict.Len()).Msg("dictionary loaded from postgres")
			return dict
		}
		log.Warn().Msg("words table is empty, falling back to embedded list")
	}

	if cfg.WordsFile != "" {
		dict, err := wordlist.FromFile(cfg.WordsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.WordsFile).Msg("could not load word list file")
		}
		log.Info().Int("words", dict.Len()).Str("path", cfg.WordsFile).Msg("dictionary loaded from file")
		return dict
	}

	dict := wordlist.Embedded()
	log.Info().Int("words", dict.Len()).Msg("dictionary loaded from embedded list")
	return dict
}

func createServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg := config.Load()
	log := newLogger(cfg.Debug)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	store := newStore(ctx, cfg, log)
	dict := newDictionary(ctx, cfg, log)

	hub := game.NewHub(log)
	service := game.NewService(store, dict.Contains, hub, log)
	handler := game.NewHandler(service, cfg.AllowedOrigins, log)

	r := createServer(cfg.AllowedOrigins)
	r.GET("/ws", handler.WebsocketHandler)

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
