package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban-api/api"
	"kanban-api/domain"
	"kanban-api/storage"
)

const defaultCacheTTL = 5 * time.Minute

// cacheTTL parses TASKS_CACHE_TTL; empty selects the default. The error
// names the offending value, not the parse failure.
func cacheTTL(v string) (time.Duration, error) {
	if v == "" {
		return defaultCacheTTL, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid TASKS_CACHE_TTL: %q", v)
	}
	return d, nil
}

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	cfg := storage.Config{
		TasksTable:       os.Getenv("TASKS_TABLE"),
		BoardsTable:      os.Getenv("BOARDS_TABLE"),
		AttachmentsTable: os.Getenv("ATTACHMENTS_TABLE"),
		ActivitiesTable:  os.Getenv("ACTIVITIES_TABLE"),
		UsersTable:       os.Getenv("USERS_TABLE"),
		ActivityQueue:    os.Getenv("ACTIVITY_QUEUE"),
	}
	if connStr == "" || cfg.TasksTable == "" || cfg.BoardsTable == "" ||
		cfg.AttachmentsTable == "" || cfg.ActivitiesTable == "" || cfg.UsersTable == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	var backing domain.Store = store
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		ttl, err := cacheTTL(os.Getenv("TASKS_CACHE_TTL"))
		if err != nil {
			log.Fatal(err)
		}
		backing = storage.NewCache(store, redis.NewClient(redisOpts), ttl)
	}

	var verifier *api.Verifier
	if jwksURL := os.Getenv("AUTH_JWKS_URL"); jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		verifier = api.NewVerifier(jwks, os.Getenv("AUTH_AUDIENCE"), os.Getenv("AUTH_ISSUER"))
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	api.Register(e, backing, verifier, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
