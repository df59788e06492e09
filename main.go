package main

import (
	"context"
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

	"taskhub/api"
	"taskhub/bus"
	"taskhub/domain"
	"taskhub/storage"
)

type taskStore interface {
	domain.TaskStore
	domain.UserStore
}

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.New()
	ctx := context.Background()

	var store taskStore
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		dbName := os.Getenv("MONGO_DATABASE")
		if dbName == "" {
			dbName = "taskhub"
		}
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		mongoStore, err := storage.New(connectCtx, uri, dbName, logger)
		cancel()
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		defer mongoStore.Close(ctx)
		store = mongoStore
	} else {
		logger.Warn("MONGO_URI not set, using in-memory store")
		store = storage.NewMemStore()
	}

	broker := bus.NewBroker(0, logger)
	var eventBus bus.Bus = broker
	var deduper api.Deduper
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
		rc := redis.NewClient(redisOpts)

		channel := os.Getenv("EVENTS_CHANNEL")
		if channel == "" {
			channel = "taskhub:events"
		}
		redisBus := bus.NewRedisBus(broker, rc, channel, logger)
		go redisBus.Run(ctx)
		eventBus = redisBus

		ttl := 24 * time.Hour
		if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid IDEMPOTENCY_TTL: %v", err)
			}
			ttl = d
		}
		deduper = api.NewRedisDeduper(rc, ttl)
	} else {
		logger.Warn("REDIS_CONNECTION_STRING not set, events stay within this instance")
	}

	testMode := os.Getenv("AUTH0_TEST_MODE") == "1" || os.Getenv("LOCAL_AUTH_MODE") != ""
	var auth *api.Auth
	if testMode {
		auth = api.NewAuth(nil, "", "")
	} else {
		jwtAudience := os.Getenv("AUTH0_AUDIENCE")
		domainName := os.Getenv("AUTH0_DOMAIN")
		if jwtAudience == "" || domainName == "" {
			log.Fatal("missing Auth0 config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domainName)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, jwtAudience, "https://"+domainName+"/")
	}

	svc := domain.NewTaskService(store, store, eventBus, logger)

	e := echo.New()
	allowedOrigin := os.Getenv("FRONTEND_URL")
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{allowedOrigin},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))

	api.Register(e, svc, store, eventBus, auth, deduper, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
