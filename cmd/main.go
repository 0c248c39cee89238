package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"academy-agent/handler"
	"academy-agent/internal/checkpoint"
	"academy-agent/internal/dialog"
	"academy-agent/internal/integrations/gemini"
	"academy-agent/internal/integrations/knowledge"
	"academy-agent/internal/integrations/paramstore"
	"academy-agent/internal/repository"
)

func main() {
	ctx := context.Background()

	// Local development convenience; in Lambda there is no .env file.
	_ = godotenv.Load()

	// ---- Configuration (read only here) ----
	leadsTable := mustEnv("LEADS_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	weaviateHost := envStr("WEAVIATE_HOST", "localhost:8080")
	weaviateScheme := envStr("WEAVIATE_SCHEME", "http")
	knowledgeClass := envStr("KNOWLEDGE_CLASS", knowledge.DefaultClassName)
	redisAddr := os.Getenv("REDIS_ADDR")
	sessionTTL := time.Duration(envInt("SESSION_TTL_HOURS", 24)) * time.Hour
	limits := dialog.Limits{
		Guest:   envInt("GUEST_LIMIT", dialog.DefaultGuestLimit),
		PostReg: envInt("POST_REG_LIMIT", dialog.DefaultPostRegLimit),
	}

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	params, err := paramstore.New(awsssm.NewFromConfig(cfg), paramPrefix)
	if err != nil {
		slog.Error("failed to create parameter store client", "err", err)
		os.Exit(1)
	}

	apiKey, err := params.Get(ctx, "gemini-api-key")
	if err != nil {
		slog.Error("failed to read Gemini API key", "err", err)
		os.Exit(1)
	}
	model := params.GetOrDefault(ctx, "gemini-model", gemini.DefaultModel)
	persona := params.GetOrDefault(ctx, "persona-prompt", dialog.DefaultPersona)

	generator, err := gemini.NewClient(ctx, apiKey, model)
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}

	wc, err := weaviate.NewClient(weaviate.Config{Host: weaviateHost, Scheme: weaviateScheme})
	if err != nil {
		slog.Error("failed to create Weaviate client", "err", err)
		os.Exit(1)
	}
	retriever, err := knowledge.New(wc, knowledgeClass)
	if err != nil {
		slog.Error("failed to create knowledge client", "err", err)
		os.Exit(1)
	}

	leads, err := repository.New(awsdynamodb.NewFromConfig(cfg), leadsTable)
	if err != nil {
		slog.Error("failed to create lead store", "err", err)
		os.Exit(1)
	}

	sessions, err := newSessionStore(redisAddr, sessionTTL)
	if err != nil {
		slog.Error("failed to create session store", "err", err)
		os.Exit(1)
	}

	// ---- Dialog wiring ----
	router, err := dialog.NewRouter(leads, limits)
	if err != nil {
		slog.Error("failed to create router", "err", err)
		os.Exit(1)
	}

	emailStep, err := dialog.NewEmailCollector(leads, dialog.EmailConfig{})
	if err != nil {
		slog.Error("failed to create email step", "err", err)
		os.Exit(1)
	}
	detailsCfg := dialog.DefaultDetailsConfig()
	promptStep, err := dialog.NewDetailsPrompter(leads, detailsCfg)
	if err != nil {
		slog.Error("failed to create details prompt step", "err", err)
		os.Exit(1)
	}
	processStep, err := dialog.NewDetailsProcessor(leads, detailsCfg)
	if err != nil {
		slog.Error("failed to create details processing step", "err", err)
		os.Exit(1)
	}
	answerStep, err := dialog.NewAnswerHandler(leads, retriever, generator, persona, dialog.DefaultAnswerConfig())
	if err != nil {
		slog.Error("failed to create answer step", "err", err)
		os.Exit(1)
	}
	limitStep, err := dialog.NewLimitHandler(leads)
	if err != nil {
		slog.Error("failed to create limit step", "err", err)
		os.Exit(1)
	}

	engine, err := dialog.NewEngine(router, sessions, map[dialog.Step]dialog.Handler{
		dialog.StepEmailCollection:      emailStep,
		dialog.StepCollectDetailsPrompt: promptStep,
		dialog.StepProcessDetails:       processStep,
		dialog.StepAnswerGeneration:     answerStep,
		dialog.StepLimitExhausted:       limitStep,
	})
	if err != nil {
		slog.Error("failed to create dialog engine", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(engine, leads)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

// newSessionStore picks Redis when an address is configured and falls back
// to the in-process store otherwise.
func newSessionStore(redisAddr string, ttl time.Duration) (checkpoint.Store, error) {
	if redisAddr == "" {
		return checkpoint.NewMemory(ttl), nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	})
	return checkpoint.NewRedis(rdb, ttl)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
