package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/praveenlokku/EasyApply/internal/ai"
	"github.com/praveenlokku/EasyApply/internal/ai/gemini"
	"github.com/praveenlokku/EasyApply/internal/ai/openai"
	"github.com/praveenlokku/EasyApply/internal/ai/service"
	"github.com/praveenlokku/EasyApply/internal/logger"
	"github.com/praveenlokku/EasyApply/internal/secrets"
	"github.com/praveenlokku/EasyApply/internal/server"
	"github.com/praveenlokku/EasyApply/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the easyapply HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default is server.listen from config, or :8080)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		panic(fmt.Sprintf("creating a logger: %s", err))
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting easyapply", zap.String("version", version))

	svc := newService(ctx, config, log)

	srv := server.New(viper.GetString("server.listen"), svc, store.New(), log)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("http server", zap.Error(err))
	}

	log.Info("shutdown complete")
}

// newService assembles the provider chain in configured order. Providers
// without a usable key still join the chain; they report key-missing on
// first use and the chain moves past them.
func newService(ctx context.Context, config *Config, log *zap.Logger) *service.Service {
	aiCfg := config.AI
	if aiCfg == nil {
		aiCfg = &AIConfig{}
	}

	order := aiCfg.ProviderOrder
	if len(order) == 0 {
		order = []string{"openai", "gemini"}
	}

	providers := make([]ai.Provider, 0, len(order))
	for _, name := range order {
		provider, err := buildProvider(ctx, name, aiCfg, log)
		if err != nil {
			log.Warn("skipping provider", zap.String("provider", name), zap.Error(err))
			continue
		}
		providers = append(providers, provider)
	}

	timeout := time.Duration(aiCfg.TimeoutSecs) * time.Second

	return service.New(providers, ai.NewTracker(), log, timeout)
}

func buildProvider(ctx context.Context, name string, cfg *AIConfig, log *zap.Logger) (ai.Provider, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "openai":
		key := resolveKey("openai api key", cfg.OpenAI, "OPENAI_API_KEY")
		model := providerModel(cfg.OpenAI)
		return openai.NewClient(key, model, logger.WithCommonFields(log, "openai", model)), nil
	case "gemini":
		key := resolveKey("gemini api key", cfg.Gemini, "GEMINI_API_KEY")
		model := providerModel(cfg.Gemini)
		return gemini.NewClient(ctx, key, model, logger.WithCommonFields(log, "gemini", model))
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
}

// resolveKey loads a provider key from file, inline config or environment.
// A missing key is not an error here; the provider itself reports it as
// unavailable.
func resolveKey(name string, cfg *ProviderConfig, env string) string {
	src := secrets.Source{Name: name, Env: env}
	if cfg != nil {
		src.Value = cfg.APIKey
		src.File = cfg.APIKeyFile
	}

	key, err := secrets.Load(src)
	if err != nil {
		return ""
	}
	return key
}

func providerModel(cfg *ProviderConfig) string {
	if cfg == nil {
		return ""
	}
	return strings.TrimSpace(cfg.Model)
}
