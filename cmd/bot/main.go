package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lavka/internal/api"
	"lavka/internal/bot"
	"lavka/internal/config"
	"lavka/internal/database"
	"lavka/internal/domain"
	"lavka/internal/events"
	"lavka/internal/google"
	"lavka/internal/logging"
	"lavka/internal/metrics"
	"lavka/internal/repository"
	"lavka/internal/service"
	"lavka/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	admins, err := config.NewAdminProvider(cfg.AdminsFile)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.AdminsFile).Msg("Ошибка загрузки списка администраторов")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)

	// Google Sheets опционален: без него заказы живут только в базе.
	var sheetsWorker *worker.SheetsWorker
	if sheetsService := initGoogleSheets(ctx, cfg, &logger); sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		sheetsWorker = worker.NewSheetsWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go sheetsWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()

	cartService := service.NewCartService(db, &logger)
	catalogService := service.NewCatalogService(db, &logger)
	dialogService := service.NewDialogService(db, eventBus, &logger)
	userService := service.NewUserService(db, &logger)

	// Типизированный nil в интерфейсе ломает проверку внутри сервиса,
	// поэтому воркер передаётся только когда он реально создан.
	var syncWorker domain.SyncWorker
	if sheetsWorker != nil {
		syncWorker = sheetsWorker
	}
	orderService := service.NewOrderService(db, eventBus, syncWorker, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(cfg.API, catalogService, orderService, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			_ = apiServer.Shutdown(context.Background())
		}()
	}

	return startBot(ctx, cfg, eventBus, stateService, admins,
		cartService, orderService, catalogService, dialogService, userService, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для выгрузок")
			return err
		}
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}

	seeded, err := db.SeedProducts(context.Background(), cfg.Products)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка засева каталога")
	} else if seeded > 0 {
		logger.Info().Int("count", seeded).Msg("Каталог пополнен из конфига")
	}
	return db, nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.OrdersSpreadSheetID == "" {
		logger.Info().Msg("Google Sheets не настроен, выгрузка заказов выключена")
		return nil
	}

	sheetsSvc, err := google.NewSheetsService(cfg.Google.GoogleCredentialsFile, cfg.Google.OrdersSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	ttl := time.Duration(cfg.Bot.StateTTL) * time.Second
	primaryRepo := repository.NewRedisStateRepository(redisClient, ttl)
	fallbackRepo := repository.NewMemoryStateRepository(ttl)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("Prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	eventBus *events.EventBus,
	stateService *service.StateService,
	admins *config.AdminProvider,
	cartService *service.CartService,
	orderService *service.OrderService,
	catalogService *service.CatalogService,
	dialogService *service.DialogService,
	userService *service.UserService,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	tgService := service.NewTelegramService(bot.NewBotWrapper(botAPI))

	subscribeOrderEvents(ctx, eventBus, tgService, orderService, userService, admins, logger)

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, admins,
		cartService, orderService, catalogService, dialogService,
		userService, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Str("username", tgService.GetSelf().UserName).Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

// subscribeOrderEvents рассылает администраторам уведомления о новых заказах.
func subscribeOrderEvents(
	ctx context.Context,
	bus *events.EventBus,
	tg *service.TelegramService,
	orders *service.OrderService,
	users *service.UserService,
	admins *config.AdminProvider,
	logger *zerolog.Logger,
) {
	bus.Subscribe(events.EventOrderCreated, func(ev *events.Event) error {
		var payload events.OrderEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		order, err := orders.GetOrder(ctx, payload.OrderID)
		if err != nil {
			logger.Error().Err(err).Int64("order_id", payload.OrderID).Msg("event bus: load order")
			return nil
		}

		username := ""
		if user, err := users.GetUser(ctx, order.UserID); err == nil {
			username = user.Username
		}

		text := "🆕 Новый заказ!\n\n" + orders.RenderOrder(order, username)
		for _, adminID := range admins.List() {
			if _, err := tg.SendMessage(adminID, text); err != nil {
				logger.Error().Err(err).Int64("admin_id", adminID).Msg("event bus: notify admin")
			}
		}
		return nil
	})

	// журнал обращений: каждое сообщение клиента оператору попадает в лог
	bus.Subscribe(events.EventDialogMessage, func(ev *events.Event) error {
		var payload events.DialogEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		logger.Info().
			Int64("dialog_id", payload.DialogID).
			Int64("sender_id", payload.SenderID).
			Int64("admin_id", payload.AdminID).
			Msg("Новое обращение в поддержку")
		return nil
	})
}
