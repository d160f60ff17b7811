package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	webhookSecretENV  = "WEBHOOK_SECRET"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
		AdminPort  int    `yaml:"admin_port"`
	} `yaml:"service"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Вебхук
	WebhookSecret      string `yaml:"webhook_secret"` // HMAC; пустой/default = подпись не проверяем
	MaxPayloadBytes    int    `yaml:"max_payload_bytes"`
	MaxStoredBytes     int    `yaml:"max_stored_bytes"`
	DedupWindowSeconds int    `yaml:"dedup_window_seconds"`

	// Эксперимент: процент трафика в вариант B
	SplitPercentage int `yaml:"split_percentage"`

	// Сессия / свежесть
	MaxSignalAgeMinutes int  `yaml:"max_signal_age_minutes"`
	AllowPremarket      bool `yaml:"allow_premarket"`
	AllowAfterHours     bool `yaml:"allow_afterhours"`
	CloseGraceMinutes   int  `yaml:"close_grace_minutes"`
	DecisionOnlyClosed  bool `yaml:"decision_only_when_closed"`

	// Ёмкость
	MaxOpenPositions   int     `yaml:"max_open_positions"`
	MaxPositionsPerSym int     `yaml:"max_positions_per_symbol"`
	ReplacementEnabled bool    `yaml:"replacement_enabled"`
	ReplacementMinPrio float64 `yaml:"replacement_min_priority"`
	NearTargetProgress float64 `yaml:"near_target_progress"` // доля пути до цели, напр. 0.8
	AgedPositionHours  float64 `yaml:"aged_position_hours"`  // возраст для aged_low_profit
	AgedLowProfitPct   float64 `yaml:"aged_low_profit_pct"`  // порог "низкой" прибыли

	// Конфлюэнс
	ConfluenceGate      bool    `yaml:"confluence_gate"`
	ConfluenceThreshold float64 `yaml:"confluence_threshold"`

	// Движок B
	ApprovalThreshold float64 `yaml:"approval_threshold"` // минимальный finalConfidence
	AgentsFile        string  `yaml:"agents_file"`

	// Внешние вызовы
	EnrichmentTimeout time.Duration `yaml:"-"`

	// Прогрев кэша котировок на старте
	WarmupSymbols []string `yaml:"warmup_symbols"`

	// Провайдеры
	MarketData struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		StreamURL string `yaml:"stream_url"`
	} `yaml:"market_data"`
	Derivatives struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"derivatives"`

	// Исполнение
	PaperTrading bool    `yaml:"paper_trading"`
	OrderQty     float64 `yaml:"order_qty"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		MaxPayloadBytes:    intFromEnv("MAX_PAYLOAD_BYTES", 128*1024),
		MaxStoredBytes:     intFromEnv("MAX_STORED_BYTES", 32*1024),
		DedupWindowSeconds: intFromEnv("DEDUP_WINDOW_SECONDS", 60),

		SplitPercentage: intFromEnv("SPLIT_PERCENTAGE", 50),

		MaxSignalAgeMinutes: intFromEnv("MAX_SIGNAL_AGE_MINUTES", 10),
		AllowPremarket:      boolFromEnv("ALLOW_PREMARKET", false),
		AllowAfterHours:     boolFromEnv("ALLOW_AFTERHOURS", false),
		CloseGraceMinutes:   intFromEnv("CLOSE_GRACE_MINUTES", 5),
		DecisionOnlyClosed:  boolFromEnv("DECISION_ONLY_WHEN_CLOSED", false),

		MaxOpenPositions:   intFromEnv("MAX_OPEN_POSITIONS", 10),
		MaxPositionsPerSym: intFromEnv("MAX_POSITIONS_PER_SYMBOL", 2),
		ReplacementEnabled: boolFromEnv("REPLACEMENT_ENABLED", false),
		ReplacementMinPrio: floatFromEnv("REPLACEMENT_MIN_PRIORITY", 5.0),
		NearTargetProgress: floatFromEnv("NEAR_TARGET_PROGRESS", 0.8),
		AgedPositionHours:  floatFromEnv("AGED_POSITION_HOURS", 24),
		AgedLowProfitPct:   floatFromEnv("AGED_LOW_PROFIT_PCT", 0.3),

		ConfluenceGate:      boolFromEnv("CONFLUENCE_GATE", false),
		ConfluenceThreshold: floatFromEnv("CONFLUENCE_THRESHOLD", 50),

		ApprovalThreshold: floatFromEnv("APPROVAL_THRESHOLD", 60),
		AgentsFile:        getenvDefault("AGENTS_FILE", "configs/agents.yaml"),

		EnrichmentTimeout: durationFromEnv("ENRICHMENT_TIMEOUT", "8s"),

		PaperTrading: boolFromEnv("PAPER_TRADING", true),
		OrderQty:     floatFromEnv("ORDER_QTY", 1),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	secret := os.Getenv(webhookSecretENV)
	if secret != "" {
		config.WebhookSecret = secret
	}

	return &config, nil
}

func getenvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("env %s is required", key))
	}
	return v
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
