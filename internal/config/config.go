package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port           int              `json:"port"`
	AdminJWTSecret string           `json:"admin_jwt_secret"`
	CORSOrigins    []string         `json:"cors_origins"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Database       DatabaseConfig   `json:"database"`
	AI             AIConfig         `json:"ai"`
	Gateways       GatewaysConfig   `json:"gateways"`
	Index          IndexConfig      `json:"index"`
	Search         SearchConfig     `json:"search"`
	Finance        FinanceConfig    `json:"finance"`
	Cache          CacheConfig      `json:"cache"`
	Jobs           JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// Enabled reports whether a postgres database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.DSN != "" || c.Host != ""
}

type AIProviderConfig struct {
	Name       string      `json:"name"`
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	EmbedModel string      `json:"embed_model"`
	Data       interface{} `json:"data"`
}

type AIConfig struct {
	Providers      []AIProviderConfig `json:"providers"`
	Timeout        int                `json:"timeout"`
	EmbedCacheSize int                `json:"embed_cache_size"`
	EmbedCacheTTL  int                `json:"embed_cache_ttl"`
}

type GatewayConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Timeout int    `json:"timeout"`
}

type GatewaysConfig struct {
	Congress   GatewayConfig `json:"congress"`
	FEC        GatewayConfig `json:"fec"`
	OpenStates GatewayConfig `json:"openstates"`
	LDA        GatewayConfig `json:"lda"`
	NewsData   GatewayConfig `json:"newsdata"`
}

type IndexConfig struct {
	BillCount       int     `json:"bill_count"`
	SummaryChars    int     `json:"summary_chars"`
	MinScore        float64 `json:"min_score"`
	Normalized      bool    `json:"normalized"`
	DetailBatchSize int     `json:"detail_batch_size"`
	DetailDelayMs   int     `json:"detail_delay_ms"`
}

type SearchConfig struct {
	DefaultMaxResults int `json:"default_max_results"`
	MaxResultsLimit   int `json:"max_results_limit"`
	RecentWindow      int `json:"recent_window"`
	RateLimitMs       int `json:"rate_limit_ms"`
}

type FinanceConfig struct {
	EmployerLimit   int `json:"employer_limit"`
	OccupationLimit int `json:"occupation_limit"`
}

type CacheConfig struct {
	DefaultTTL int            `json:"default_ttl"`
	TTLs       map[string]int `json:"ttls"`
}

type JobsConfig struct {
	ReindexSpec              string `json:"reindex_spec"`
	EmbedCacheCleanupSpec    string `json:"embed_cache_cleanup_spec"`
	EmbedCacheMaxAgeDays     int    `json:"embed_cache_max_age_days"`
	PolarizationBatchSize    int    `json:"polarization_batch_size"`
	PolarizationBatchDelayMs int    `json:"polarization_batch_delay_ms"`
}

var envOverrides = []struct {
	name  string
	apply func(cfg *Config, value string)
}{
	{"CONGRESS_API_KEY", func(cfg *Config, v string) { cfg.Gateways.Congress.APIKey = v }},
	{"FEC_API_KEY", func(cfg *Config, v string) { cfg.Gateways.FEC.APIKey = v }},
	{"OPENSTATES_API_KEY", func(cfg *Config, v string) { cfg.Gateways.OpenStates.APIKey = v }},
	{"LDA_API_KEY", func(cfg *Config, v string) { cfg.Gateways.LDA.APIKey = v }},
	{"NEWSDATA_API_KEY", func(cfg *Config, v string) { cfg.Gateways.NewsData.APIKey = v }},
	{"ADMIN_JWT_SECRET", func(cfg *Config, v string) { cfg.AdminJWTSecret = v }},
	{"DATABASE_DSN", func(cfg *Config, v string) { cfg.Database.DSN = v }},
	{"GEMINI_API_KEY", func(cfg *Config, v string) { setProviderKey(cfg, "gemini", v) }},
	{"OPENAI_API_KEY", func(cfg *Config, v string) { setProviderKey(cfg, "openai", v) }},
}

// Load reads the JSON config, then applies an optional .env file and environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg, os.LookupEnv)
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for _, item := range envOverrides {
		if v, ok := lookup(item.name); ok && strings.TrimSpace(v) != "" {
			item.apply(cfg, strings.TrimSpace(v))
		}
	}
}

func setProviderKey(cfg *Config, provider, key string) {
	for i := range cfg.AI.Providers {
		if !strings.EqualFold(cfg.AI.Providers[i].Provider, provider) {
			continue
		}
		data, _ := cfg.AI.Providers[i].Data.(map[string]interface{})
		if data == nil {
			data = map[string]interface{}{}
		}
		data["api_key"] = key
		cfg.AI.Providers[i].Data = data
	}
}

func (cfg *Config) normalize() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 2048
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 24 * 3600
	}
	for i := range cfg.AI.Providers {
		p := &cfg.AI.Providers[i]
		if p.Provider == "" {
			return fmt.Errorf("ai.providers[%d].provider is required", i)
		}
		if p.Name == "" {
			p.Name = p.Provider
		}
	}
	if cfg.Index.BillCount == 0 {
		cfg.Index.BillCount = 250
	}
	if cfg.Index.SummaryChars == 0 {
		cfg.Index.SummaryChars = 500
	}
	if cfg.Index.DetailBatchSize == 0 {
		cfg.Index.DetailBatchSize = 5
	}
	if cfg.Index.DetailDelayMs == 0 {
		cfg.Index.DetailDelayMs = 500
	}
	if cfg.Search.DefaultMaxResults == 0 {
		cfg.Search.DefaultMaxResults = 20
	}
	if cfg.Search.MaxResultsLimit == 0 {
		cfg.Search.MaxResultsLimit = 100
	}
	if cfg.Search.DefaultMaxResults > cfg.Search.MaxResultsLimit {
		return fmt.Errorf("search.default_max_results must not exceed search.max_results_limit")
	}
	if cfg.Search.RecentWindow == 0 {
		cfg.Search.RecentWindow = 250
	}
	if cfg.Finance.EmployerLimit == 0 {
		cfg.Finance.EmployerLimit = 10
	}
	if cfg.Finance.OccupationLimit == 0 || cfg.Finance.OccupationLimit > 4 {
		cfg.Finance.OccupationLimit = 4
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = 3600
	}
	if cfg.Jobs.ReindexSpec == "" {
		cfg.Jobs.ReindexSpec = "0 */6 * * *"
	}
	if cfg.Jobs.EmbedCacheCleanupSpec == "" {
		cfg.Jobs.EmbedCacheCleanupSpec = "30 3 * * *"
	}
	if cfg.Jobs.EmbedCacheMaxAgeDays == 0 {
		cfg.Jobs.EmbedCacheMaxAgeDays = 30
	}
	if cfg.Jobs.PolarizationBatchSize == 0 {
		cfg.Jobs.PolarizationBatchSize = 3
	}
	if cfg.Jobs.PolarizationBatchDelayMs == 0 {
		cfg.Jobs.PolarizationBatchDelayMs = 1000
	}
	return nil
}
