package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		Env             string        `yaml:"env"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	JWT struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	Storage struct {
		Type      string `yaml:"type"`       // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path"`  // For local storage
		BaseURL   string `yaml:"base_url"`   // Public URL base
		Bucket    string `yaml:"bucket"`     // For S3/R2
		Region    string `yaml:"region"`     // For S3
		AccessKey string `yaml:"access_key"` // For S3/R2
		SecretKey string `yaml:"secret_key"` // For S3/R2
		Endpoint  string `yaml:"endpoint"`   // For R2 or custom S3
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`
		AllowedTypes []string `yaml:"allowed_extensions"`
	} `yaml:"upload"`

	LLM struct {
		APIKey            string `yaml:"api_key"`
		BaseURL           string `yaml:"base_url"`
		Model             string `yaml:"model"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"llm"`

	Analysis struct {
		StepTimeout time.Duration `yaml:"step_timeout"`
	} `yaml:"analysis"`

	Payments struct {
		Provider   string `yaml:"provider"` // stripe, robokassa, fake
		FakeSecret string `yaml:"fake_secret"`

		// SweepInterval - период фоновой сверки pending-сессий, 0 отключает
		SweepInterval time.Duration `yaml:"sweep_interval"`

		Stripe struct {
			APIKey        string `yaml:"api_key"`
			WebhookSecret string `yaml:"webhook_secret"`
		} `yaml:"stripe"`
		Robokassa struct {
			MerchantLogin string `yaml:"merchant_login"`
			Password1     string `yaml:"password1"`
			Password2     string `yaml:"password2"`
			BaseURL       string `yaml:"base_url"`
			StatusURL     string `yaml:"status_url"`
			TestMode      bool   `yaml:"test_mode"`
		} `yaml:"robokassa"`
	} `yaml:"payments"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		log.Println("Загрузка из config.yaml")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		cfg.applyDefaults()
		AppConfig = &cfg
		return
	}

	log.Println("✅ Загрузка конфигурации из ПЕРЕМЕННЫХ ОКРУЖЕНИЯ")

	cfg.Database.DSN = dbURL
	cfg.Database.Driver = getEnv("DATABASE_DRIVER", "postgres")
	cfg.Server.Env = getEnv("SERVER_ENV", "production")
	cfg.Server.Port, _ = strconv.Atoi(getEnv("SERVER_PORT", "8001"))
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = strings.Split(origins, ",")
	}
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")

	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort, _ = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	cfg.Email.SMTPUsername = os.Getenv("SMTP_USER")
	cfg.Email.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.Email.FromEmail = getEnv("SMTP_FROM", "reports@investoriq.app")

	cfg.Storage.Type = getEnv("STORAGE_TYPE", "local")
	cfg.Storage.BasePath = getEnv("STORAGE_PATH", "./uploads")
	cfg.Storage.Bucket = os.Getenv("STORAGE_BUCKET")
	cfg.Storage.Region = os.Getenv("STORAGE_REGION")
	cfg.Storage.AccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	cfg.Storage.SecretKey = os.Getenv("STORAGE_SECRET_KEY")
	cfg.Storage.Endpoint = os.Getenv("STORAGE_ENDPOINT")

	cfg.LLM.APIKey = os.Getenv("LLM_API_KEY")
	cfg.LLM.BaseURL = os.Getenv("LLM_BASE_URL")
	cfg.LLM.Model = os.Getenv("LLM_MODEL")

	cfg.Payments.Provider = getEnv("PAYMENT_PROVIDER", "stripe")
	cfg.Payments.Stripe.APIKey = os.Getenv("STRIPE_API_KEY")
	cfg.Payments.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.Payments.Robokassa.MerchantLogin = os.Getenv("ROBOKASSA_LOGIN")
	cfg.Payments.Robokassa.Password1 = os.Getenv("ROBOKASSA_PASSWORD1")
	cfg.Payments.Robokassa.Password2 = os.Getenv("ROBOKASSA_PASSWORD2")
	cfg.Payments.Robokassa.TestMode = os.Getenv("ROBOKASSA_TEST_MODE") == "true"
	cfg.Payments.FakeSecret = os.Getenv("PAYMENT_FAKE_SECRET")
	if v := os.Getenv("PAYMENT_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Payments.SweepInterval = d
		}
	}

	cfg.applyDefaults()
	AppConfig = &cfg
}

// applyDefaults заполняет то, что не задано ни в YAML, ни в окружении
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8001
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 30 * 24 * time.Hour
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = "./uploads"
	}
	if c.Upload.MaxSize == 0 {
		c.Upload.MaxSize = 20 * 1024 * 1024 // 20MB
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = []string{".pdf", ".txt", ".csv", ".doc", ".docx"}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.RequestsPerMinute == 0 {
		c.LLM.RequestsPerMinute = 60
	}
	if c.Analysis.StepTimeout == 0 {
		c.Analysis.StepTimeout = 90 * time.Second
	}
	// анализ идёт синхронно в запросе: ответ не должен обрываться раньше шагов
	if floor := c.MinWriteTimeout(); c.Server.WriteTimeout < floor {
		if c.Server.WriteTimeout != 0 {
			log.Printf("server.write_timeout %s is shorter than analysis needs, raised to %s", c.Server.WriteTimeout, floor)
		}
		c.Server.WriteTimeout = floor
	}
	if c.Payments.Provider == "" {
		c.Payments.Provider = "stripe"
	}
	if c.Payments.Robokassa.BaseURL == "" {
		c.Payments.Robokassa.BaseURL = "https://auth.robokassa.ru/Merchant/Index.aspx"
	}
	if c.Payments.Robokassa.StatusURL == "" {
		c.Payments.Robokassa.StatusURL = "https://auth.robokassa.ru/Merchant/WebService/Service.asmx/OpStateExt"
	}
}

// analysisSteps - load, parse, generate, render
const analysisSteps = 4

// MinWriteTimeout - худший случай синхронного анализа плюс запас на запись результата
func (c *Config) MinWriteTimeout() time.Duration {
	return analysisSteps*c.Analysis.StepTimeout + time.Minute
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
