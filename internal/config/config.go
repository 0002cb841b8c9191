package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	App struct {
		Name    string `yaml:"name"`     // имя для otpauth-ссылок и писем
		BaseURL string `yaml:"base_url"` // база для ссылок в письмах
	} `yaml:"app"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		AccessSecret  string `yaml:"access_secret"`
		RefreshSecret string `yaml:"refresh_secret"`
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Admin struct {
		Email    string `yaml:"email"`    // первый супер-админ, создается при старте
		Password string `yaml:"password"` // только если пользователя еще нет
		Name     string `yaml:"name"`
	} `yaml:"admin"`
}

var AppConfig *Config

// LoadConfig загружает конфигурацию. Если задан DATABASE_URL, конфиг
// собирается из переменных окружения (режим тестов/контейнера),
// иначе читается config/config.yaml.
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
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

		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.AccessSecret = os.Getenv("ACCESS_SECRET")
	cfg.JWT.RefreshSecret = os.Getenv("REFRESH_SECRET")
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	cfg.App.Name = os.Getenv("APP_NAME")
	if cfg.App.Name == "" {
		cfg.App.Name = "Iceberg"
	}
	cfg.App.BaseURL = os.Getenv("BASE_URL")
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:4000"
	}

	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort, _ = strconv.Atoi(os.Getenv("SMTP_PORT"))
	cfg.Email.SMTPUsername = os.Getenv("SMTP_USER")
	cfg.Email.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.Email.FromEmail = os.Getenv("FROM_EMAIL")

	cfg.Admin.Email = os.Getenv("SUPERADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("SUPERADMIN_PASSWORD")
	cfg.Admin.Name = os.Getenv("SUPERADMIN_NAME")

	AppConfig = &cfg
}

// GetConfig возвращает загруженную конфигурацию
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
