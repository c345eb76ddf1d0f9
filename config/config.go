package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Бэкенды хранилища
const (
	BackendSQL    = "sql"
	BackendORM    = "orm"
	BackendMemory = "memory"
)

type Config struct {
	Backend    string         `mapstructure:"backend"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"db"`
	Files      FilesConfig    `mapstructure:"files"`
	Log        LogConfig      `mapstructure:"log"`
	SeedGroups []string       `mapstructure:"seed_groups"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig подключение к PostgreSQL
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// FilesConfig пути файлов обмена
type FilesConfig struct {
	Text            string `mapstructure:"text"`
	XML             string `mapstructure:"xml"`
	XMLGroupPattern string `mapstructure:"xml_group_pattern"`
	JSON            string `mapstructure:"json"`
	XLSX            string `mapstructure:"xlsx"`
	// CreateMissingGroups создавать неизвестные группы при импорте текстового файла
	CreateMissingGroups bool `mapstructure:"create_missing_groups"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load читает конфигурацию.
// Приоритет: переменные окружения STUDENTS_* > файл > значения по умолчанию
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("backend", BackendSQL)
	v.SetDefault("server.port", 8080)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "max")
	v.SetDefault("db.password", "123456")
	v.SetDefault("db.name", "students_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("files.text", "alumnos.txt")
	v.SetDefault("files.xml", "grupos.xml")
	v.SetDefault("files.xml_group_pattern", "grupo_%s.xml")
	v.SetDefault("files.json", "grupos.json")
	v.SetDefault("files.xlsx", "alumnos.xlsx")
	v.SetDefault("files.create_missing_groups", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("seed_groups", []string{})

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STUDENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// без файла остаются значения по умолчанию и окружение
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQL, BackendORM, BackendMemory:
	default:
		return fmt.Errorf("invalid config: backend must be %s, %s or %s, got %q",
			BackendSQL, BackendORM, BackendMemory, c.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if strings.Count(c.Files.XMLGroupPattern, "%s") != 1 {
		return fmt.Errorf("invalid config: files.xml_group_pattern must contain exactly one %%s")
	}
	return nil
}
