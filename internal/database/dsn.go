package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DSN assembly for the host-based drivers. An explicit Config.DSN always wins;
// otherwise the builders fill in the defaults a local MindDump deployment
// expects and emit extra options in key order so the result is stable.

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := mysqlDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func postgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres requires a username and database name")
	}

	pairs := []string{
		"host=" + valueOr(cfg.Host, "localhost"),
		fmt.Sprintf("port=%d", portOr(cfg.Port, 5432)),
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
	}
	if cfg.Password != "" {
		pairs = append(pairs, "password="+cfg.Password)
	}
	for _, opt := range mergedOptions(map[string]string{"sslmode": "disable"}, cfg.Options) {
		pairs = append(pairs, opt[0]+"="+opt[1])
	}

	return strings.Join(pairs, " "), nil
}

func mysqlDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql requires a username and database name")
	}

	cred := cfg.User
	if cfg.Password != "" {
		cred += ":" + cfg.Password
	}

	defaults := map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "True",
		"loc":       "Local",
	}
	query := make([]string, 0, len(defaults)+len(cfg.Options))
	for _, opt := range mergedOptions(defaults, cfg.Options) {
		query = append(query, opt[0]+"="+opt[1])
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s",
		cred,
		valueOr(cfg.Host, "127.0.0.1"),
		portOr(cfg.Port, 3306),
		cfg.Name,
		strings.Join(query, "&"),
	), nil
}

// mergedOptions overlays overrides on defaults and returns key/value pairs
// sorted by key.
func mergedOptions(defaults, overrides map[string]string) [][2]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([][2]string, len(keys))
	for i, key := range keys {
		pairs[i] = [2]string{key, merged[key]}
	}
	return pairs
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func portOr(port, fallback int) int {
	if port == 0 {
		return fallback
	}
	return port
}
