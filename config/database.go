package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSQLitePath is used when neither DATABASE_URL nor DB_HOST is configured.
const DefaultSQLitePath = "posts.db"

// ResolveDialector picks the gorm dialector for the configured database.
// It returns the driver name alongside for logging and pool tuning.
func ResolveDialector(c AppConfig) (gorm.Dialector, string, error) {
	raw := strings.TrimSpace(c.DatabaseURL)
	driver := strings.ToLower(strings.TrimSpace(c.DBDriver))

	if raw == "" {
		if driver == "" && c.DBHost != "" {
			driver = "mysql"
		}
		switch driver {
		case "", "sqlite":
			return sqlite.Open(sqliteDSN(DefaultSQLitePath)), "sqlite", nil
		case "mysql":
			dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				c.DBUser,
				c.DBPassword,
				c.DBHost,
				c.DBPort,
				c.DBName,
			)
			return mysql.Open(dsn), "mysql", nil
		case "postgres":
			dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
				c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
			return postgres.Open(dsn), "postgres", nil
		default:
			return nil, "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
		}
	}

	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		return sqlite.Open(sqliteDSN(strings.TrimPrefix(raw, "sqlite://"))), "sqlite", nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return postgres.Open(raw), "postgres", nil
	case strings.HasPrefix(raw, "mysql://"):
		dsn, err := mysqlDSNFromURL(raw)
		if err != nil {
			return nil, "", err
		}
		return mysql.Open(dsn), "mysql", nil
	}

	// Bare value: trust DB_DRIVER, otherwise treat it as a SQLite file path.
	switch driver {
	case "mysql":
		return mysql.Open(raw), "mysql", nil
	case "postgres":
		return postgres.Open(raw), "postgres", nil
	case "", "sqlite":
		return sqlite.Open(sqliteDSN(raw)), "sqlite", nil
	default:
		return nil, "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

// sqliteDSN turns the path part of a sqlite:// URL into a go-sqlite3 DSN with
// foreign keys enabled. "sqlite:///posts.db" is relative, "sqlite:////var/posts.db" absolute.
func sqliteDSN(path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		path = DefaultSQLitePath
	}
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if u.Host == "" {
		return "", errors.New("DATABASE_URL: mysql host is required")
	}
	pass, _ := u.User.Password()
	params := u.Query()
	if params.Get("charset") == "" {
		params.Set("charset", "utf8mb4")
	}
	if params.Get("parseTime") == "" {
		params.Set("parseTime", "True")
	}
	if params.Get("loc") == "" {
		params.Set("loc", "Local")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		u.User.Username(), pass, u.Host, strings.TrimPrefix(u.Path, "/"), params.Encode()), nil
}

// OpenDatabase connects using configuration values and tunes the pool. It does not migrate.
func OpenDatabase(c AppConfig) (*gorm.DB, error) {
	dialector, driver, err := ResolveDialector(c)
	if err != nil {
		return nil, err
	}
	return openDialector(dialector, driver, c.LogLevel)
}

// openDialector opens db, closing the pool again if it never becomes usable.
func openDialector(dialector gorm.Dialector, driver, logLevel string) (*gorm.DB, error) {
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gLogger,
		TranslateError: true,
	})
	if err != nil {
		if db != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if driver == "sqlite" {
		// A single writer avoids "database is locked" under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// InitDatabase opens the database and creates any missing tables and indexes.
// It runs once at startup before the listener opens.
func InitDatabase(c AppConfig, modelDefs ...interface{}) (*gorm.DB, error) {
	db, err := OpenDatabase(c)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, modelDefs...); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates missing tables, columns and indexes. Safe to run repeatedly.
func Migrate(db *gorm.DB, modelDefs ...interface{}) error {
	if len(modelDefs) == 0 {
		return nil
	}
	err := db.AutoMigrate(modelDefs...)
	if err != nil {
		// A concurrent starter may have created a table between our check and CREATE.
		// The second pass sees it and only adds what is still missing.
		err = db.AutoMigrate(modelDefs...)
	}
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

// ResetDatabase drops every table for the given models and recreates them.
func ResetDatabase(db *gorm.DB, modelDefs ...interface{}) error {
	// Drop in reverse so dependent tables go first.
	for i := len(modelDefs) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(modelDefs[i]); err != nil {
			return fmt.Errorf("drop %T: %w", modelDefs[i], err)
		}
	}
	return Migrate(db, modelDefs...)
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "info", "", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// CloseDatabase releases the underlying connection pool.
func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
