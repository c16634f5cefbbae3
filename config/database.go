package config

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/models"
)

func (d DatabaseConfig) dialector() (gorm.Dialector, error) {
	switch d.Driver {
	case "mysql", "":
		dsn := d.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				d.Username,
				d.Password,
				d.Host,
				d.Port,
				d.Database,
			)
		}
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := d.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
				d.Host,
				d.Port,
				d.Username,
				d.Password,
				d.Database,
			)
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		dsn := d.DSN
		if dsn == "" {
			dsn = "storefront.db"
		}
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", d.Driver)
}

// SetupDatabase opens the configured dialect and migrates the schema. Queries log through log;
// nil discards them.
func SetupDatabase(cfg DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if cfg.LogSQL {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log, level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		// one writer at a time, otherwise concurrent requests hit SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.Setting{},
	)
}

func SetupRedisConnection(cfg RedisConfig) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, err
	}
	return redisClient, nil
}
