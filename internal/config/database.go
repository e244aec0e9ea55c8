package config

import (
	"fmt"
	"log"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide store handle, set once by ConnectDatabase
var DB *gorm.DB

// ConnectDatabase opens the authoritative MySQL store and sizes its pool
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	level := logger.Error
	if cfg.IsDev() {
		level = logger.Info
	}

	db, err := gorm.Open(mysql.Open(buildDSN(cfg.Database)), &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Database.DBName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping store %s:%s: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	DB = db
	log.Printf("✅ Store ready [%s:%s/%s] pool=%d/%d",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName,
		cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)
	return db, nil
}

// buildDSN lets the driver escape credentials; timestamps are stored in UTC
func buildDSN(d DatabaseConfig) string {
	dc := mysqldriver.NewConfig()
	dc.User = d.User
	dc.Passwd = d.Password
	dc.Net = "tcp"
	dc.Addr = d.Host + ":" + d.Port
	dc.DBName = d.DBName
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}

func CloseDatabase() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the store; it fails before ConnectDatabase has run
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("store not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
