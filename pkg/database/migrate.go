package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations 执行排课库 schema 迁移
// 启动时自动对齐到最新版本，已是最新则跳过
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移脚本失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			version, _, _ := m.Version()
			logger.Info("排课库 schema 已是最新", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("执行 schema 迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("schema 迁移处于 dirty 状态，需人工介入", zap.Uint("version", version))
	} else {
		logger.Info("排课库 schema 迁移完成", zap.Uint("version", version))
	}

	return nil
}
