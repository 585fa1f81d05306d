package mysql

import (
	"context"
	"fmt"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fraud_monitor/internal/repository"
)

var (
	_ repository.TransactionRepository = (*GormTransactionRepository)(nil)
	_ repository.AlertRepository       = (*GormAlertRepository)(nil)
	_ repository.Store                 = (*Store)(nil)
)

type Store struct {
	db *gorm.DB
}

// Open connects to MySQL and migrates the schema. The DSN must enable
// parseTime, e.g. "user:pass@tcp(host:3306)/fraud?parseTime=true&loc=UTC".
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	if err := db.AutoMigrate(&TransactionModel{}, &AlertModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return NewStore(db), nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return NewGormTransactionRepository(s.db)
}

func (s *Store) Alerts() repository.AlertRepository {
	return NewGormAlertRepository(s.db)
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
