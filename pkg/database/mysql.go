package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/listening-room/pkg/models"
	"github.com/listening-room/pkg/storage"
)

// RoomSnapshot is one persisted room. The snapshot column holds the full
// room as JSON; version is duplicated for inspection only.
type RoomSnapshot struct {
	Code      string    `gorm:"primaryKey;size:8"`
	Version   int64     `gorm:"not null"`
	Snapshot  []byte    `gorm:"type:mediumblob;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RoomSnapshot) TableName() string {
	return "room_snapshots"
}

type MySQLDB struct {
	*gorm.DB
}

func NewMySQLDB(host, port, user, password, dbname string, debug bool) (*MySQLDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &MySQLDB{DB: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	logrus.Info("Running database migrations...")
	return db.AutoMigrate(&RoomSnapshot{})
}

// Close releases the underlying connection pool.
func (db *MySQLDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RoomStore adapts MySQLDB to storage.RoomStore.
type RoomStore struct {
	db *MySQLDB
}

func NewRoomStore(db *MySQLDB) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) Get(ctx context.Context, code string) (*models.Room, error) {
	var row RoomSnapshot
	if err := s.db.WithContext(ctx).First(&row, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room models.Room
	if err := json.Unmarshal(row.Snapshot, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	room.Normalize()
	return &room, nil
}

// Put upserts the snapshot row for room.Code.
func (s *RoomStore) Put(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	row := RoomSnapshot{
		Code:     room.Code,
		Version:  room.Version,
		Snapshot: data,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "snapshot", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (s *RoomStore) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RoomSnapshot{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}
	return count > 0, nil
}
