package decision

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// WateringRecord is one persisted watering cycle. Column names are part
// of the on-disk contract, including the pH capitalisation.
type WateringRecord struct {
	ID              uint    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WaterQuantity   float64 `gorm:"column:water_quantity" json:"water_quantity"`
	Temp            float64 `gorm:"column:temp" json:"temp"`
	Humidity        float64 `gorm:"column:humidity" json:"humidity"`
	PH              float64 `gorm:"column:pH" json:"pH"`
	Nitrogen        float64 `gorm:"column:nitrogen" json:"nitrogen"`
	PlantID         string  `gorm:"column:plant_id" json:"plant_id"`
	InitialMoisture float64 `gorm:"column:initial_moisture" json:"initial_moisture"`
	SoilMoistureNow float64 `gorm:"column:soil_moisture_now" json:"soil_moisture_now"`
}

func (WateringRecord) TableName() string { return "water_quantity" }

// Store persists watering records and serves them back to the API.
type Store interface {
	SaveWatering(ctx context.Context, rec *WateringRecord) error
	LatestWatering(ctx context.Context, limit int) ([]WateringRecord, error)
}

// SQLiteStore backs Store with a single-writer sqlite file.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// sqlite tolerates one writer; serialise everything
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&WateringRecord{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveWatering(ctx context.Context, rec *WateringRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return &model.PersistenceWriteError{Err: err}
	}
	return nil
}

func (s *SQLiteStore) LatestWatering(ctx context.Context, limit int) ([]WateringRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []WateringRecord
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
