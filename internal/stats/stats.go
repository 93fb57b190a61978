// Package stats keeps a persistent history of compression results. This is
// aggregate bookkeeping that outlives tasks; task state itself never
// touches the database.
package stats

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Record is one successful variant: one profile run against one document.
type Record struct {
	ID             uint   `gorm:"primaryKey"`
	TaskID         string `gorm:"index"`
	Format         string
	Level          string
	OriginalSize   int64
	CompressedSize int64
	Ratio          float64
	CreatedAt      time.Time
}

type Summary struct {
	Documents    int64   `json:"documents"`
	Variants     int64   `json:"variants"`
	BytesSaved   int64   `json:"bytes_saved"`
	AverageRatio float64 `json:"average_ratio"`
}

type Recorder struct {
	db *gorm.DB
}

func Open(dbPath string) (*Recorder, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &Recorder{db: db}, nil
}

func (r *Recorder) Record(rec *Record) error {
	return r.db.Create(rec).Error
}

func (r *Recorder) Summary() (*Summary, error) {
	var s Summary
	err := r.db.Model(&Record{}).
		Select("count(distinct task_id) as documents, " +
			"count(*) as variants, " +
			"coalesce(sum(original_size - compressed_size), 0) as bytes_saved, " +
			"coalesce(avg(ratio), 0) as average_ratio").
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
