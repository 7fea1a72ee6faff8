// Package speakers persists the operator-maintained association between GLL
// files and speaker metadata. The batch coordinator only reads it; the CLI
// subcommands write it.
package speakers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gll2txt/internal/domain"
)

// Store is the sqlite-backed speaker directory.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string, zlog *zap.SugaredLogger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open speaker database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Speaker{}, &ConfigFile{}); err != nil {
		return nil, fmt.Errorf("migrate speaker database: %w", err)
	}

	zlog.Debugf("Using database path: %s", path)
	return &Store{db: db, log: zlog}, nil
}

// Get returns the record for one GLL file, or nil when absent.
func (s *Store) Get(gllFile string) (*domain.SpeakerRecord, error) {
	var speaker Speaker
	err := s.db.Preload("ConfigFiles").First(&speaker, "gll_file = ?", gllFile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load speaker data for %s: %w", gllFile, err)
	}
	return toRecord(&speaker), nil
}

// Save upserts one record, replacing its config file list.
func (s *Store) Save(rec domain.SpeakerRecord) error {
	row := Speaker{
		GLLFile:     rec.GLLFile,
		SpeakerName: rec.SpeakerName,
		Skip:        rec.Skip,
		Sensitivity: rec.Sensitivity,
		Impedance:   rec.Impedance,
		Weight:      rec.Weight,
		Height:      rec.Height,
		Width:       rec.Width,
		Depth:       rec.Depth,
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("save speaker data for %s: %w", rec.GLLFile, err)
		}
		if err := tx.Where("gll_file = ?", rec.GLLFile).Delete(&ConfigFile{}).Error; err != nil {
			return fmt.Errorf("clear config files for %s: %w", rec.GLLFile, err)
		}
		for _, path := range rec.ConfigFiles {
			cf := ConfigFile{GLLFile: rec.GLLFile, Path: path}
			if err := tx.Create(&cf).Error; err != nil {
				return fmt.Errorf("save config file for %s: %w", rec.GLLFile, err)
			}
		}
		return nil
	})
}

// List returns every record ordered by speaker name.
func (s *Store) List() ([]domain.SpeakerRecord, error) {
	var rows []Speaker
	if err := s.db.Preload("ConfigFiles").Order("speaker_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}

	records := make([]domain.SpeakerRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *toRecord(&rows[i]))
	}
	return records, nil
}

// SetSkip flips the skip flag for one GLL file.
func (s *Store) SetSkip(gllFile string, skip bool) error {
	result := s.db.Model(&Speaker{}).Where("gll_file = ?", gllFile).Update("skip", skip)
	if result.Error != nil {
		return fmt.Errorf("update skip for %s: %w", gllFile, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no speaker data for %s", gllFile)
	}
	return nil
}

// Delete removes one record and its config files.
func (s *Store) Delete(gllFile string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gll_file = ?", gllFile).Delete(&ConfigFile{}).Error; err != nil {
			return fmt.Errorf("delete config files for %s: %w", gllFile, err)
		}
		if err := tx.Delete(&Speaker{GLLFile: gllFile}).Error; err != nil {
			return fmt.Errorf("delete speaker data for %s: %w", gllFile, err)
		}
		return nil
	})
}

// Close releases the underlying sqlite handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toRecord maps a database row onto the shared record type.
func toRecord(row *Speaker) *domain.SpeakerRecord {
	configs := make([]string, 0, len(row.ConfigFiles))
	for _, cf := range row.ConfigFiles {
		configs = append(configs, cf.Path)
	}

	return &domain.SpeakerRecord{
		GLLFile:     row.GLLFile,
		SpeakerName: row.SpeakerName,
		ConfigFiles: configs,
		Skip:        row.Skip,
		Sensitivity: row.Sensitivity,
		Impedance:   row.Impedance,
		Weight:      row.Weight,
		Height:      row.Height,
		Width:       row.Width,
		Depth:       row.Depth,
	}
}
