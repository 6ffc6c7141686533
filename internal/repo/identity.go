// Package repo is the data-access layer over the local store: dual-identity
// upserts, sync watermarks and the failed-operation queue.
package repo

import (
	"errors"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"gorm.io/gorm"
)

// keyed ties a value type to its pointer implementing LocalKeyed.
type keyed[T any] interface {
	*T
	models.LocalKeyed
}

// Upsert reconciles one downloaded record: look the row up by server key,
// apply the merge onto what is found (or onto a fresh zero row when absent),
// write, and return the store-assigned local key. The unassigned server key
// never matches an existing row, so locally-born records always insert.
//
// The local key of a matched row survives untouched: gorm writes back
// through the primary key the lookup populated.
func Upsert[T any, PT keyed[T]](tx *gorm.DB, serverID int64, apply func(*T)) (int64, error) {
	var row T
	if serverID != models.ServerKeyUnassigned {
		err := tx.Where("server_id = ?", serverID).First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.ClassifyDatabase("identity lookup", err)
		}
	}

	apply(&row)

	if err := tx.Save(&row).Error; err != nil {
		return 0, apperr.ClassifyDatabase("identity upsert", err)
	}
	return PT(&row).LocalKey(), nil
}

// FindByServerKey loads one row by its server key.
func FindByServerKey[T any](tx *gorm.DB, serverID int64) (*T, error) {
	var row T
	err := tx.Where("server_id = ?", serverID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Newf(apperr.KindValidation, "record with server key %d not found", serverID)
	}
	if err != nil {
		return nil, apperr.ClassifyDatabase("lookup by server key", err)
	}
	return &row, nil
}
