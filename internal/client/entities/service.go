// Package entities is the write path for locally-edited field data. Every
// save lands the entity in the local store and its mutation in the upload
// queue inside one transaction, so the engine never holds an entity without
// the mutation that will carry it to the server, or vice versa.
package entities

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/client/queue"
	"github.com/dkrasnovs/fieldsync/internal/client/store"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/dbx"
	"github.com/dkrasnovs/fieldsync/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service validates and persists field edits.
type Service struct {
	db           *sql.DB
	validate     *validator.Validate
	retryCeiling int
	log          logging.Logger
	now          func() time.Time
}

func NewService(db *sql.DB, retryCeiling int, log logging.Logger) *Service {
	if retryCeiling <= 0 {
		retryCeiling = queue.DefaultRetryCeiling
	}
	return &Service{
		db:           db,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		retryCeiling: retryCeiling,
		log:          log,
		now:          time.Now,
	}
}

// SaveTimeEntry persists a new or edited time entry. An empty OfflineID is
// assigned in place, so the caller sees the identity the entry will keep.
func (s *Service) SaveTimeEntry(ctx context.Context, e *models.TimeEntry) (models.Record, error) {
	s.ensureOfflineID(&e.OfflineID)
	e.UpdatedAt = s.now().UTC()
	if err := s.check(e, e.OfflineID); err != nil {
		return models.Record{}, err
	}
	return s.Save(ctx, models.EntityTimeEntry, e.ServerID, e.OfflineID, e)
}

// SaveDailyReport persists a new or edited daily report.
func (s *Service) SaveDailyReport(ctx context.Context, r *models.DailyReport) (models.Record, error) {
	s.ensureOfflineID(&r.OfflineID)
	r.UpdatedAt = s.now().UTC()
	if err := s.check(r, r.OfflineID); err != nil {
		return models.Record{}, err
	}
	return s.Save(ctx, models.EntityDailyReport, r.ServerID, r.OfflineID, r)
}

// SaveEquipmentLog persists a new or edited equipment log.
func (s *Service) SaveEquipmentLog(ctx context.Context, l *models.EquipmentLog) (models.Record, error) {
	s.ensureOfflineID(&l.OfflineID)
	if err := s.check(l, l.OfflineID); err != nil {
		return models.Record{}, err
	}
	return s.Save(ctx, models.EntityEquipmentLog, l.ServerID, l.OfflineID, l)
}

// Save stores the payload under the entity's key and enqueues the matching
// mutation, atomically. Entities without a server id produce CREATEs; the
// queue collapses repeated saves of one offline id to the latest snapshot.
func (s *Service) Save(ctx context.Context, entityType models.EntityType, serverID, offlineID string, payload any) (models.Record, error) {
	if !entityType.Valid() {
		return models.Record{}, fmt.Errorf("unknown entity type %q", entityType)
	}

	rec, err := store.NewRecord(serverID, offlineID, payload)
	if err != nil {
		return models.Record{}, err
	}

	op := models.OpUpdate
	if serverID == "" {
		op = models.OpCreate
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewSQLiteStore(tx).Put(ctx, entityType, rec); err != nil {
			return err
		}
		return queue.NewSQLiteQueue(tx, s.retryCeiling).Enqueue(ctx, models.Mutation{
			OfflineID:       offlineID,
			EntityType:      entityType,
			Operation:       op,
			Payload:         rec.Payload,
			ClientCreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return models.Record{}, fmt.Errorf("save %s %s: %w", entityType, rec.Key(), err)
	}

	s.log.Debug(ctx, "entity saved", "type", entityType, "key", rec.Key(), "op", op)
	return rec, nil
}

func (s *Service) ensureOfflineID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (s *Service) check(v any, offlineID string) error {
	if err := s.validate.Struct(v); err != nil {
		return &common.ValidationError{OfflineID: offlineID, Reason: err.Error()}
	}
	return nil
}
