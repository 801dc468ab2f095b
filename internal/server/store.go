package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/models"
)

type versionedRecord struct {
	rec     models.Record
	version int64
}

// MemoryStore is the server-side entity store: every accepted write bumps a
// global version counter, and downloads replay everything past the caller's
// cursor. The offline-id table is what makes uploads idempotent — a repeated
// offline id maps to the server id minted on first sight.
type MemoryStore struct {
	mu              sync.Mutex
	version         int64
	entities        map[models.EntityType]map[string]versionedRecord
	offlineToServer map[string]string
	nextID          int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities:        make(map[models.EntityType]map[string]versionedRecord),
		offlineToServer: make(map[string]string),
	}
}

// Seed inserts a server-originated record, minting a server id when the
// record has none. Used to stock the store with dispatch-side data.
func (s *MemoryStore) Seed(entityType models.EntityType, rec models.Record) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ServerID == "" {
		rec.ServerID = s.mintID()
	}
	if rec.OfflineID != "" {
		s.offlineToServer[rec.OfflineID] = rec.ServerID
	}
	s.putLocked(entityType, rec)
	return rec.ServerID
}

// Apply processes one uploaded mutation and reports its outcome.
func (s *MemoryStore) Apply(item api.UploadItem) api.UploadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !item.EntityType.Valid() {
		return api.UploadResult{
			OfflineID: item.OfflineID,
			Error:     fmt.Sprintf("unknown entity type %q", item.EntityType),
		}
	}
	if item.OfflineID == "" {
		return api.UploadResult{Error: "missing offline id"}
	}

	serverID, seen := s.offlineToServer[item.OfflineID]

	switch item.OperationType {
	case models.OpCreate:
		if seen {
			// duplicate delivery of a confirmed create: no-op success
			return api.UploadResult{OfflineID: item.OfflineID, Success: true, ServerID: serverID}
		}
		serverID = s.mintID()
	case models.OpUpdate:
		if !seen {
			// an update may reference an entity the client learned about via
			// download; the payload carries the server id in that case
			serverID = payloadServerID(item.Payload)
			if serverID == "" {
				serverID = item.OfflineID
			}
		}
	default:
		return api.UploadResult{
			OfflineID: item.OfflineID,
			Error:     fmt.Sprintf("unknown operation %q", item.OperationType),
		}
	}

	s.offlineToServer[item.OfflineID] = serverID
	s.putLocked(item.EntityType, models.Record{
		ServerID:  serverID,
		OfflineID: item.OfflineID,
		Payload:   item.Payload,
		UpdatedAt: time.Now().UTC(),
	})

	return api.UploadResult{OfflineID: item.OfflineID, Success: true, ServerID: serverID}
}

// Since returns the current version and every record changed after the given
// cursor, grouped by entity type.
func (s *MemoryStore) Since(version int64) (int64, map[models.EntityType][]models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make(map[models.EntityType][]models.Record)
	for entityType, byID := range s.entities {
		for _, vr := range byID {
			if vr.version > version {
				changed[entityType] = append(changed[entityType], vr.rec)
			}
		}
	}
	return s.version, changed
}

func (s *MemoryStore) putLocked(entityType models.EntityType, rec models.Record) {
	s.version++
	byID := s.entities[entityType]
	if byID == nil {
		byID = make(map[string]versionedRecord)
		s.entities[entityType] = byID
	}
	byID[rec.ServerID] = versionedRecord{rec: rec, version: s.version}
}

func (s *MemoryStore) mintID() string {
	s.nextID++
	return fmt.Sprintf("srv-%06d", s.nextID)
}

// payloadServerID extracts the server identity an update payload claims.
func payloadServerID(payload []byte) string {
	var probe struct {
		ServerID string `json:"serverId"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	return probe.ServerID
}
