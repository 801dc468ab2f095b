// Package api defines the remote sync service contract and its HTTP
// implementation.
package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
)

// DownloadRequest asks for every change since LastSyncVersion (0 requests a
// full pull).
type DownloadRequest struct {
	UserID          string `json:"userId"`
	DeviceID        string `json:"deviceId"`
	LastSyncVersion int64  `json:"lastSyncVersion"`
}

// DownloadResponse carries the changed records per entity type plus the new
// sync cursor. Arrays are omitted when nothing changed.
type DownloadResponse struct {
	SyncVersion      int64           `json:"syncVersion"`
	Tickets          []models.Record `json:"tickets,omitempty"`
	UtilityResponses []models.Record `json:"utilityResponses,omitempty"`
	Projects         []models.Record `json:"projects,omitempty"`
	CrewMembers      []models.Record `json:"crewMembers,omitempty"`
	CostCodes        []models.Record `json:"costCodes,omitempty"`
	Equipment        []models.Record `json:"equipment,omitempty"`
	TimeEntries      []models.Record `json:"timeEntries,omitempty"`
	DailyReports     []models.Record `json:"dailyReports,omitempty"`
	EquipmentLogs    []models.Record `json:"equipmentLogs,omitempty"`
}

// ByType regroups the response arrays under their entity type keys, in the
// order the download reconciler applies them.
func (r *DownloadResponse) ByType() map[models.EntityType][]models.Record {
	return map[models.EntityType][]models.Record{
		models.EntityTicket:          r.Tickets,
		models.EntityUtilityResponse: r.UtilityResponses,
		models.EntityProject:         r.Projects,
		models.EntityCrewMember:      r.CrewMembers,
		models.EntityCostCode:        r.CostCodes,
		models.EntityEquipment:       r.Equipment,
		models.EntityTimeEntry:       r.TimeEntries,
		models.EntityDailyReport:     r.DailyReports,
		models.EntityEquipmentLog:    r.EquipmentLogs,
	}
}

// UploadItem is one queued mutation on the wire.
type UploadItem struct {
	OperationType models.Operation  `json:"operationType"`
	EntityType    models.EntityType `json:"entityType"`
	OfflineID     string            `json:"offlineId"`
	Payload       json.RawMessage   `json:"payload"`
	CreatedAt     time.Time         `json:"createdAt"`
	RetryCount    int               `json:"retryCount"`
}

// UploadRequest submits queued mutations in creation order.
type UploadRequest struct {
	UserID         string       `json:"userId"`
	DeviceID       string       `json:"deviceId"`
	OrganizationID string       `json:"organizationId"`
	Items          []UploadItem `json:"items"`
}

// UploadResult reports the outcome for one submitted item. Results are
// correlated by offline id; their order need not match the request.
type UploadResult struct {
	OfflineID string `json:"offlineId"`
	Success   bool   `json:"success"`
	ServerID  string `json:"serverId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UploadResponse carries one result per submitted item.
type UploadResponse struct {
	Results []UploadResult `json:"results"`
}

// Client is the remote sync service as seen by the engine. A repeated
// offline id on upload is a no-op success server-side, which is what makes
// retrying uploads safe.
type Client interface {
	// Ping probes reachability; a nil error means online.
	Ping(ctx context.Context) error

	Download(ctx context.Context, req DownloadRequest) (*DownloadResponse, error)
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)

	Close() error
}
