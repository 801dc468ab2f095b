// Package models defines the entity, mutation and sync-metadata types held
// in the device-local store.
package models

import (
	"encoding/json"
	"time"
)

// EntityType names a logical collection in the local store. The values
// double as the array keys of the remote sync payloads.
type EntityType string

const (
	EntityTicket          EntityType = "tickets"
	EntityUtilityResponse EntityType = "utilityResponses"
	EntityProject         EntityType = "projects"
	EntityCrewMember      EntityType = "crewMembers"
	EntityCostCode        EntityType = "costCodes"
	EntityEquipment       EntityType = "equipment"
	EntityTimeEntry       EntityType = "timeEntries"
	EntityDailyReport     EntityType = "dailyReports"
	EntityEquipmentLog    EntityType = "equipmentLogs"
)

// EntityTypes lists every known collection, in the order the download
// reconciler applies them.
var EntityTypes = []EntityType{
	EntityTicket,
	EntityUtilityResponse,
	EntityProject,
	EntityCrewMember,
	EntityCostCode,
	EntityEquipment,
	EntityTimeEntry,
	EntityDailyReport,
	EntityEquipmentLog,
}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Record is the storage envelope for one entity. Every entity carries a
// client-generated OfflineID that is stable across retries; ServerID stays
// empty until the first confirmed upload. A record is keyed by ServerID when
// present, else by OfflineID.
type Record struct {
	ServerID  string          `json:"serverId,omitempty"`
	OfflineID string          `json:"offlineId"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Key returns the storage key: server identity wins once known.
func (r Record) Key() string {
	if r.ServerID != "" {
		return r.ServerID
	}
	return r.OfflineID
}

// Project is a construction project the device user is assigned to.
type Project struct {
	ServerID  string `json:"serverId,omitempty"`
	OfflineID string `json:"offlineId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Number    string `json:"number,omitempty"`
	Active    bool   `json:"active"`
}

// CrewMember is a person assignable to time entries and daily reports.
type CrewMember struct {
	ServerID  string `json:"serverId,omitempty"`
	OfflineID string `json:"offlineId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Role      string `json:"role,omitempty"`
}

// CostCode classifies labor and equipment hours for payroll export.
type CostCode struct {
	ServerID  string `json:"serverId,omitempty"`
	OfflineID string `json:"offlineId" validate:"required"`
	Code      string `json:"code" validate:"required"`
	Name      string `json:"name,omitempty"`
}

// EquipmentUnit is a machine tracked on equipment logs.
type EquipmentUnit struct {
	ServerID  string `json:"serverId,omitempty"`
	OfflineID string `json:"offlineId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	UnitCode  string `json:"unitCode,omitempty"`
}

// TimeEntry records hours worked by a crew member against a cost code.
type TimeEntry struct {
	ServerID     string    `json:"serverId,omitempty"`
	OfflineID    string    `json:"offlineId" validate:"required"`
	ProjectID    string    `json:"projectId" validate:"required"`
	CrewMemberID string    `json:"crewMemberId" validate:"required"`
	CostCodeID   string    `json:"costCodeId,omitempty"`
	Date         string    `json:"date" validate:"required"`
	Hours        float64   `json:"hours" validate:"gte=0,lte=24"`
	Notes        string    `json:"notes,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// DailyReport is the foreman's end-of-day field report.
type DailyReport struct {
	ServerID  string    `json:"serverId,omitempty"`
	OfflineID string    `json:"offlineId" validate:"required"`
	ProjectID string    `json:"projectId" validate:"required"`
	Date      string    `json:"date" validate:"required"`
	Summary   string    `json:"summary,omitempty"`
	Weather   string    `json:"weather,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// EquipmentLog records usage hours for an equipment unit.
type EquipmentLog struct {
	ServerID    string  `json:"serverId,omitempty"`
	OfflineID   string  `json:"offlineId" validate:"required"`
	EquipmentID string  `json:"equipmentId" validate:"required"`
	ProjectID   string  `json:"projectId,omitempty"`
	Date        string  `json:"date" validate:"required"`
	Hours       float64 `json:"hours" validate:"gte=0"`
}
