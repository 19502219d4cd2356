package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleStatus is the lifecycle state of a schedule.
type ScheduleStatus string

const (
	ScheduleDraft  ScheduleStatus = "draft"
	ScheduleActive ScheduleStatus = "active"
	ScheduleClosed ScheduleStatus = "closed"
)

// Valid reports whether s is a known status.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleDraft, ScheduleActive, ScheduleClosed:
		return true
	}
	return false
}

// SortKeyTimeLayout renders start times inside the composite sort key. Fixed width, UTC, so
// keys with the same status prefix order by start time.
const SortKeyTimeLayout = "2006-01-02T15:04:05.000Z"

// SortKey returns the composite "{status}#{startTime}" key used for status range lookups.
func SortKey(status ScheduleStatus, start time.Time) string {
	return string(status) + "#" + start.UTC().Format(SortKeyTimeLayout)
}

// StatusPrefix returns the sort key prefix that selects every schedule in status.
func StatusPrefix(status ScheduleStatus) string {
	return string(status) + "#"
}

// ScheduleItem is a snapshot of a menu item embedded in a schedule. Name and Price are copied when
// the schedule is created and never follow later edits of the source item.
type ScheduleItem struct {
	MenuItemID        string          `json:"menuItemId"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	TotalQuantity     int             `json:"totalQuantity"`
	RemainingQuantity int             `json:"remainingQuantity"`
}

// Schedule is a bounded ordering window with a fixed snapshot of orderable items.
type Schedule struct {
	TenantID           string         `json:"tenantId"`
	ScheduleID         string         `json:"scheduleId"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	PickupInstructions string         `json:"pickupInstructions"`
	StartTime          time.Time      `json:"startTime"`
	EndTime            time.Time      `json:"endTime"`
	Status             ScheduleStatus `json:"status"`
	StatusStartTime    string         `json:"statusStartTime"`
	Items              []ScheduleItem `json:"items"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// OpenAt reports whether now falls inside [StartTime, EndTime], both ends inclusive.
func (s *Schedule) OpenAt(now time.Time) bool {
	return !now.Before(s.StartTime) && !now.After(s.EndTime)
}

// ScheduleItemInput references a menu item and the quantity offered.
type ScheduleItemInput struct {
	MenuItemID    string `json:"menuItemId"`
	TotalQuantity int    `json:"totalQuantity"`
}

// CreateScheduleInput is the body for POST /schedules.
type CreateScheduleInput struct {
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	PickupInstructions string              `json:"pickupInstructions"`
	StartTime          *time.Time          `json:"startTime"`
	EndTime            *time.Time          `json:"endTime"`
	Items              []ScheduleItemInput `json:"items"`
}

// SchedulePatch lists the schedule fields an update may set. Items are not patchable.
type SchedulePatch struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	PickupInstructions *string         `json:"pickupInstructions"`
	StartTime          *time.Time      `json:"startTime"`
	EndTime            *time.Time      `json:"endTime"`
	Status             *ScheduleStatus `json:"status"`

	// StatusStartTime is derived by the engine, never read from input.
	StatusStartTime *string `json:"-"`
}
