package sheets

import (
	"fmt"
	"strings"
	"time"

	"calldata-platform/internal/calls"
	"calldata-platform/internal/tenants"
)

type column int

const (
	colID column = iota
	colName
	colPhone
	colScheduledAt
	colWindow
	colStatus
	colAddress
	colNotes
	colIntent
	numColumns
)

var headerAliases = map[string]column{
	"id":              colID,
	"record_id":       colID,
	"booking_id":      colID,
	"name":            colName,
	"customer":        colName,
	"customer_name":   colName,
	"phone":           colPhone,
	"phone_number":    colPhone,
	"customer_phone":  colPhone,
	"date":            colScheduledAt,
	"scheduled_at":    colScheduledAt,
	"appointment":     colScheduledAt,
	"appointment_at":  colScheduledAt,
	"time_window":     colWindow,
	"window":          colWindow,
	"slot":            colWindow,
	"status":          colStatus,
	"address":         colAddress,
	"service_address": colAddress,
	"notes":           colNotes,
	"intent":          colIntent,
	"call_intent":     colIntent,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

// parseRows maps a header row plus data rows onto CallRecords.
// Blank rows are skipped; a missing id column falls back to a sheet-row id.
func parseRows(tenantID, sheetID string, values [][]interface{}, region string) []calls.CallRecord {
	if len(values) < 2 {
		return []calls.CallRecord{}
	}

	index := make([]int, numColumns)
	for i := range index {
		index[i] = -1
	}
	for i, h := range values[0] {
		key := strings.ToLower(strings.TrimSpace(cell(h)))
		key = strings.ReplaceAll(key, " ", "_")
		if c, ok := headerAliases[key]; ok && index[c] < 0 {
			index[c] = i
		}
	}

	out := make([]calls.CallRecord, 0, len(values)-1)
	for rowNum, row := range values[1:] {
		get := func(c column) string {
			i := index[c]
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(cell(row[i]))
		}
		if blank(row) {
			continue
		}

		id := get(colID)
		if id == "" {
			// +2: one for the header, one for 1-based sheet rows.
			id = fmt.Sprintf("%s:%d", sheetID, rowNum+2)
		}
		out = append(out, calls.CallRecord{
			RecordID:        id,
			TenantID:        tenantID,
			CustomerName:    get(colName),
			CustomerPhone:   tenants.NormalizeE164(get(colPhone), region),
			ScheduledAt:     parseTime(get(colScheduledAt)),
			TimeWindowLabel: get(colWindow),
			Status:          calls.ParseRecordStatus(get(colStatus)),
			Address:         get(colAddress),
			Notes:           get(colNotes),
			Intent:          get(colIntent),
		})
	}
	return out
}

func cell(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func blank(row []interface{}) bool {
	for _, v := range row {
		if strings.TrimSpace(cell(v)) != "" {
			return false
		}
	}
	return true
}

// parseTime returns the zero time for values it cannot read.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
