package attendance

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/gakuseki/gakuseki/core"
)

type (
	// DailyRecord holds the marks of one day: {"students": {student_id: status}}.
	DailyRecord struct {
		Students map[string]string `json:"students"`
	}

	// DailyBook is a year of daily attendance keyed by date.
	// A nil record stands for a malformed entry and is skipped by aggregations.
	DailyBook map[string]*DailyRecord

	// DailyEntry is one dated record of a DailyBook.
	DailyEntry struct {
		Date   string
		Record *DailyRecord
	}

	// PeriodRecord holds the marks of one period: {"subject": subject_id, "students": {...}}.
	PeriodRecord struct {
		Subject  string            `json:"subject"`
		Students map[string]string `json:"students"`
	}

	// PeriodBook is a year of per-period attendance keyed by date then period label.
	PeriodBook map[string]map[string]*PeriodRecord

	// PeriodEntry is one period record of a PeriodBook.
	PeriodEntry struct {
		Date   string
		Period string
		Record *PeriodRecord
	}
)

// UnmarshalJSON decodes entries one by one so a malformed day never fails the whole book.
func (b *DailyBook) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	book := make(DailyBook, len(raw))
	for date, msg := range raw {
		book[date] = decodeDailyRecord(msg)
	}
	*b = book
	return nil
}

func decodeDailyRecord(msg json.RawMessage) *DailyRecord {
	var rec struct {
		Students map[string]json.RawMessage `json:"students"`
	}
	if err := json.Unmarshal(msg, &rec); err != nil || rec.Students == nil {
		return nil
	}
	return &DailyRecord{Students: decodeStatuses(rec.Students)}
}

// UnmarshalJSON decodes periods one by one so a malformed period never fails the whole book.
func (b *PeriodBook) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	book := make(PeriodBook, len(raw))
	for date, msg := range raw {
		var periods map[string]json.RawMessage
		if err := json.Unmarshal(msg, &periods); err != nil {
			book[date] = nil
			continue
		}
		day := make(map[string]*PeriodRecord, len(periods))
		for period, pmsg := range periods {
			day[period] = decodePeriodRecord(pmsg)
		}
		book[date] = day
	}
	*b = book
	return nil
}

func decodePeriodRecord(msg json.RawMessage) *PeriodRecord {
	var rec struct {
		Subject  json.RawMessage            `json:"subject"`
		Students map[string]json.RawMessage `json:"students"`
	}
	if err := json.Unmarshal(msg, &rec); err != nil || rec.Students == nil {
		return nil
	}
	var subject string
	_ = json.Unmarshal(rec.Subject, &subject)
	return &PeriodRecord{Subject: subject, Students: decodeStatuses(rec.Students)}
}

// decodeStatuses drops statuses that are not strings.
func decodeStatuses(raw map[string]json.RawMessage) map[string]string {
	statuses := make(map[string]string, len(raw))
	for id, msg := range raw {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			statuses[id] = s
		}
	}
	return statuses
}

// Entries returns the records of the book sorted by date.
func (b DailyBook) Entries() []DailyEntry {
	entries := make([]DailyEntry, 0, len(b))
	for date, rec := range b {
		entries = append(entries, DailyEntry{Date: date, Record: rec})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries
}

// Entries returns the period records of the book sorted by date then period.
func (b PeriodBook) Entries() []PeriodEntry {
	entries := make([]PeriodEntry, 0, len(b))
	for date, periods := range b {
		for period, rec := range periods {
			entries = append(entries, PeriodEntry{Date: date, Period: period, Record: rec})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].Period < entries[j].Period
	})
	return entries
}

// parseEntryDate returns false for dates that cannot be bucketed.
func parseEntryDate(date string) (time.Time, bool) {
	t, err := core.ParseDate(date)
	return t, err == nil
}
