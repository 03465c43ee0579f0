package mutabaah

import (
	"strings"
	"time"

	"github.com/rspmedika/mutabaah/core/catalog"
)

// Source adapters translate one evidence stream each into ledger fragments.
// They are pure functions over their evidence so that replaying a historical
// sync only ever adds credits; merging their output is idempotent.

type (
	// PrayerRecord is a direct prayer check-in or an approved missed-prayer
	// request. Date is the day the prayer was owed, not when it was reported.
	PrayerRecord struct {
		PrayerID string
		Date     time.Time
	}

	// TeamSession is a unit-level group session a mentee attended.
	TeamSession struct {
		SessionType string
		Date        time.Time
		Attended    bool
	}

	// ScheduleAttendance is a check-in against a named scheduled activity.
	ScheduleAttendance struct {
		ActivityName string
		Date         time.Time
		Status       string // "hadir" means present
	}
)

const attendanceHadir = "hadir"

var prayerActivityIDs = func() map[string]bool {
	ids := make(map[string]bool, len(catalog.PrayerIDs))
	for _, id := range catalog.PrayerIDs {
		ids[id] = true
	}
	return ids
}()

// Session types with no entry here are informational-only and credit nothing.
var sessionActivityIDs = map[string]string{
	"Doa Bersama": catalog.ActivityDoaBersama,
	"KIE":         catalog.ActivityTepatWaktuKIE,
}

// Manual tadarus/BBQ categories; unmapped categories credit the generic
// tadarus activity.
var requestActivityIDs = map[string]string{
	"Tadarus": catalog.ActivityTadarus,
	"BBQ":     catalog.ActivityBBQ,
}

// Scheduled-activity names are free text; match on substrings, first hit wins.
var scheduleActivityIDs = []struct {
	substr     string
	activityID string
}{
	{"KAJIAN SELASA", catalog.ActivityKajianSelasa},
	{"PERSYARIKATAN", catalog.ActivityKajianPersyarikatan},
	{"KIE", catalog.ActivityTepatWaktuKIE},
	{"DOA BERSAMA", catalog.ActivityDoaBersama},
}

// PrayerFragment credits each known prayer id on the record's own day.
func PrayerFragment(records []PrayerRecord) Fragment {
	frag := make(Fragment)
	for _, rec := range records {
		if !prayerActivityIDs[rec.PrayerID] {
			continue
		}
		frag.add(rec.Date, rec.PrayerID)
	}
	return frag
}

// TeamSessionFragment credits attended sessions whose type has a mapping;
// unmapped session types are silently excluded.
func TeamSessionFragment(sessions []TeamSession) Fragment {
	frag := make(Fragment)
	for _, ses := range sessions {
		if !ses.Attended {
			continue
		}
		id, ok := sessionActivityIDs[ses.SessionType]
		if !ok {
			continue
		}
		frag.add(ses.Date, id)
	}
	return frag
}

// ManualRequestFragment credits approved tadarus/BBQ requests by category,
// defaulting to the generic tadarus activity, and approved missed-prayer
// requests by prayer id. Non-approved requests credit nothing.
func ManualRequestFragment(requests []ManualRequest) Fragment {
	frag := make(Fragment)
	for _, req := range requests {
		if req.Status != RequestApproved {
			continue
		}
		switch req.Kind {
		case KindMissedPrayer:
			if prayerActivityIDs[req.PrayerID] {
				frag.add(req.Date, req.PrayerID)
			}
		case KindTadarus:
			id, ok := requestActivityIDs[req.Category]
			if !ok {
				id = catalog.ActivityTadarus
			}
			frag.add(req.Date, id)
		}
	}
	return frag
}

// ScheduleFragment credits "hadir" attendance whose activity name contains a
// known substring (case-insensitive); unmatched names produce no fragment.
func ScheduleFragment(attendance []ScheduleAttendance) Fragment {
	frag := make(Fragment)
	for _, att := range attendance {
		if !strings.EqualFold(att.Status, attendanceHadir) {
			continue
		}
		name := strings.ToUpper(att.ActivityName)
		for _, m := range scheduleActivityIDs {
			if strings.Contains(name, m.substr) {
				frag.add(att.Date, m.activityID)
				break
			}
		}
	}
	return frag
}
