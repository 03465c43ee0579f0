package catalog

// Category groups catalog entries; the set is closed.
type Category string

const (
	CategoryIbadah  Category = "ibadah"
	CategoryTilawah Category = "tilawah"
	CategoryTaklim  Category = "taklim"
	CategoryAmal    Category = "amal"
)

// Activity ids
const (
	// daily prayers, on-time attendance
	ActivitySubuh   = "subuh"
	ActivityDzuhur  = "dzuhur"
	ActivityAshar   = "ashar"
	ActivityMaghrib = "maghrib"
	ActivityIsya    = "isya"

	ActivityDoaBersama          = "doa_bersama"
	ActivityTepatWaktuKIE       = "tepat_waktu_kie"
	ActivityTadarus             = "tadarus"
	ActivityBBQ                 = "bbq"
	ActivityKajianSelasa        = "kajian_selasa"
	ActivityKajianPersyarikatan = "kajian_persyarikatan"
	ActivityBacaBuku            = "baca_buku"
	ActivityPuasaSunnah         = "puasa_sunnah"
	ActivityQiyamulLail         = "qiyamul_lail"
	ActivitySedekah             = "sedekah"
)

// Automation triggers: which source adapter may auto-mark an activity.
const (
	TriggerPrayerAttendance  = "PRAYER_ATTENDANCE"
	TriggerTeamSession       = "TEAM_SESSION"
	TriggerManualRequest     = "MANUAL_REQUEST"
	TriggerScheduledActivity = "SCHEDULED_ACTIVITY"
	TriggerBookReading       = "BOOK_READING_REPORT"
)

// ActivityDefinition is an immutable catalog entry. The catalog is defined at
// deploy time; it only ever evolves through additive merges (see Merge) so
// that target values referenced by past report submissions are never lost.
type ActivityDefinition struct {
	ID                string   `json:"id"`
	Category          Category `json:"category"`
	Title             string   `json:"title"`
	MonthlyTarget     int      `json:"monthly_target"`
	AutomationTrigger string   `json:"automation_trigger,omitempty"`
}

// PrayerIDs lists the five daily prayers in order.
var PrayerIDs = []string{ActivitySubuh, ActivityDzuhur, ActivityAshar, ActivityMaghrib, ActivityIsya}

var defaultCatalog = []ActivityDefinition{
	{ID: ActivitySubuh, Category: CategoryIbadah, Title: "Shalat Subuh berjamaah", MonthlyTarget: 30, AutomationTrigger: TriggerPrayerAttendance},
	{ID: ActivityDzuhur, Category: CategoryIbadah, Title: "Shalat Dzuhur berjamaah", MonthlyTarget: 30, AutomationTrigger: TriggerPrayerAttendance},
	{ID: ActivityAshar, Category: CategoryIbadah, Title: "Shalat Ashar berjamaah", MonthlyTarget: 30, AutomationTrigger: TriggerPrayerAttendance},
	{ID: ActivityMaghrib, Category: CategoryIbadah, Title: "Shalat Maghrib berjamaah", MonthlyTarget: 30, AutomationTrigger: TriggerPrayerAttendance},
	{ID: ActivityIsya, Category: CategoryIbadah, Title: "Shalat Isya berjamaah", MonthlyTarget: 30, AutomationTrigger: TriggerPrayerAttendance},
	{ID: ActivityQiyamulLail, Category: CategoryIbadah, Title: "Qiyamul Lail", MonthlyTarget: 8},
	{ID: ActivityPuasaSunnah, Category: CategoryIbadah, Title: "Puasa Sunnah", MonthlyTarget: 4},
	{ID: ActivityTadarus, Category: CategoryTilawah, Title: "Tadarus Al-Quran", MonthlyTarget: 20, AutomationTrigger: TriggerManualRequest},
	{ID: ActivityBBQ, Category: CategoryTilawah, Title: "Bimbingan Baca Quran", MonthlyTarget: 4, AutomationTrigger: TriggerManualRequest},
	{ID: ActivityDoaBersama, Category: CategoryTaklim, Title: "Doa Bersama", MonthlyTarget: 20, AutomationTrigger: TriggerTeamSession},
	{ID: ActivityTepatWaktuKIE, Category: CategoryTaklim, Title: "Tepat waktu KIE", MonthlyTarget: 20, AutomationTrigger: TriggerTeamSession},
	{ID: ActivityKajianSelasa, Category: CategoryTaklim, Title: "Kajian Selasa", MonthlyTarget: 4, AutomationTrigger: TriggerScheduledActivity},
	{ID: ActivityKajianPersyarikatan, Category: CategoryTaklim, Title: "Kajian Persyarikatan", MonthlyTarget: 1, AutomationTrigger: TriggerScheduledActivity},
	{ID: ActivityBacaBuku, Category: CategoryAmal, Title: "Membaca buku", MonthlyTarget: 1, AutomationTrigger: TriggerBookReading},
	{ID: ActivitySedekah, Category: CategoryAmal, Title: "Sedekah", MonthlyTarget: 4},
}

// Default returns the deploy-time catalog in stable order.
func Default() []ActivityDefinition {
	defs := make([]ActivityDefinition, len(defaultCatalog))
	copy(defs, defaultCatalog)
	return defs
}

// ByID looks an activity up in `defs`.
func ByID(defs []ActivityDefinition, id string) (ActivityDefinition, bool) {
	for _, def := range defs {
		if def.ID == id {
			return def, true
		}
	}
	return ActivityDefinition{}, false
}

// Merge adds any `incoming` entry whose id is absent from `existing` and drops
// entries whose id is listed in `deprecated`. Existing entries are never
// overwritten or duplicated; catalog evolution is additive-only.
func Merge(existing, incoming []ActivityDefinition, deprecated ...string) []ActivityDefinition {
	dropped := make(map[string]bool, len(deprecated))
	for _, id := range deprecated {
		dropped[id] = true
	}

	merged := make([]ActivityDefinition, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing))
	for _, def := range existing {
		if dropped[def.ID] || seen[def.ID] {
			continue
		}
		seen[def.ID] = true
		merged = append(merged, def)
	}
	for _, def := range incoming {
		if dropped[def.ID] || seen[def.ID] {
			continue
		}
		seen[def.ID] = true
		merged = append(merged, def)
	}
	return merged
}
