package domain

import (
	"fmt"
	"strings"
)

// Plan is a prepaid data plan sold as a single-use voucher code.
type Plan struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Data     string `json:"data"`
	Price    Kobo   `json:"price"`
	Validity string `json:"validity"`
	Devices  int    `json:"devices"`
}

// Key is the canonical pool key vouchers for this plan are stored under.
func (p Plan) Key() string {
	return NormalizePlanKey(p.Title)
}

var planCatalog = []Plan{
	{ID: "novice", Title: "Novice", Data: "1GB", Price: 400 * KoboPerNaira, Validity: "1 Day", Devices: 1},
	{ID: "amateur", Title: "Amateur", Data: "3GB", Price: 1250 * KoboPerNaira, Validity: "3 Days", Devices: 1},
	{ID: "day-king", Title: "Day King", Data: "unlimited", Price: 2150 * KoboPerNaira, Validity: "1 Day", Devices: 1},
	{ID: "active", Title: "ACTIVE", Data: "5GB", Price: 2100 * KoboPerNaira, Validity: "7 Days", Devices: 1},
	{ID: "beginner", Title: "Beginner", Data: "20GB", Price: 3750 * KoboPerNaira, Validity: "14 Days", Devices: 2},
	{ID: "intermediate", Title: "Intermediate", Data: "40GB", Price: 6500 * KoboPerNaira, Validity: "30 Days", Devices: 2},
	{ID: "proficient", Title: "Proficient", Data: "90GB", Price: 12500 * KoboPerNaira, Validity: "30 Days", Devices: 2},
	{ID: "skilled", Title: "Skilled", Data: "150GB", Price: 18800 * KoboPerNaira, Validity: "30 Days", Devices: 2},
	{ID: "advanced", Title: "Advanced", Data: "250GB", Price: 25000 * KoboPerNaira, Validity: "30 Days", Devices: 3},
	{ID: "expert", Title: "Expert", Data: "Unlimited", Price: 31500 * KoboPerNaira, Validity: "30 Days", Devices: 3},
}

// Plans returns a copy of the plan catalog.
func Plans() []Plan {
	out := make([]Plan, len(planCatalog))
	copy(out, planCatalog)
	return out
}

// NormalizePlanKey maps a plan title to its pool key. Matching is case- and
// whitespace-insensitive: "Day King", " day  king" and "DAY_KING" all map to "day_king".
func NormalizePlanKey(name string) string {
	fields := strings.Fields(strings.ToLower(strings.ReplaceAll(name, "_", " ")))
	return strings.Join(fields, "_")
}

// LookupPlan resolves a plan by title, id or pool key.
func LookupPlan(name string) (Plan, error) {
	key := NormalizePlanKey(name)
	if key == "" {
		return Plan{}, fmt.Errorf("%w: empty plan name", ErrUnknownPlan)
	}
	for _, p := range planCatalog {
		if p.Key() == key || NormalizePlanKey(p.ID) == key {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, name)
}
