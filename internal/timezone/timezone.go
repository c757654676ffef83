// Package timezone maps French department codes and postal codes to the
// IANA timezone of the venue.  Mainland departments and anything not listed
// in the overseas table use Europe/Paris.  The table is fixed at compile time
// and location data is embedded in the binary so conversions never depend on
// the host's zoneinfo files.
package timezone

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // embed the IANA database
)

// DefaultTimezone is used for mainland departments and for any code that is
// empty or not present in the overseas table.
const DefaultTimezone = "Europe/Paris"

// departmentTimezones lists every department whose zone differs from the
// mainland one.  Keys are the three-digit overseas department codes.
var departmentTimezones = map[string]string{
	"971": "America/Guadeloupe",
	"972": "America/Martinique",
	"973": "America/Cayenne",
	"974": "Indian/Reunion",
	"975": "America/Miquelon",
	"976": "Indian/Mayotte",
	"977": "America/St_Barthelemy",
	"978": "America/Marigot",
	"986": "Pacific/Wallis",
	"987": "Pacific/Tahiti",
	"988": "Pacific/Noumea",
}

var (
	locOnce   sync.Once
	locations map[string]*time.Location
)

// loadLocations resolves every zone of the table once.  Names that cannot be
// loaded are left out and resolve to the default zone.
func loadLocations() {
	locations = make(map[string]*time.Location, len(departmentTimezones)+1)
	names := []string{DefaultTimezone}
	for _, name := range departmentTimezones {
		names = append(names, name)
	}
	for _, name := range names {
		if loc, err := time.LoadLocation(name); err == nil {
			locations[name] = loc
		}
	}
	if _, ok := locations[DefaultTimezone]; !ok {
		// tzdata is embedded, this only happens with a broken build
		locations[DefaultTimezone] = time.UTC
	}
}

// ForDepartment returns the IANA timezone name for a department code.  Empty
// or unknown codes return DefaultTimezone; this is never an error.
func ForDepartment(code string) string {
	if name, ok := departmentTimezones[strings.TrimSpace(code)]; ok {
		return name
	}
	return DefaultTimezone
}

// ForPostalCode returns the timezone for a postal code.  Overseas postal codes
// start with 97 or 98 and carry the department code in their first three
// digits; every other code belongs to a mainland department.
func ForPostalCode(postalCode string) string {
	pc := strings.TrimSpace(postalCode)
	if len(pc) >= 3 && (strings.HasPrefix(pc, "97") || strings.HasPrefix(pc, "98")) {
		return ForDepartment(pc[:3])
	}
	return DefaultTimezone
}

// IsKnownDepartment reports whether code has an explicit entry in the
// overseas table.
func IsKnownDepartment(code string) bool {
	_, ok := departmentTimezones[strings.TrimSpace(code)]
	return ok
}

// Location returns the loaded location for an IANA name from the table.
// Names outside the table are loaded on demand; unknown names fall back to
// the default zone.
func Location(name string) *time.Location {
	locOnce.Do(loadLocations)
	if loc, ok := locations[name]; ok {
		return loc
	}
	if loc, err := time.LoadLocation(name); err == nil && name != "" {
		return loc
	}
	return locations[DefaultTimezone]
}

// DepartmentLocation is shorthand for Location(ForDepartment(code)).
func DepartmentLocation(code string) *time.Location {
	return Location(ForDepartment(code))
}

// UTCToLocal expresses an instant as wall-clock time in the department's zone.
func UTCToLocal(t time.Time, departmentCode string) time.Time {
	return t.In(DepartmentLocation(departmentCode))
}
