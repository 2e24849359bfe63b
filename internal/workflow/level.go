package workflow

import (
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
)

// Level is one of the five administrative tiers a request passes through,
// in ascending order of authority.
type Level int

const (
	LevelKebele Level = iota
	LevelWoreda
	LevelZone
	LevelRegion
	LevelFederal

	// LevelCount is the fixed number of tiers. Adding a tier requires a
	// schema change (per-level columns are denormalized on the request row).
	LevelCount = 5
)

var levelNames = [LevelCount]string{"kebele", "woreda", "zone", "region", "federal"}

func (l Level) String() string {
	if l < 0 || l >= LevelCount {
		return "unknown"
	}
	return levelNames[l]
}

// IsValid reports whether l is one of the five tiers.
func (l Level) IsValid() bool {
	return l >= 0 && l < LevelCount
}

// Prev returns the immediately preceding level. Kebele has none.
func (l Level) Prev() (Level, bool) {
	if l <= LevelKebele || l >= LevelCount {
		return 0, false
	}
	return l - 1, true
}

// Levels returns all tiers in ascending order.
func Levels() [LevelCount]Level {
	return [LevelCount]Level{LevelKebele, LevelWoreda, LevelZone, LevelRegion, LevelFederal}
}

// ParseLevel converts a wire name into a Level.
func ParseLevel(name string) (Level, error) {
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return 0, apperror.New(apperror.ErrCodeValidation, "unknown administrative level: "+name)
}

// Administrator role names. Farmers are not a level.
const (
	RoleFarmer       = "farmer"
	RoleKebeleAdmin  = "kebele_admin"
	RoleWoredaAdmin  = "woreda_admin"
	RoleZoneAdmin    = "zone_admin"
	RoleRegionAdmin  = "region_admin"
	RoleFederalAdmin = "federal_admin"
)

var roleLevels = map[string]Level{
	RoleKebeleAdmin:  LevelKebele,
	RoleWoredaAdmin:  LevelWoreda,
	RoleZoneAdmin:    LevelZone,
	RoleRegionAdmin:  LevelRegion,
	RoleFederalAdmin: LevelFederal,
}

// LevelForRole maps an administrator role onto its tier.
func LevelForRole(role string) (Level, bool) {
	l, ok := roleLevels[role]
	return l, ok
}

// IsAdminRole reports whether the role belongs to any administrative tier.
func IsAdminRole(role string) bool {
	_, ok := roleLevels[role]
	return ok
}

// ValidRoles lists every role accepted at registration.
func ValidRoles() []string {
	return []string{RoleFarmer, RoleKebeleAdmin, RoleWoredaAdmin, RoleZoneAdmin, RoleRegionAdmin, RoleFederalAdmin}
}
