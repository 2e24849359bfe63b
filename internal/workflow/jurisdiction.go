package workflow

// Jurisdiction is the geographic assignment chain of a farmer or an
// administrator. An administrator's chain is filled down to the granularity
// of their tier; a farmer's chain is always complete.
type Jurisdiction struct {
	Region string `json:"region"`
	Zone   string `json:"zone"`
	Woreda string `json:"woreda"`
	Kebele string `json:"kebele"`
}

// InJurisdiction reports whether an administrator assigned at the given
// level may see and act on a request originating from target. Federal
// administrators see everything; every other tier matches the chain down
// to its own granularity.
func InJurisdiction(level Level, assignment, target Jurisdiction) bool {
	switch level {
	case LevelFederal:
		return true
	case LevelRegion:
		return assignment.Region == target.Region
	case LevelZone:
		return assignment.Region == target.Region &&
			assignment.Zone == target.Zone
	case LevelWoreda:
		return assignment.Region == target.Region &&
			assignment.Zone == target.Zone &&
			assignment.Woreda == target.Woreda
	case LevelKebele:
		return assignment.Region == target.Region &&
			assignment.Zone == target.Zone &&
			assignment.Woreda == target.Woreda &&
			assignment.Kebele == target.Kebele
	}
	return false
}
