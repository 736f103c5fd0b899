package domain

const (
	secondsPerDay = 24 * 60 * 60
)

// Catalog identifies which rule set a stage belongs to.
type Catalog string

const (
	CatalogSales      Catalog = "sales"
	CatalogOnboarding Catalog = "onboarding"
)

// RuleEntry is one allowed follow-up slot for a stage.
type RuleEntry struct {
	OffsetSeconds int64
	Label         string
}

type ruleSet struct {
	catalog Catalog
	entries []RuleEntry
}

// salesEntries is the post-capture/post-checkout cadence: a 30-minute nudge
// followed by day-granularity touches.
var salesEntries = []RuleEntry{
	{OffsetSeconds: 1800, Label: "30 minutes"},
	{OffsetSeconds: 2 * secondsPerDay, Label: "2 days"},
	{OffsetSeconds: 4 * secondsPerDay, Label: "4 days"},
	{OffsetSeconds: 7 * secondsPerDay, Label: "7 days"},
	{OffsetSeconds: 15 * secondsPerDay, Label: "15 days"},
}

// onboardingEntries is the immediate welcome sequence for new subscribers.
var onboardingEntries = []RuleEntry{
	{OffsetSeconds: 0, Label: "immediately"},
	{OffsetSeconds: 60, Label: "1 minute"},
}

// ruleTable is built once and never mutated at runtime.
var ruleTable = map[Stage]ruleSet{
	StageLeadCaptured:     {catalog: CatalogSales, entries: salesEntries},
	StageCheckoutStarted:  {catalog: CatalogSales, entries: salesEntries},
	StageSubscribedActive: {catalog: CatalogOnboarding, entries: onboardingEntries},
}

// RulesFor returns the ordered rule entries for a stage, if any exist.
func RulesFor(stage Stage) ([]RuleEntry, bool) {
	set, ok := ruleTable[stage]
	if !ok {
		return nil, false
	}
	return set.entries, true
}

// CatalogFor returns the catalog identity a stage belongs to.
func CatalogFor(stage Stage) (Catalog, bool) {
	set, ok := ruleTable[stage]
	if !ok {
		return "", false
	}
	return set.catalog, true
}

// ValidCombination reports whether (stage, offset) appears in the rule table.
// Templates may only be created for valid combinations, and queue items bound
// to invalid combinations are not canonical.
func ValidCombination(stage Stage, offsetSeconds int64) bool {
	set, ok := ruleTable[stage]
	if !ok {
		return false
	}
	for _, entry := range set.entries {
		if entry.OffsetSeconds == offsetSeconds {
			return true
		}
	}
	return false
}

// LabelFor returns the human delay label for a (stage, offset) combination.
func LabelFor(stage Stage, offsetSeconds int64) (string, bool) {
	set, ok := ruleTable[stage]
	if !ok {
		return "", false
	}
	for _, entry := range set.entries {
		if entry.OffsetSeconds == offsetSeconds {
			return entry.Label, true
		}
	}
	return "", false
}
