package derive

import "github.com/nycsafety/colldb/pkg/schema"

// InjuryTotals carries the reconciled person counts of one collision.
type InjuryTotals struct {
	PersonsInjured int
	PersonsKilled  int
	TotalInvolved  int

	// InjuredMismatch / KilledMismatch are true when the source supplied
	// a total that disagrees with the sum of its per-class subtotals.
	// The computed sums win; the mismatch is a data-quality warning.
	InjuredMismatch bool
	KilledMismatch  bool
}

// ReconcileInjuries computes persons_injured and persons_killed from the
// per-class subtotals and compares them against the source-supplied
// totals (pass -1 when the source had none). Component sums are trusted
// over supplied totals.
func ReconcileInjuries(
	pedInjured, cycInjured, motInjured int,
	pedKilled, cycKilled, motKilled int,
	suppliedInjured, suppliedKilled int,
) InjuryTotals {
	injured := pedInjured + cycInjured + motInjured
	killed := pedKilled + cycKilled + motKilled

	return InjuryTotals{
		PersonsInjured:  injured,
		PersonsKilled:   killed,
		TotalInvolved:   injured + killed,
		InjuredMismatch: suppliedInjured >= 0 && suppliedInjured != injured,
		KilledMismatch:  suppliedKilled >= 0 && suppliedKilled != killed,
	}
}

// SeverityLevel tiers a collision:
//
//	FATAL    any fatality
//	SEVERE   persons_injured >= severeAt (policy, default 3)
//	MODERATE persons_injured >= 1
//	MINOR    property damage only, more than one vehicle
//	NONE     otherwise
func SeverityLevel(personsInjured, personsKilled, numberOfVehicles, severeAt int) string {
	switch {
	case personsKilled > 0:
		return schema.SeverityFatal
	case personsInjured >= severeAt:
		return schema.SeveritySevere
	case personsInjured >= 1:
		return schema.SeverityModerate
	case numberOfVehicles > 1:
		return schema.SeverityMinor
	default:
		return schema.SeverityNone
	}
}
