package classification

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"inkasso/pkg/models"
)

var (
	// ErrInvalidRules is returned when a rule table leaves gaps, overlaps or carries an
	// unusable requirement.
	ErrInvalidRules = errors.New("invalid rule table")
)

// RequirementKind selects how a band decides between Ready and Wait.
type RequirementKind int

const (
	// Staleness makes the band Ready once the latest payment is old enough.
	Staleness RequirementKind = iota
	// AlwaysReady makes every invoice in the band Ready.
	AlwaysReady
	// NeverReady makes every invoice in the band Wait.
	NeverReady
)

// Requirement is the payment recency a band demands. Months are calendar months.
type Requirement struct {
	Kind   RequirementKind
	Months int
	Days   int
}

// StaleFor returns a Staleness requirement.
func StaleFor(months, days int) Requirement {
	return Requirement{Kind: Staleness, Months: months, Days: days}
}

// Cutoff is the latest payment date that still satisfies the requirement when evaluating
// at the given instant.
func (r Requirement) Cutoff(at time.Time) time.Time {
	return subtractMonths(at, r.Months).AddDate(0, 0, -r.Days)
}

// Satisfied reports whether a latest payment at latest meets the requirement at at.
func (r Requirement) Satisfied(latest, at time.Time) bool {
	switch r.Kind {
	case AlwaysReady:
		return true
	case NeverReady:
		return false
	default:
		return !latest.After(r.Cutoff(at))
	}
}

func (r Requirement) String() string {
	switch r.Kind {
	case AlwaysReady:
		return "always ready"
	case NeverReady:
		return "always wait"
	}
	var parts []string
	if r.Months > 0 {
		parts = append(parts, plural(r.Months, "month"))
	}
	if r.Days > 0 || r.Months == 0 {
		parts = append(parts, plural(r.Days, "day"))
	}
	return "last payment >= " + strings.Join(parts, " ") + " ago"
}

// Band covers ages in the half-open interval (Above, UpTo].
type Band struct {
	Name        string
	Above       float64
	UpTo        float64
	Requirement Requirement
}

// Contains reports whether age falls inside the band.
func (b Band) Contains(age float64) bool {
	return b.Above < age && age <= b.UpTo
}

func (b Band) String() string {
	switch {
	case math.IsInf(b.Above, -1):
		return fmt.Sprintf("age <= %g", b.UpTo)
	case math.IsInf(b.UpTo, 1):
		return fmt.Sprintf("age > %g", b.Above)
	default:
		return fmt.Sprintf("%g < age <= %g", b.Above, b.UpTo)
	}
}

// Rules is an ordered rule table. The first band containing the age decides.
type Rules []Band

// DefaultRules returns the collections rule table. The two four-month bands are kept
// apart so they can be tuned independently.
func DefaultRules() Rules {
	return Rules{
		{Name: "over 500", Above: 500, UpTo: math.Inf(1), Requirement: Requirement{Kind: AlwaysReady}},
		{Name: "301-500", Above: 300, UpTo: 500, Requirement: StaleFor(4, 0)},
		{Name: "201-300", Above: 200, UpTo: 300, Requirement: StaleFor(4, 0)},
		{Name: "101-200", Above: 100, UpTo: 200, Requirement: StaleFor(3, 0)},
		{Name: "51-100", Above: 50, UpTo: 100, Requirement: StaleFor(0, 30)},
		{Name: "1-50", Above: 0, UpTo: 50, Requirement: StaleFor(0, 7)},
		{Name: "not overdue", Above: math.Inf(-1), UpTo: 0, Requirement: Requirement{Kind: NeverReady}},
	}
}

// Match returns the band deciding the given age.
func (rs Rules) Match(age float64) (Band, bool) {
	if math.IsNaN(age) {
		return Band{}, false
	}
	for _, b := range rs {
		if b.Contains(age) {
			return b, true
		}
	}
	return Band{}, false
}

// Classify applies the table to one invoice age.
func (rs Rules) Classify(age models.Days, latestPayment, evaluatedAt time.Time) Verdict {
	if !age.Valid {
		return Unknown
	}
	band, ok := rs.Match(age.Value)
	if !ok {
		return Unknown
	}
	if band.Requirement.Satisfied(latestPayment, evaluatedAt) {
		return Ready
	}
	return Wait
}

// Validate checks that the bands cover every age exactly once and that each requirement
// is usable.
func (rs Rules) Validate() error {
	const op = "Validate"

	if len(rs) == 0 {
		return fmt.Errorf("%s: %w: no bands", op, ErrInvalidRules)
	}

	sorted := make(Rules, len(rs))
	copy(sorted, rs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Above < sorted[j].Above })

	if !math.IsInf(sorted[0].Above, -1) {
		return fmt.Errorf("%s: %w: no band covers ages <= %g", op, ErrInvalidRules, sorted[0].Above)
	}
	if last := sorted[len(sorted)-1]; !math.IsInf(last.UpTo, 1) {
		return fmt.Errorf("%s: %w: no band covers ages > %g", op, ErrInvalidRules, last.UpTo)
	}

	for i, b := range sorted {
		if !(b.Above < b.UpTo) {
			return fmt.Errorf("%s: %w: band %q is empty", op, ErrInvalidRules, b.Name)
		}
		if i > 0 && sorted[i-1].UpTo != b.Above {
			prev := sorted[i-1]
			if prev.UpTo > b.Above {
				return fmt.Errorf("%s: %w: bands %q and %q overlap", op, ErrInvalidRules, prev.Name, b.Name)
			}
			return fmt.Errorf("%s: %w: gap between %q and %q", op, ErrInvalidRules, prev.Name, b.Name)
		}
		switch b.Requirement.Kind {
		case AlwaysReady, NeverReady:
		case Staleness:
			if b.Requirement.Months < 0 || b.Requirement.Days < 0 {
				return fmt.Errorf("%s: %w: band %q has a negative offset", op, ErrInvalidRules, b.Name)
			}
		default:
			return fmt.Errorf("%s: %w: band %q has unknown requirement kind %d", op, ErrInvalidRules, b.Name, b.Requirement.Kind)
		}
	}

	return nil
}

// subtractMonths moves t back by n calendar months, clamping the day to the end of the
// target month.
func subtractMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	y, m, d := t.Date()
	target := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := target.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
