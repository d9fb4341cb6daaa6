package classification

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inkasso/pkg/models"
)

var evaluatedAt = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestClassifyExamples(t *testing.T) {
	cases := []struct {
		name   string
		age    models.Days
		latest time.Time
		want   Verdict
	}{
		{"very old invoice, payment today", models.KnownDays(600), evaluatedAt, Ready},
		{"150 days, paid two months ago", models.KnownDays(150), evaluatedAt.AddDate(0, -2, 0), Wait},
		{"150 days, paid four months ago", models.KnownDays(150), evaluatedAt.AddDate(0, -4, 0), Ready},
		{"negative age", models.KnownDays(-5), evaluatedAt.AddDate(-3, 0, 0), Wait},
		{"zero age", models.KnownDays(0), evaluatedAt.AddDate(-3, 0, 0), Wait},
		{"unknown age", models.UnknownDays, evaluatedAt.AddDate(-3, 0, 0), Unknown},
		{"NaN age", models.KnownDays(math.NaN()), evaluatedAt, Unknown},
		{"400 days, paid three months ago", models.KnownDays(400), evaluatedAt.AddDate(0, -3, 0), Wait},
		{"250 days, paid five months ago", models.KnownDays(250), evaluatedAt.AddDate(0, -5, 0), Ready},
		{"75 days, paid 20 days ago", models.KnownDays(75), evaluatedAt.AddDate(0, 0, -20), Wait},
		{"75 days, paid 31 days ago", models.KnownDays(75), evaluatedAt.AddDate(0, 0, -31), Ready},
		{"10 days, paid 3 days ago", models.KnownDays(10), evaluatedAt.AddDate(0, 0, -3), Wait},
		{"10 days, paid 8 days ago", models.KnownDays(10), evaluatedAt.AddDate(0, 0, -8), Ready},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.age, tc.latest, evaluatedAt))
		})
	}
}

func TestExtremeBandsIgnorePaymentDate(t *testing.T) {
	latests := []time.Time{
		evaluatedAt,
		evaluatedAt.AddDate(0, 0, 1),
		evaluatedAt.AddDate(-10, 0, 0),
		{},
	}
	for _, latest := range latests {
		for _, age := range []float64{500.01, 501, 10000} {
			assert.Equal(t, Ready, Classify(models.KnownDays(age), latest, evaluatedAt), "age %v", age)
		}
		for _, age := range []float64{0, -0.5, -5, -10000} {
			assert.Equal(t, Wait, Classify(models.KnownDays(age), latest, evaluatedAt), "age %v", age)
		}
		assert.Equal(t, Unknown, Classify(models.UnknownDays, latest, evaluatedAt))
	}
}

func TestBandBoundariesAreClosedAbove(t *testing.T) {
	rules := DefaultRules()
	for _, boundary := range []float64{0, 50, 100, 200, 300, 500} {
		lower, ok := rules.Match(boundary)
		require.True(t, ok)
		assert.Equal(t, boundary, lower.UpTo, "age %v belongs to the band ending there", boundary)

		upper, ok := rules.Match(boundary + 0.5)
		require.True(t, ok)
		assert.Equal(t, boundary, upper.Above, "age just above %v belongs to the next band", boundary)
	}

	// A payment 10 days old satisfies the 7-day band only.
	latest := evaluatedAt.AddDate(0, 0, -10)
	assert.Equal(t, Ready, Classify(models.KnownDays(50), latest, evaluatedAt))
	assert.Equal(t, Wait, Classify(models.KnownDays(51), latest, evaluatedAt))
	assert.Equal(t, Wait, Classify(models.KnownDays(100), latest, evaluatedAt))
	assert.Equal(t, Ready, Classify(models.KnownDays(501), latest, evaluatedAt))
}

func TestStalenessCutoffIsInclusive(t *testing.T) {
	req := StaleFor(0, 7)
	cutoff := req.Cutoff(evaluatedAt)
	assert.Equal(t, evaluatedAt.AddDate(0, 0, -7), cutoff)

	assert.True(t, req.Satisfied(cutoff, evaluatedAt))
	assert.False(t, req.Satisfied(cutoff.Add(time.Second), evaluatedAt))
}

func TestSubtractMonthsClampsToMonthEnd(t *testing.T) {
	at := time.Date(2026, time.March, 31, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.February, 28, 9, 30, 0, 0, time.UTC), subtractMonths(at, 1))
	assert.Equal(t, time.Date(2025, time.November, 30, 9, 30, 0, 0, time.UTC), subtractMonths(at, 4))
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		subtractMonths(time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), 3))
	assert.Equal(t, at, subtractMonths(at, 0))
}

func TestVerdictsDependOnEvaluationTime(t *testing.T) {
	age := models.KnownDays(20)
	latest := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)

	early := time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, Wait, Classify(age, latest, early))
	assert.Equal(t, Ready, Classify(age, latest, late))
}

func TestDefaultRulesValidate(t *testing.T) {
	require.NoError(t, DefaultRules().Validate())
	assert.Len(t, DefaultRules(), 7)
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	inf := math.Inf(1)
	cases := map[string]Rules{
		"empty": {},
		"no bottom": {
			{Name: "a", Above: 0, UpTo: inf, Requirement: Requirement{Kind: AlwaysReady}},
		},
		"no top": {
			{Name: "a", Above: math.Inf(-1), UpTo: 100, Requirement: Requirement{Kind: NeverReady}},
		},
		"gap": {
			{Name: "low", Above: math.Inf(-1), UpTo: 0, Requirement: Requirement{Kind: NeverReady}},
			{Name: "high", Above: 10, UpTo: inf, Requirement: Requirement{Kind: AlwaysReady}},
		},
		"overlap": {
			{Name: "low", Above: math.Inf(-1), UpTo: 20, Requirement: Requirement{Kind: NeverReady}},
			{Name: "mid", Above: 10, UpTo: 30, Requirement: StaleFor(1, 0)},
			{Name: "high", Above: 30, UpTo: inf, Requirement: Requirement{Kind: AlwaysReady}},
		},
		"negative offset": {
			{Name: "low", Above: math.Inf(-1), UpTo: 0, Requirement: Requirement{Kind: NeverReady}},
			{Name: "high", Above: 0, UpTo: inf, Requirement: StaleFor(0, -1)},
		},
		"unknown kind": {
			{Name: "all", Above: math.Inf(-1), UpTo: inf, Requirement: Requirement{Kind: RequirementKind(9)}},
		},
	}

	for name, rules := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, rules.Validate(), ErrInvalidRules)
		})
	}
}

func TestRequirementString(t *testing.T) {
	assert.Equal(t, "last payment >= 4 months ago", StaleFor(4, 0).String())
	assert.Equal(t, "last payment >= 30 days ago", StaleFor(0, 30).String())
	assert.Equal(t, "last payment >= 1 month 2 days ago", StaleFor(1, 2).String())
	assert.Equal(t, "always ready", Requirement{Kind: AlwaysReady}.String())
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "OK", Ready.String())
	assert.Equal(t, "Afvent", Wait.String())
	assert.Equal(t, "Ukendt", Unknown.String())
}
