package classification_test

import (
	"fmt"
	"time"

	"inkasso/internal/classification"
	"inkasso/pkg/models"
)

// ExampleClassify shows verdicts for a run whose latest payment is from 3 February.
func ExampleClassify() {
	latestPayment := time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC)
	evaluatedAt := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

	for _, age := range []models.Days{
		models.KnownDays(600),
		models.KnownDays(120),
		models.KnownDays(10),
		models.KnownDays(0),
		models.UnknownDays,
	} {
		fmt.Println(classification.Classify(age, latestPayment, evaluatedAt))
	}
	// Output:
	// OK
	// Afvent
	// OK
	// Afvent
	// Ukendt
}

// ExampleRules_Match shows which band decides an age.
func ExampleRules_Match() {
	rules := classification.DefaultRules()

	band, _ := rules.Match(300)
	fmt.Printf("%s: %s\n", band.Name, band.Requirement)
	// Output:
	// 201-300: last payment >= 4 months ago
}
