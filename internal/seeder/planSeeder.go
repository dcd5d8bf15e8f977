package seeders

import (
	"log"

	"github.com/arkvest/arkvest/internal/repository"
)

// seedPlans installs the investment tiers. Upserts keyed on the plan name
// keep the seeder safe to run on every boot.
func (seeder *Seeder) seedPlans() {
	plans := []repository.Plan{
		{
			Name:          "Starter",
			MinAmount:     100,
			MaxAmount:     4999,
			PercentReturn: 15,
			DurationDays:  30,
		},
		{
			Name:          "Growth",
			MinAmount:     5000,
			MaxAmount:     49999,
			PercentReturn: 30,
			DurationDays:  60,
		},
		{
			Name:          "Premium",
			MinAmount:     50000,
			MaxAmount:     1000000,
			PercentReturn: 50,
			DurationDays:  90,
		},
	}

	for i := range plans {
		if err := seeder.DB.Plan().Upsert(&plans[i], nil); err != nil {
			log.Fatalf("Failed to seed plan '%s': %v", plans[i].Name, err)
		}
	}
}
