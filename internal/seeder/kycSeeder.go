package seeders

import (
	"log"
)

// seedKycRequirements installs the document checklist every account must
// clear before it is marked verified.
func (seeder *Seeder) seedKycRequirements() {
	requirements := []string{
		"Government-issued ID",
		"Proof of Address",
	}

	for _, requirement := range requirements {
		if err := seeder.DB.Kyc().UpsertRequirement(requirement, nil); err != nil {
			log.Fatalf("Failed to seed KYC requirement '%s': %v", requirement, err)
		}
	}
}
