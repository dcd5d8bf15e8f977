package seeders

import (
	"github.com/arkvest/arkvest/internal/repository"
)

type Seeder struct {
	DB repository.Database
}

func New(DB repository.Database) *Seeder {
	return &Seeder{
		DB: DB,
	}
}

func (seeder *Seeder) Run() {
	seeder.seedPlans()
	seeder.seedKycRequirements()
}
