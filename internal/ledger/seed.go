package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

type sample struct {
	profile model.Profile
	kind    model.AccountKind
	deposit int64
	secret  string
}

var samples = []sample{
	{model.Profile{Name: "John Doe", Email: "john.doe@email.com", Phone: "9876543210", Address: "123 Main St, City"}, model.KindSavings, 5000, "password123"},
	{model.Profile{Name: "Jane Smith", Email: "jane.smith@email.com", Phone: "9876543211", Address: "456 Oak Ave, City"}, model.KindCurrent, 10000, "password456"},
	{model.Profile{Name: "Bob Johnson", Email: "bob.johnson@email.com", Phone: "9876543212", Address: "789 Pine St, City"}, model.KindSavings, 2500, "password789"},
}

// Seed opens the demo accounts and returns their numbers.
func (l *Ledger) Seed() ([]string, error) {
	numbers := make([]string, 0, len(samples))
	for _, s := range samples {
		n, err := l.CreateAccount(s.profile, s.kind, decimal.NewFromInt(s.deposit), s.secret)
		if err != nil {
			return nil, fmt.Errorf("seeding %s: %w", s.profile.Name, err)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}
