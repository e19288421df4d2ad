package model

// Customer is a row in customers.csv. It carries no invariants beyond field presence.
type Customer struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Address string
}

// Profile holds the customer fields supplied when opening an account.
type Profile struct {
	Name    string
	Email   string
	Phone   string
	Address string
}
