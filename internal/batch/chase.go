package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ChaseParser reads Chase checking CSV exports. Credits become deposits and
// debits become withdrawals against the account given to Run.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV.
func (p *ChaseParser) Parse(r io.Reader) ([]Operation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var ops []Operation
	for i, rec := range records[1:] {
		op, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		op.Line = i + 2
		ops = append(ops, op)
	}
	return ops, nil
}

func parseChaseRow(rec []string) (Operation, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return Operation{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return Operation{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	op := Operation{
		Kind:   KindDeposit,
		Amount: amount,
		Memo:   fmt.Sprintf("%s %s", date.Format("2006-01-02"), rec[chaseColDesc]),
	}
	if amount.IsNegative() {
		op.Kind = KindWithdraw
		op.Amount = amount.Neg()
	}
	return op, nil
}
