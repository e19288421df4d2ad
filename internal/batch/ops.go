package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// OpsHeader is the header of the native operations format.
const OpsHeader = "operation,account,target,amount,password,memo"

const (
	opsNumFields  = 6
	opsColKind    = 0
	opsColAccount = 1
	opsColTarget  = 2
	opsColAmount  = 3
	opsColPass    = 4
	opsColMemo    = 5
)

// OpsParser parses the native operations format.
type OpsParser struct{}

// Format returns the parser name.
func (p *OpsParser) Format() string { return "ops" }

// Parse reads an operations CSV.
func (p *OpsParser) Parse(r io.Reader) ([]Operation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = opsNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading operations CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var ops []Operation
	for i, rec := range records[1:] {
		op, err := parseOpsRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		op.Line = i + 2
		ops = append(ops, op)
	}
	return ops, nil
}

func parseOpsRow(rec []string) (Operation, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(rec[opsColKind])))
	switch kind {
	case KindDeposit, KindWithdraw, KindTransfer:
	default:
		return Operation{}, fmt.Errorf("unknown operation %q", rec[opsColKind])
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[opsColAmount]))
	if err != nil {
		return Operation{}, fmt.Errorf("parsing amount %q: %w", rec[opsColAmount], err)
	}

	op := Operation{
		Kind:     kind,
		Account:  strings.TrimSpace(rec[opsColAccount]),
		Target:   strings.TrimSpace(rec[opsColTarget]),
		Amount:   amount,
		Password: rec[opsColPass],
		Memo:     rec[opsColMemo],
	}
	if kind == KindTransfer && op.Target == "" {
		return Operation{}, fmt.Errorf("transfer needs a target account")
	}
	return op, nil
}
