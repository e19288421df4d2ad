package batch

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

// Ledger is the part of the ledger a batch mutates. Each row's memo becomes
// the transaction description.
type Ledger interface {
	DepositMemo(number string, amount decimal.Decimal, memo string) (model.Transaction, error)
	WithdrawMemo(number string, amount decimal.Decimal, memo string) (model.Transaction, error)
	TransferMemo(from, to string, amount decimal.Decimal, memo string) (ledger.Receipt, error)
}

// Guard authenticates the account owner before each operation.
type Guard interface {
	Login(number, secret string) error
	Authorize(number string) error
}

// Defaults fill in fields a row leaves empty.
type Defaults struct {
	Account  string
	Password string
}

// Result is the outcome of one operation. Err is nil on success.
type Result struct {
	Op           Operation
	Transactions []model.Transaction
	Err          error
}

// Summary totals a batch run.
type Summary struct {
	Applied int
	Failed  int
}

// Run applies ops in order. A failed row is recorded and the run continues;
// each row stands alone, so earlier successes are kept.
func Run(l Ledger, g Guard, ops []Operation, d Defaults) ([]Result, Summary) {
	results := make([]Result, 0, len(ops))
	var sum Summary
	for _, op := range ops {
		if op.Account == "" {
			op.Account = d.Account
		}
		if op.Password == "" {
			op.Password = d.Password
		}
		txs, err := apply(l, g, op)
		if err != nil {
			err = fmt.Errorf("line %d: %s %s: %w", op.Line, op.Kind, op.Account, err)
			sum.Failed++
		} else {
			sum.Applied++
		}
		results = append(results, Result{Op: op, Transactions: txs, Err: err})
	}
	return results, sum
}

func apply(l Ledger, g Guard, op Operation) ([]model.Transaction, error) {
	if op.Account == "" {
		return nil, fmt.Errorf("no account given")
	}
	if err := g.Login(op.Account, op.Password); err != nil {
		return nil, err
	}
	if err := g.Authorize(op.Account); err != nil {
		return nil, err
	}

	switch op.Kind {
	case KindDeposit:
		tx, err := l.DepositMemo(op.Account, op.Amount, op.Memo)
		if err != nil {
			return nil, err
		}
		return []model.Transaction{tx}, nil
	case KindWithdraw:
		tx, err := l.WithdrawMemo(op.Account, op.Amount, op.Memo)
		if err != nil {
			return nil, err
		}
		return []model.Transaction{tx}, nil
	case KindTransfer:
		r, err := l.TransferMemo(op.Account, op.Target, op.Amount, op.Memo)
		if err != nil {
			return nil, err
		}
		return []model.Transaction{r.Withdrawal, r.Deposit}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op.Kind)
	}
}
