package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// CSV headers, one per data file.
const (
	CustomerHeader    = "id,name,email,phone,address"
	AccountHeader     = "number,secret,customer_id,kind,balance,date_created,active"
	TransactionHeader = "id,account_number,type,amount,balance_after,timestamp,description"
	LockHeader        = "account_number,failed_attempts,locked_at"
)

const (
	dateFormat      = "2006-01-02"
	timestampFormat = time.RFC3339Nano
)

const (
	custFields  = 5
	colCustID   = 0
	colCustName = 1
	colEmail    = 2
	colPhone    = 3
	colAddress  = 4
)

const (
	acctFields = 7
	colNumber  = 0
	colSecret  = 1
	colCustRef = 2
	colKind    = 3
	colBalance = 4
	colCreated = 5
	colActive  = 6
)

const (
	txFields    = 7
	colTxID     = 0
	colTxAcct   = 1
	colTxType   = 2
	colAmount   = 3
	colBalAfter = 4
	colTime     = 5
	colDesc     = 6
)

const (
	lockFields  = 3
	colLockAcct = 0
	colAttempts = 1
	colLockedAt = 2
)

// ReadCustomers reads customers.csv.
func ReadCustomers(r io.Reader) ([]model.Customer, error) {
	return readRows(r, custFields, UnmarshalCustomer)
}

// WriteCustomers writes customers.csv including the header.
func WriteCustomers(w io.Writer, customers []model.Customer) error {
	return writeRows(w, CustomerHeader, customers, MarshalCustomer)
}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.AccountRecord, error) {
	return readRows(r, acctFields, UnmarshalAccount)
}

// WriteAccounts writes accounts.csv including the header.
func WriteAccounts(w io.Writer, accounts []model.AccountRecord) error {
	return writeRows(w, AccountHeader, accounts, MarshalAccount)
}

// ReadTransactions reads transactions.csv.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	return readRows(r, txFields, UnmarshalTransaction)
}

// WriteTransactions writes transactions.csv including the header.
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	return writeRows(w, TransactionHeader, txs, MarshalTransaction)
}

// ReadLocks reads lockouts.csv.
func ReadLocks(r io.Reader) ([]model.LockRecord, error) {
	return readRows(r, lockFields, UnmarshalLock)
}

// WriteLocks writes lockouts.csv including the header.
func WriteLocks(w io.Writer, locks []model.LockRecord) error {
	return writeRows(w, LockHeader, locks, MarshalLock)
}

func readRows[T any](r io.Reader, fields int, unmarshal func([]string) (T, error)) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	out := make([]T, 0, len(records)-1)
	for i, rec := range records[1:] {
		v, err := unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeRows[T any](w io.Writer, header string, rows []T, marshal func(T) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(marshal(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatAmount writes cents as "12.50". Finer values are written in full
// so nothing is rounded on disk.
func formatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}

// MarshalCustomer converts a Customer to a CSV row.
func MarshalCustomer(c model.Customer) []string {
	row := make([]string, custFields)
	row[colCustID] = c.ID
	row[colCustName] = c.Name
	row[colEmail] = c.Email
	row[colPhone] = c.Phone
	row[colAddress] = c.Address
	return row
}

// UnmarshalCustomer converts a CSV row to a Customer.
func UnmarshalCustomer(record []string) (model.Customer, error) {
	if len(record) != custFields {
		return model.Customer{}, fmt.Errorf("expected %d fields, got %d", custFields, len(record))
	}
	if record[colCustID] == "" {
		return model.Customer{}, fmt.Errorf("empty customer id")
	}
	return model.Customer{
		ID:      record[colCustID],
		Name:    record[colCustName],
		Email:   record[colEmail],
		Phone:   record[colPhone],
		Address: record[colAddress],
	}, nil
}

// MarshalAccount converts an AccountRecord to a CSV row.
func MarshalAccount(a model.AccountRecord) []string {
	row := make([]string, acctFields)
	row[colNumber] = a.Number
	row[colSecret] = a.Secret
	row[colCustRef] = a.CustomerID
	row[colKind] = string(a.Kind)
	row[colBalance] = formatAmount(a.Balance)
	row[colCreated] = a.DateCreated.Format(dateFormat)
	row[colActive] = strconv.FormatBool(a.Active)
	return row
}

// UnmarshalAccount converts a CSV row to an AccountRecord.
func UnmarshalAccount(record []string) (model.AccountRecord, error) {
	if len(record) != acctFields {
		return model.AccountRecord{}, fmt.Errorf("expected %d fields, got %d", acctFields, len(record))
	}

	kind, ok := model.ParseAccountKind(record[colKind])
	if !ok {
		return model.AccountRecord{}, fmt.Errorf("invalid account kind %q", record[colKind])
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.AccountRecord{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	created, err := time.Parse(dateFormat, record[colCreated])
	if err != nil {
		return model.AccountRecord{}, fmt.Errorf("parsing date_created %q: %w", record[colCreated], err)
	}

	active, err := strconv.ParseBool(record[colActive])
	if err != nil {
		return model.AccountRecord{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
	}

	return model.AccountRecord{
		Number:      record[colNumber],
		Secret:      record[colSecret],
		CustomerID:  record[colCustRef],
		Kind:        kind,
		Balance:     balance,
		DateCreated: created,
		Active:      active,
	}, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, txFields)
	row[colTxID] = tx.ID
	row[colTxAcct] = tx.AccountNumber
	row[colTxType] = string(tx.Type)
	row[colAmount] = formatAmount(tx.Amount)
	row[colBalAfter] = formatAmount(tx.BalanceAfter)
	row[colTime] = tx.Timestamp.Format(timestampFormat)
	row[colDesc] = tx.Description
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != txFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", txFields, len(record))
	}

	typ, ok := model.ParseTransactionType(record[colTxType])
	if !ok {
		return model.Transaction{}, fmt.Errorf("invalid transaction type %q", record[colTxType])
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	after, err := decimal.NewFromString(record[colBalAfter])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing balance_after %q: %w", record[colBalAfter], err)
	}

	ts, err := time.Parse(timestampFormat, record[colTime])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	return model.Transaction{
		ID:            record[colTxID],
		AccountNumber: record[colTxAcct],
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  after,
		Timestamp:     ts,
		Description:   record[colDesc],
	}, nil
}

// MarshalLock converts a LockRecord to a CSV row. An unlocked record has an
// empty locked_at.
func MarshalLock(l model.LockRecord) []string {
	row := make([]string, lockFields)
	row[colLockAcct] = l.AccountNumber
	row[colAttempts] = strconv.Itoa(l.FailedAttempts)
	if l.Locked() {
		row[colLockedAt] = l.LockedAt.Format(timestampFormat)
	}
	return row
}

// UnmarshalLock converts a CSV row to a LockRecord.
func UnmarshalLock(record []string) (model.LockRecord, error) {
	if len(record) != lockFields {
		return model.LockRecord{}, fmt.Errorf("expected %d fields, got %d", lockFields, len(record))
	}

	attempts, err := strconv.Atoi(record[colAttempts])
	if err != nil {
		return model.LockRecord{}, fmt.Errorf("parsing failed_attempts %q: %w", record[colAttempts], err)
	}

	var lockedAt time.Time
	if record[colLockedAt] != "" {
		lockedAt, err = time.Parse(timestampFormat, record[colLockedAt])
		if err != nil {
			return model.LockRecord{}, fmt.Errorf("parsing locked_at %q: %w", record[colLockedAt], err)
		}
	}

	return model.LockRecord{
		AccountNumber:  record[colLockAcct],
		FailedAttempts: attempts,
		LockedAt:       lockedAt,
	}, nil
}
