package ledger

import "github.com/cleared-dev/teller/internal/model"

// HistoryLimit is the number of transactions each account retains.
const HistoryLimit = 10

// TransactionLog keeps the most recent HistoryLimit transactions of one
// account, oldest first. Appending to a full log evicts the oldest entry.
// It is not safe for concurrent use; Account serializes access.
type TransactionLog struct {
	buf   [HistoryLimit]model.Transaction
	start int
	n     int
}

// Append adds tx as the newest entry.
func (l *TransactionLog) Append(tx model.Transaction) {
	if l.n < HistoryLimit {
		l.buf[(l.start+l.n)%HistoryLimit] = tx
		l.n++
		return
	}
	l.buf[l.start] = tx
	l.start = (l.start + 1) % HistoryLimit
}

// Len returns the number of retained entries.
func (l *TransactionLog) Len() int { return l.n }

// Entries returns a copy of the retained entries, oldest first.
func (l *TransactionLog) Entries() []model.Transaction {
	out := make([]model.Transaction, l.n)
	for i := range out {
		out[i] = l.buf[(l.start+i)%HistoryLimit]
	}
	return out
}

// Last returns the newest entry.
func (l *TransactionLog) Last() (model.Transaction, bool) {
	if l.n == 0 {
		return model.Transaction{}, false
	}
	return l.buf[(l.start+l.n-1)%HistoryLimit], true
}
