package domain

// DefaultTradeLogCap is the ledger cap applied when none is configured.
const DefaultTradeLogCap = 100

// TradeLog is an append-only capped history of executed orders, ordered
// most-recent-first. Entries past the cap are evicted from the tail.
type TradeLog struct {
	cap    int
	trades []TradeRecord
}

// NewTradeLog creates an empty log with the given cap. A non-positive cap
// falls back to DefaultTradeLogCap.
func NewTradeLog(capacity int) *TradeLog {
	if capacity <= 0 {
		capacity = DefaultTradeLogCap
	}
	return &TradeLog{cap: capacity, trades: make([]TradeRecord, 0, capacity)}
}

// Record inserts a trade at the front and evicts the oldest entry when the
// log exceeds its cap.
func (l *TradeLog) Record(trade TradeRecord) {
	l.trades = append([]TradeRecord{trade}, l.trades...)
	if len(l.trades) > l.cap {
		l.trades = l.trades[:l.cap]
	}
}

// All returns a copy of the history, most-recent-first.
func (l *TradeLog) All() []TradeRecord {
	out := make([]TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len reports the number of recorded trades.
func (l *TradeLog) Len() int {
	return len(l.trades)
}

// Clear drops the entire history.
func (l *TradeLog) Clear() {
	l.trades = l.trades[:0]
}

// Restore replaces the history with already-sanitized records, preserving
// order and enforcing the cap.
func (l *TradeLog) Restore(trades []TradeRecord) {
	l.trades = l.trades[:0]
	for _, trade := range trades {
		if len(l.trades) >= l.cap {
			break
		}
		l.trades = append(l.trades, trade)
	}
}
