package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/juris/core"
)

// Unique key prefixes for each index type
const (
	decisionRecordPrefix  = "decrec"
	decisionProcessPrefix = "decpn"
	decisionDatePrefix    = "decdt"
)

// makeDecisionKey generates a key for a decision record by ID.
func makeDecisionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", decisionRecordPrefix, id))
}

// makeProcessNumberKey generates the unique-index key for a process number.
func makeProcessNumberKey(processNumber string) []byte {
	return []byte(decisionProcessPrefix + ":" + processNumber)
}

// makeDecisionDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeDecisionDateKey(date time.Time, id core.ID) []byte {
	prefix := []byte(decisionDatePrefix + ":")
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	// BigEndian so lexicographic order matches chronological order
	binary.BigEndian.PutUint64(buf[offset:], dateOrdinal(date))
	binary.BigEndian.PutUint64(buf[offset+8:], uint64(id))
	return buf
}

// makePartialDecisionDateKey generates a partial key for date range queries.
func makePartialDecisionDateKey(date time.Time) []byte {
	prefix := []byte(decisionDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], dateOrdinal(date))
	return buf
}

// dateOrdinal maps times to unsigned values that sort chronologically,
// including dates before 1970.
func dateOrdinal(t time.Time) uint64 {
	return uint64(t.UnixMicro()) ^ (1 << 63)
}
