package transactions

import (
	"fmt"
	"time"
)

// GenerateCode builds the human-facing receipt code: the calendar date
// plus a low-resolution time suffix. Uniqueness is enforced by the unique
// index on the column, not by this generator.
func GenerateCode(now time.Time) string {
	return fmt.Sprintf("TRX-%s-%04d", now.Format("20060102"), now.UnixMilli()%10000)
}
