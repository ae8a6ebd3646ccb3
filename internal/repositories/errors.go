package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicatePaymentEvent marks a webhook replay; the original event row
// already exists under the same provider reference
var ErrDuplicatePaymentEvent = errors.New("payment event already recorded")

// IsNotFoundError reports whether err means the record does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
