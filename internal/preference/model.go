package preference

import "time"

// Preference records that a buyer recently purchased from a category.
type Preference struct {
	BuyerID    int64
	CategoryID int64
	UpdatedAt  time.Time
}
