package subscription

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/flexisub/flexisub/internal/types"
)

// The nested parts of a subscription are stored as JSONB columns so a
// transition and its history entry are written by a single row update.

func (p *Pricing) Scan(value interface{}) error {
	return types.ScanJSONB(value, p)
}

func (p Pricing) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (c *Cancellation) Scan(value interface{}) error {
	return types.ScanJSONB(value, c)
}

func (c Cancellation) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ScheduledChange) Scan(value interface{}) error {
	return types.ScanJSONB(value, c)
}

func (c ScheduledChange) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (h *ServiceHistory) Scan(value interface{}) error {
	result := ServiceHistory{}
	if err := types.ScanJSONB(value, &result); err != nil {
		return err
	}
	*h = result
	return nil
}

func (h ServiceHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal(ServiceHistory{})
	}
	return json.Marshal([]ServiceHistoryEntry(h))
}

func (h *PaymentHistory) Scan(value interface{}) error {
	result := PaymentHistory{}
	if err := types.ScanJSONB(value, &result); err != nil {
		return err
	}
	*h = result
	return nil
}

func (h PaymentHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal(PaymentHistory{})
	}
	return json.Marshal([]PaymentRecord(h))
}

func (u *Usage) Scan(value interface{}) error {
	return types.ScanJSONB(value, u)
}

func (u Usage) Value() (driver.Value, error) {
	if u.History == nil {
		u.History = []UsageHistoryEntry{}
	}
	return json.Marshal(u)
}
