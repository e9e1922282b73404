package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// OrderStatus represents the kitchen status of an order
type OrderStatus int

const (
	OrderStatusPending   OrderStatus = 0
	OrderStatusPreparing OrderStatus = 1
	OrderStatusReady     OrderStatus = 2
	OrderStatusCompleted OrderStatus = 3
)

var orderStatusNames = [...]string{"Pending", "Preparing", "Ready", "Completed"}

func (s OrderStatus) String() string {
	if s < 0 || int(s) >= len(orderStatusNames) {
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
	return orderStatusNames[s]
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s >= OrderStatusPending && s <= OrderStatusCompleted
}

// ParseOrderStatus maps a status name, in any case, to its value.
func ParseOrderStatus(name string) (OrderStatus, error) {
	for i, n := range orderStatusNames {
		if strings.EqualFold(n, name) {
			return OrderStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", name)
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !OrderStatus(i).Valid() {
			return fmt.Errorf("unknown order status %d", i)
		}
		*s = OrderStatus(i)
		return nil
	}
	parsed, err := ParseOrderStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderStatus(v)
	case int:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", value)
	}
	return nil
}
