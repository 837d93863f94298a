package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringMap is a JSON object column, scanned/written the way the teacher's
// CropConfig handles its own opaque JSON column.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("models: StringMap.Scan: unsupported type %T", value)
	}
	return json.Unmarshal(b, m)
}
