package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList 以 JSON 数组存储的字符串列表
type StringList []string

// 实现 sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(bytes) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(bytes, (*[]string)(l))
}

// 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
