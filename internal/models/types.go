package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// JSON 自定义 JSON 类型
type JSON map[string]interface{}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil || raw == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(raw, j)
}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// IDList ID 白名单，空表示不限制
type IDList []int64

// Scan 实现 sql.Scanner 接口
func (l *IDList) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil || raw == nil {
		*l = nil
		return err
	}
	return json.Unmarshal(raw, l)
}

// Value 实现 driver.Valuer 接口
func (l IDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return json.Marshal([]int64(l))
}

// Contains 是否包含指定 ID
func (l IDList) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// WeekdaySet 星期集合（0=周日 ... 6=周六），空表示每天
type WeekdaySet []time.Weekday

// Scan 实现 sql.Scanner 接口
func (w *WeekdaySet) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil || raw == nil {
		*w = nil
		return err
	}
	var days []int
	if err := json.Unmarshal(raw, &days); err != nil {
		return err
	}
	set := make(WeekdaySet, 0, len(days))
	for _, d := range days {
		set = append(set, time.Weekday(d))
	}
	*w = set
	return nil
}

// Value 实现 driver.Valuer 接口
func (w WeekdaySet) Value() (driver.Value, error) {
	if len(w) == 0 {
		return nil, nil
	}
	days := make([]int, 0, len(w))
	for _, d := range w {
		days = append(days, int(d))
	}
	sort.Ints(days)
	return json.Marshal(days)
}

// Allows 空集合匹配任意星期
func (w WeekdaySet) Allows(day time.Weekday) bool {
	if len(w) == 0 {
		return true
	}
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", value)
	}
}
