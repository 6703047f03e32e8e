package models

import (
	"encoding/json"
	"strconv"
)

type UserState struct {
	UserID      int64
	CurrentStep string
	TempData    map[string]interface{}
}

// Значения TempData приходят либо нативными, либо размотанными из JSON
// (Redis хранит состояние как JSON, и все числа там float64).

func DataString(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func DataFloat64(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func DataInt64(data map[string]interface{}, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (s *UserState) GetInt64(key string) int64 {
	if s.TempData == nil {
		return 0
	}
	return DataInt64(s.TempData, key)
}

func (s *UserState) GetFloat64(key string) float64 {
	if s.TempData == nil {
		return 0
	}
	return DataFloat64(s.TempData, key)
}

func (s *UserState) GetString(key string) string {
	if s.TempData == nil {
		return ""
	}
	return DataString(s.TempData, key)
}

// Has сообщает, было ли значение сохранено, включая явный nil после пропуска шага.
func (s *UserState) Has(key string) bool {
	if s.TempData == nil {
		return false
	}
	_, ok := s.TempData[key]
	return ok
}
