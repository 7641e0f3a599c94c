// Package model 提供对话日志模型单元测试
package model

import (
	"encoding/json"
	"testing"
)

func TestToolCallListValue(t *testing.T) {
	// 空集合必须落库为 NULL：jsonb 列拒绝空字符串
	t.Run("empty list stores NULL", func(t *testing.T) {
		var empty ToolCallList
		v, err := empty.Value()
		if err != nil {
			t.Fatalf("Value() error = %v", err)
		}
		if v != nil {
			t.Errorf("Value() = %v, want nil for empty list", v)
		}

		v, err = ToolCallList{}.Value()
		if err != nil {
			t.Fatalf("Value() error = %v", err)
		}
		if v != nil {
			t.Errorf("Value() = %v, want nil for zero-length list", v)
		}
	})

	t.Run("populated list marshals to valid JSON", func(t *testing.T) {
		calls := ToolCallList{
			{ID: "call-1", Name: "compute_vat", Arguments: `{"country_code":"CI"}`},
		}
		v, err := calls.Value()
		if err != nil {
			t.Fatalf("Value() error = %v", err)
		}
		data, ok := v.([]byte)
		if !ok {
			t.Fatalf("Value() = %T, want []byte", v)
		}
		if !json.Valid(data) {
			t.Errorf("Value() = %s, not valid JSON", data)
		}
	})
}

func TestToolCallListScan(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		original := ToolCallList{
			{ID: "call-1", Name: "compute_vat", Arguments: `{"amount_ht":100000}`},
			{ID: "call-2", Name: "lookup_official_rate", Arguments: `{"rate_kind":"tva"}`},
		}
		v, err := original.Value()
		if err != nil {
			t.Fatalf("Value() error = %v", err)
		}

		var scanned ToolCallList
		if err := scanned.Scan(v); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(scanned) != 2 {
			t.Fatalf("got %d records, want 2", len(scanned))
		}
		if scanned[0].Name != "compute_vat" || scanned[1].ID != "call-2" {
			t.Errorf("scanned = %+v", scanned)
		}
	})

	t.Run("NULL column scans to empty list", func(t *testing.T) {
		var calls ToolCallList
		if err := calls.Scan(nil); err != nil {
			t.Fatalf("Scan(nil) error = %v", err)
		}
		if len(calls) != 0 {
			t.Errorf("got %d records, want 0", len(calls))
		}
	})
}

func TestToolCallListGormDataType(t *testing.T) {
	if got := (ToolCallList{}).GormDataType(); got != "jsonb" {
		t.Errorf("GormDataType() = %q, want jsonb", got)
	}
}
