package validator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // valid UUIDv7
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B", // valid UUIDv7 (uppercase)
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // not v7
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // invalid hex
		"",                                     // empty
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		if !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		if ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "employee_id", Message: "required"},
		{Field: "amount", Message: "must be positive"},
	}
	got := errs.Error()
	want := "employee_id: required; amount: must be positive"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "employee_id", Message: "required"},
		{Field: "amount", Message: "must be positive"},
	}
	got := errs.ToMap()
	want := map[string]string{"employee_id": "required", "amount": "must be positive"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestValidationErrors_Err(t *testing.T) {
	var errs ValidationErrors
	if errs.Err() != nil {
		t.Errorf("empty ValidationErrors.Err() = %v, want nil", errs.Err())
	}
	errs.Add("reason", "reason is required")
	if errs.Err() == nil {
		t.Errorf("ValidationErrors.Err() = nil, want error")
	}
}

type structSample struct {
	EmployeeID string          `json:"employee_id" validate:"required"`
	Kind       string          `json:"kind" validate:"oneof=vacation sick"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	ok := structSample{EmployeeID: "emp-1", Kind: "sick", Amount: decimal.NewFromInt(10)}
	if err := Struct(ok); err != nil {
		t.Fatalf("Struct(valid) = %v, want nil", err)
	}

	bad := structSample{Kind: "holiday", Amount: decimal.Zero}
	err := Struct(bad)
	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("Struct(invalid) = %v, want ValidationErrors", err)
	}
	got := errs.ToMap()
	if got["employee_id"] != "employee_id is required" {
		t.Errorf("employee_id message = %q", got["employee_id"])
	}
	if got["kind"] != "kind must be one of: vacation sick" {
		t.Errorf("kind message = %q", got["kind"])
	}
	if got["amount"] != "amount must be greater than 0" {
		t.Errorf("amount message = %q", got["amount"])
	}
}
