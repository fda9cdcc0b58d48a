package payroll

import (
	"encoding/json"
	"testing"
)

func TestCalculation_UnknownFieldsSurviveRoundTrip(t *testing.T) {
	t.Parallel()

	const remote = `{
		"id": "calc-1",
		"salary": {"kind": "HourlySalary", "total": 650},
		"worker": {"employmentId": "emp-1"},
		"rows": [
			{"rowIndex": 0, "rowType": "hourlySalary", "count": 32.5, "price": 20, "unit": "hours", "message": "", "source": "undefined", "vacation": {"days": 2}}
		]
	}`

	var calc Calculation
	if err := json.Unmarshal([]byte(remote), &calc); err != nil {
		t.Fatalf("unmarshal calculation: %v", err)
	}

	if calc.ID != "calc-1" {
		t.Fatalf("unexpected id: %q", calc.ID)
	}
	if len(calc.Rows) != 1 || calc.Rows[0].Count != 32.5 {
		t.Fatalf("unexpected rows: %+v", calc.Rows)
	}

	calc.Rows[0].Count = 7.5
	calc.Rows[0].Message = "2026-08-28 | Acme"

	encoded, err := json.Marshal(calc)
	if err != nil {
		t.Fatalf("marshal calculation: %v", err)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("decode encoded calculation: %v", err)
	}
	if string(out["salary"]) != `{"kind":"HourlySalary","total":650}` {
		t.Fatalf("salary field must survive unchanged, got %s", out["salary"])
	}
	if _, found := out["worker"]; !found {
		t.Fatalf("worker field must survive")
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(out["rows"], &rows); err != nil {
		t.Fatalf("decode encoded rows: %v", err)
	}
	if string(rows[0]["count"]) != "7.5" {
		t.Fatalf("modified count must be encoded, got %s", rows[0]["count"])
	}
	if string(rows[0]["vacation"]) != `{"days":2}` {
		t.Fatalf("unknown row field must survive, got %s", rows[0]["vacation"])
	}
}

func TestCalculation_NilRowsMarshalAsEmptyArray(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(Calculation{ID: "calc-1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out struct {
		Rows json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out.Rows) != "[]" {
		t.Fatalf("nil rows must encode as [], got %s", out.Rows)
	}
}

func TestRow_RawFieldsOmittedWhenEmpty(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(Row{RowIndex: 1, RowType: RowTypeHourlySalary})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, name := range []string{"sourceId", "accounting", "period", "data"} {
		if _, found := out[name]; found {
			t.Fatalf("empty raw field %s must be omitted", name)
		}
	}
	if string(out["rowType"]) != `"hourlySalary"` {
		t.Fatalf("unexpected rowType: %s", out["rowType"])
	}
}
