package payroll

import (
	"encoding/json"
	"fmt"
)

// RowTypeHourlySalary marks the canonical hourly wage row inside a
// calculation.
const RowTypeHourlySalary = "hourlySalary"

// Row is one payable line item inside a calculation. The remote API returns
// more fields than this client models; unknown fields are captured on decode
// and emitted unchanged on encode so a fetched row survives a later save.
type Row struct {
	RowIndex   int             `json:"rowIndex"`
	RowType    string          `json:"rowType"`
	Count      float64         `json:"count"`
	Price      float64         `json:"price"`
	Unit       string          `json:"unit"`
	Message    string          `json:"message"`
	Source     string          `json:"source"`
	SourceID   json.RawMessage `json:"sourceId,omitempty"`
	Accounting json.RawMessage `json:"accounting,omitempty"`
	Period     json.RawMessage `json:"period,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`

	extra map[string]json.RawMessage
}

var rowKnownFields = []string{
	"rowIndex", "rowType", "count", "price", "unit", "message",
	"source", "sourceId", "accounting", "period", "data",
}

type rowFields Row

func (r *Row) UnmarshalJSON(data []byte) error {
	var known rowFields
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("decode calculation row: %w", err)
	}
	extra, err := unknownFields(data, rowKnownFields)
	if err != nil {
		return fmt.Errorf("decode calculation row: %w", err)
	}
	*r = Row(known)
	r.extra = extra
	return nil
}

func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.extra)+len(rowKnownFields))
	for key, value := range r.extra {
		out[key] = value
	}
	if err := setField(out, "rowIndex", r.RowIndex); err != nil {
		return nil, err
	}
	if err := setField(out, "rowType", r.RowType); err != nil {
		return nil, err
	}
	if err := setField(out, "count", r.Count); err != nil {
		return nil, err
	}
	if err := setField(out, "price", r.Price); err != nil {
		return nil, err
	}
	if err := setField(out, "unit", r.Unit); err != nil {
		return nil, err
	}
	if err := setField(out, "message", r.Message); err != nil {
		return nil, err
	}
	if err := setField(out, "source", r.Source); err != nil {
		return nil, err
	}
	setRawField(out, "sourceId", r.SourceID)
	setRawField(out, "accounting", r.Accounting)
	setRawField(out, "period", r.Period)
	setRawField(out, "data", r.Data)
	return json.Marshal(out)
}

// Calculation is the remote record of payable rows for one employee within
// one payroll draft. Unknown top-level fields round-trip like row fields do.
type Calculation struct {
	ID   string `json:"id"`
	Rows []Row  `json:"rows"`

	extra map[string]json.RawMessage
}

var calculationKnownFields = []string{"id", "rows"}

type calculationFields Calculation

func (c *Calculation) UnmarshalJSON(data []byte) error {
	var known calculationFields
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("decode calculation: %w", err)
	}
	extra, err := unknownFields(data, calculationKnownFields)
	if err != nil {
		return fmt.Errorf("decode calculation: %w", err)
	}
	*c = Calculation(known)
	c.extra = extra
	return nil
}

func (c Calculation) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.extra)+2)
	for key, value := range c.extra {
		out[key] = value
	}
	if err := setField(out, "id", c.ID); err != nil {
		return nil, err
	}
	rows := c.Rows
	if rows == nil {
		rows = []Row{}
	}
	if err := setField(out, "rows", rows); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, name := range known {
		delete(fields, name)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

func setField(out map[string]json.RawMessage, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode field %s: %w", name, err)
	}
	out[name] = raw
	return nil
}

func setRawField(out map[string]json.RawMessage, name string, value json.RawMessage) {
	if len(value) == 0 {
		return
	}
	out[name] = value
}
