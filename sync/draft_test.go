package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestResolveDraft_StaleRecordSuperseded(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed, _ := json.Marshal(DraftRecord{
		PayrollID:    "payroll-old",
		PayrollName:  "Hoursync: 27.08.2026 : 16:00",
		CreatedDate:  "2026-08-27",
		CreatedAt:    "2026-08-27T16:00:00Z",
		Calculations: map[string]string{"emp-1": "calc-old"},
	})
	_ = store.PutState(DraftStateKey, seed)

	service := newTestService(t, store, func(r *http.Request) (*http.Response, error) {
		if requestKey(r) == "POST /api/payroll" {
			return httpResponse(200, map[string]string{"id": "payroll-new"}), nil
		}
		return nil, fmt.Errorf("unexpected request %s", requestKey(r))
	})

	record, err := service.resolveDraft(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("resolve draft: %v", err)
	}

	if record.PayrollID != "payroll-new" {
		t.Fatalf("stale record must be superseded, got payroll %q", record.PayrollID)
	}
	if len(record.Calculations) != 0 {
		t.Fatalf("new draft must start with an empty calculation mapping")
	}

	raw, _, _ := store.GetState(DraftStateKey)
	var persisted DraftRecord
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode persisted record: %v", err)
	}
	if persisted.PayrollID != "payroll-new" {
		t.Fatalf("new record must replace the stale one, got %q", persisted.PayrollID)
	}
}

func TestResolveDraft_RemoteMissingDraftRecreated(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed, _ := json.Marshal(DraftRecord{
		PayrollID:    "payroll-gone",
		CreatedDate:  "2026-08-28",
		Calculations: map[string]string{"emp-1": "calc-1"},
	})
	_ = store.PutState(DraftStateKey, seed)

	service := newTestService(t, store, func(r *http.Request) (*http.Response, error) {
		switch key := requestKey(r); key {
		case "GET /api/payroll/payroll-gone":
			return httpResponse(404, map[string]string{"message": "not found"}), nil
		case "POST /api/payroll":
			return httpResponse(200, map[string]string{"id": "payroll-new"}), nil
		default:
			return nil, fmt.Errorf("unexpected request %s", key)
		}
	})

	record, err := service.resolveDraft(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("resolve draft: %v", err)
	}
	if record.PayrollID != "payroll-new" {
		t.Fatalf("missing remote draft must be recreated, got %q", record.PayrollID)
	}
}

func TestResolveDraft_SameDayRecordReused(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed, _ := json.Marshal(DraftRecord{
		PayrollID:    "payroll-1",
		PayrollName:  "Hoursync: 28.08.2026 : 08:00",
		CreatedDate:  "2026-08-28",
		Calculations: map[string]string{"emp-1": "calc-1"},
	})
	_ = store.PutState(DraftStateKey, seed)

	service := newTestService(t, store, func(r *http.Request) (*http.Response, error) {
		if requestKey(r) == "GET /api/payroll/payroll-1" {
			return httpResponse(200, map[string]string{"id": "payroll-1"}), nil
		}
		return nil, fmt.Errorf("unexpected request %s", requestKey(r))
	})

	record, err := service.resolveDraft(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("resolve draft: %v", err)
	}
	if record.PayrollID != "payroll-1" {
		t.Fatalf("same-day record must be reused, got %q", record.PayrollID)
	}
	if record.Calculations["emp-1"] != "calc-1" {
		t.Fatalf("reused record must keep its calculation mapping")
	}
}
