package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hoursync/internal/timeutil"
)

// DraftStateKey is the state-store record holding the current day's shared
// payroll draft.
const DraftStateKey = "draft"

// DraftRecord is the locally persisted handle to the shared per-day payroll
// draft. Calculations maps employmentId to the calculation created for that
// employee within the draft; the map only grows within a day.
type DraftRecord struct {
	PayrollID    string            `json:"payrollId"`
	PayrollName  string            `json:"payrollName"`
	CreatedDate  string            `json:"createdDate"`
	CreatedAt    string            `json:"createdAt"`
	Calculations map[string]string `json:"calculations"`
}

type createPayrollRequest struct {
	EmploymentID string             `json:"employmentId"`
	Status       string             `json:"status"`
	Input        createPayrollInput `json:"input"`
}

type createPayrollInput struct {
	Title string `json:"title"`
}

// resolveDraft returns today's shared draft, reusing the persisted record
// when it is from today and still exists remotely, and creating a fresh
// draft otherwise. The new record supersedes whatever was persisted before.
func (s *Service) resolveDraft(ctx context.Context, employmentID string) (DraftRecord, error) {
	now := s.now()
	today := timeutil.ISODay(now)

	if record, ok := s.persistedDraft(); ok && record.CreatedDate == today && record.PayrollID != "" {
		check, err := s.client.GetPayroll(ctx, record.PayrollID)
		if err == nil && check.OK() {
			if record.Calculations == nil {
				record.Calculations = map[string]string{}
			}
			return record, nil
		}
	}

	title := fmt.Sprintf("%s: %s : %s", s.draftTitlePrefix, timeutil.FinnishDay(now), timeutil.Clock(now))
	payload := createPayrollRequest{
		EmploymentID: employmentID,
		Status:       "Draft",
		Input:        createPayrollInput{Title: title},
	}

	resp, err := s.client.CreatePayroll(ctx, payload)
	if err != nil {
		return DraftRecord{}, &DraftCreationError{
			Endpoint: "/payroll",
			Method:   "POST",
			SentData: payload,
			Response: json.RawMessage(fmt.Sprintf("%q", err.Error())),
		}
	}

	var created remoteIDResponse
	if decodeErr := resp.Decode(&created); !resp.OK() || decodeErr != nil || created.ID == "" {
		return DraftRecord{}, &DraftCreationError{
			Endpoint: "/payroll",
			Method:   "POST",
			SentData: payload,
			Status:   resp.Status,
			Response: resp.Body,
		}
	}

	record := DraftRecord{
		PayrollID:    created.ID,
		PayrollName:  title,
		CreatedDate:  today,
		CreatedAt:    now.Format(time.RFC3339),
		Calculations: map[string]string{},
	}
	if err := s.persistDraft(record); err != nil {
		return DraftRecord{}, fmt.Errorf("persist draft record: %w", err)
	}
	return record, nil
}

func (s *Service) persistedDraft() (DraftRecord, bool) {
	raw, found, err := s.store.GetState(DraftStateKey)
	if err != nil || !found {
		return DraftRecord{}, false
	}

	var record DraftRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return DraftRecord{}, false
	}
	return record, true
}

func (s *Service) persistDraft(record DraftRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal draft record: %w", err)
	}
	return s.store.PutState(DraftStateKey, raw)
}
