package sync

import (
	"context"
	"fmt"

	"hoursync/payroll"
)

type calculationTemplateRequest struct {
	Workflow workflowStatus  `json:"workflow"`
	Employer employerRef     `json:"employer"`
	Worker   workerRef       `json:"worker"`
	Info     calculationInfo `json:"info"`
}

type workflowStatus struct {
	Status string `json:"status"`
}

type employerRef struct {
	IsSelf bool `json:"isSelf"`
}

type workerRef struct {
	EmploymentID string `json:"employmentId"`
}

type calculationInfo struct {
	PayrollID string `json:"payrollId"`
}

type resolvedCalculation struct {
	calc  payroll.Calculation
	isNew bool
}

// resolveCalculation returns the employee's calculation within the draft.
// A known id is fetched and reused; when no id is known, or the fetch fails,
// a new calculation is built from the employment template and then fetched
// by id, because the create response does not reliably carry the generated
// row template.
func (s *Service) resolveCalculation(ctx context.Context, payrollID, existingID, employmentID string) (resolvedCalculation, error) {
	if existingID != "" {
		resp, err := s.client.GetCalculation(ctx, existingID)
		if err == nil && resp.OK() {
			var calc payroll.Calculation
			if decodeErr := resp.Decode(&calc); decodeErr == nil {
				if calc.ID == "" {
					calc.ID = existingID
				}
				return resolvedCalculation{calc: calc, isNew: false}, nil
			}
		}
	}

	payload := calculationTemplateRequest{
		Workflow: workflowStatus{Status: "PayrollDraft"},
		Employer: employerRef{IsSelf: true},
		Worker:   workerRef{EmploymentID: employmentID},
		Info:     calculationInfo{PayrollID: payrollID},
	}

	createResp, err := s.client.SaveCalculationFromEmployment(ctx, true, payload)
	if err != nil {
		return resolvedCalculation{}, &CalculationError{Message: err.Error()}
	}

	var created remoteIDResponse
	if decodeErr := createResp.Decode(&created); !createResp.OK() || decodeErr != nil || created.ID == "" {
		return resolvedCalculation{}, &CalculationError{
			Status:  createResp.Status,
			Message: remoteFailureMessage(createResp, "create calculation failed"),
		}
	}

	getResp, err := s.client.GetCalculation(ctx, created.ID)
	if err != nil {
		return resolvedCalculation{}, &CalculationError{Message: err.Error()}
	}
	if !getResp.OK() {
		return resolvedCalculation{}, &CalculationError{
			Status:  getResp.Status,
			Message: remoteFailureMessage(getResp, fmt.Sprintf("fetch new calculation %s failed", created.ID)),
		}
	}

	var calc payroll.Calculation
	if err := getResp.Decode(&calc); err != nil {
		return resolvedCalculation{}, &CalculationError{
			Status:  getResp.Status,
			Message: fmt.Sprintf("decode new calculation %s: %v", created.ID, err),
		}
	}
	if calc.ID == "" {
		calc.ID = created.ID
	}
	return resolvedCalculation{calc: calc, isNew: true}, nil
}

func remoteFailureMessage(resp payroll.Response, fallback string) string {
	if msg := resp.ErrorMessage(); msg != "" {
		return msg
	}
	return fallback
}
