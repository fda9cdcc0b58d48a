// Package sync implements the payroll draft/calculation reconciliation
// engine: it decides, for every incoming hour entry, whether to reuse or
// create remote resources, merges the entry into a calculation's row set and
// reports per-entry success or failure without aborting the whole batch.
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"hoursync/hours"
	"hoursync/metrics"
	"hoursync/payroll"
)

// StateStore is the persistence surface the engine needs; records are opaque
// documents read and written wholesale, with whatever atomicity the backend
// provides.
type StateStore interface {
	GetState(key string) ([]byte, bool, error)
	PutState(key string, value []byte) error
}

// DefaultUnitPrice is the fixed hourly rate put on appended wage rows.
const DefaultUnitPrice = 20

type Config struct {
	Client           *payroll.Client
	Store            StateStore
	UnitPrice        float64
	DraftTitlePrefix string
	Logger           zerolog.Logger
	Metrics          metrics.Recorder
	Now              func() time.Time
}

// Service drives the per-entry pipeline across a batch: resolve the shared
// draft once, then per entry resolve the calculation, merge rows, save and
// attach, persisting the draft's employee-to-calculation mapping between
// entries.
type Service struct {
	client           *payroll.Client
	store            StateStore
	unitPrice        float64
	draftTitlePrefix string
	log              zerolog.Logger
	metrics          metrics.Recorder
	now              func() time.Time
}

func New(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("payroll client is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("state store is required")
	}

	unitPrice := cfg.UnitPrice
	if unitPrice <= 0 {
		unitPrice = DefaultUnitPrice
	}
	prefix := cfg.DraftTitlePrefix
	if prefix == "" {
		prefix = "Hoursync"
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		client:           cfg.Client,
		store:            cfg.Store,
		unitPrice:        unitPrice,
		draftTitlePrefix: prefix,
		log:              cfg.Logger,
		metrics:          recorder,
		now:              now,
	}, nil
}

// Result records one successfully synced entry.
type Result struct {
	Date             string  `json:"date"`
	Hours            float64 `json:"hours"`
	Project          string  `json:"project"`
	Status           string  `json:"status"`
	CalculationID    string  `json:"calculationId"`
	IsNewCalculation bool    `json:"isNewCalculation"`
}

// EntryError records one failed entry. HTTPCode is 0 for transport failures.
type EntryError struct {
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Status   string  `json:"status"`
	HTTPCode int     `json:"httpCode"`
	Message  string  `json:"error"`
}

// Report is the aggregated multi-status outcome of one batch.
type Report struct {
	Message     string       `json:"message"`
	PayrollID   string       `json:"payrollId"`
	PayrollName string       `json:"payrollName"`
	DraftDate   string       `json:"draftDate"`
	Success     []Result     `json:"success"`
	Errors      []EntryError `json:"errors"`
	TotalSent   int          `json:"totalSent"`
	TotalFailed int          `json:"totalFailed"`
}

// StatusCode maps the batch outcome to the response status: 200 when every
// entry succeeded, 207 otherwise.
func (r Report) StatusCode() int {
	if len(r.Errors) == 0 {
		return 200
	}
	return 207
}

type remoteIDResponse struct {
	ID string `json:"id"`
}

// Run synchronizes a batch of hour entries into today's shared payroll
// draft. Entries are processed strictly in order: a later entry reuses the
// calculation id only known after an earlier entry of the batch succeeds.
// Draft resolution failure is fatal; entry failures are collected and
// processing continues.
func (s *Service) Run(ctx context.Context, entries []hours.Entry, employmentID string) (Report, error) {
	draft, err := s.resolveDraft(ctx, employmentID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		PayrollID:   draft.PayrollID,
		PayrollName: draft.PayrollName,
		DraftDate:   draft.CreatedDate,
		Success:     make([]Result, 0, len(entries)),
		Errors:      make([]EntryError, 0),
	}
	existingID := draft.Calculations[employmentID]

	for _, entry := range entries {
		outcome, err := s.processEntry(ctx, draft.PayrollID, existingID, employmentID, entry)
		if err != nil {
			s.metrics.IncEntriesFailed(1)
			s.log.Warn().
				Str("date", entry.Date).
				Float64("hours", entry.Hours).
				Err(err).
				Msg("entry sync failed")
			report.Errors = append(report.Errors, entryError(entry, err))
			continue
		}

		if outcome.isNew {
			// Persist the mapping before the next entry so a crash between
			// entries does not lose the calculation id.
			existingID = outcome.calculationID
			draft.Calculations[employmentID] = outcome.calculationID
			if err := s.persistDraft(draft); err != nil {
				s.log.Error().Err(err).Msg("persist calculation mapping failed")
			}
		}

		s.metrics.IncEntriesSynced(1)
		report.Success = append(report.Success, Result{
			Date:             entry.Date,
			Hours:            entry.Hours,
			Project:          entry.Project,
			Status:           "ok",
			CalculationID:    outcome.calculationID,
			IsNewCalculation: outcome.isNew,
		})
	}

	report.TotalSent = len(report.Success)
	report.TotalFailed = len(report.Errors)
	if report.TotalFailed == 0 {
		report.Message = "All entries added to the payroll draft"
	} else {
		report.Message = "Some entries failed"
	}
	return report, nil
}

type entryOutcome struct {
	calculationID string
	isNew         bool
}

func (s *Service) processEntry(ctx context.Context, payrollID, existingID, employmentID string, entry hours.Entry) (entryOutcome, error) {
	resolved, err := s.resolveCalculation(ctx, payrollID, existingID, employmentID)
	if err != nil {
		return entryOutcome{}, err
	}

	calc := resolved.calc
	calc.Rows = MergeEntry(calc.Rows, entry, resolved.isNew, s.unitPrice)

	saveResp, err := s.client.SaveCalculationFromEmployment(ctx, false, calc)
	if err != nil {
		return entryOutcome{}, &SaveError{Message: err.Error()}
	}
	if !saveResp.OK() {
		return entryOutcome{}, &SaveError{
			Status:  saveResp.Status,
			Message: remoteFailureMessage(saveResp, "save calculation failed"),
		}
	}

	// The save endpoint may assign a different id than the one sent.
	finalID := calc.ID
	var saved remoteIDResponse
	if err := saveResp.Decode(&saved); err == nil && saved.ID != "" {
		finalID = saved.ID
	}

	if resolved.isNew {
		attachResp, err := s.client.AttachCalculation(ctx, payrollID, finalID)
		if err != nil {
			return entryOutcome{}, &SaveError{Message: err.Error()}
		}
		if !attachResp.OK() {
			return entryOutcome{}, &SaveError{
				Status:  attachResp.Status,
				Message: remoteFailureMessage(attachResp, "attach calculation to payroll failed"),
			}
		}
	}

	return entryOutcome{calculationID: finalID, isNew: resolved.isNew}, nil
}

func entryError(entry hours.Entry, err error) EntryError {
	code := 0
	var calcErr *CalculationError
	var saveErr *SaveError
	switch {
	case errors.As(err, &calcErr):
		code = calcErr.Status
	case errors.As(err, &saveErr):
		code = saveErr.Status
	}

	message := err.Error()
	if message == "" {
		message = "unknown error"
	}

	return EntryError{
		Date:     entry.Date,
		Hours:    entry.Hours,
		Status:   "error",
		HTTPCode: code,
		Message:  message,
	}
}
