package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/stmtimport/internal/csvfile"
	"github.com/JonMunkholm/stmtimport/internal/mapper"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// Phase is the position of an import in its lifecycle.
type Phase string

const (
	PhasePrepared        Phase = "prepared"
	PhaseAccountsCreated Phase = "accounts_created"
	PhaseRemapped        Phase = "remapped"
	PhaseCommitted       Phase = "committed"
)

// session is one import kept in the session cache. mu serialises every
// step on the same import.
type session struct {
	mu sync.Mutex

	id              uuid.UUID
	fileName        string
	strategy        *strategy.Strategy
	file            *csvfile.File
	prep            *mapper.Preparation
	phase           Phase
	createdAccounts map[string]int64
	committed       int64
	archivedAs      string
	clientIP        string
	userAgent       string
	createdAt       time.Time
	updatedAt       time.Time
}

func (s *session) moveTo(p Phase) {
	s.phase = p
	s.updatedAt = time.Now().UTC()
}

// canCommit reports whether Commit may run from the current phase.
func (s *session) canCommit() bool {
	switch s.phase {
	case PhasePrepared, PhaseRemapped:
		return !s.prep.HasPendingAccounts()
	default:
		return false
	}
}

// ImportSummary is the client view of an import.
type ImportSummary struct {
	ID              uuid.UUID           `json:"id"`
	FileName        string              `json:"fileName"`
	StrategyID      int64               `json:"strategyId"`
	StrategyName    string              `json:"strategyName"`
	Phase           Phase               `json:"phase"`
	Headings        []string            `json:"headings"`
	TotalRows       int                 `json:"totalRows"`
	ValidRows       int                 `json:"validRows"`
	ErrorCount      int                 `json:"errorCount"`
	Errors          []mapper.RowError   `json:"errors"`
	NewAccounts     []mapper.NewAccount `json:"newAccounts"`
	CreatedAccounts map[string]int64    `json:"createdAccounts,omitempty"`
	AccountIDs      []int64             `json:"participatingAccountIds"`
	Committed       int64               `json:"committed"`
	CanCommit       bool                `json:"canCommit"`
	Archived        bool                `json:"archived"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// summary must be called with s.mu held.
func (s *session) summary(errorSample int) ImportSummary {
	errs := s.prep.ErrorRows
	if errorSample >= 0 && len(errs) > errorSample {
		errs = errs[:errorSample]
	}
	created := make(map[string]int64, len(s.createdAccounts))
	for k, v := range s.createdAccounts {
		created[k] = v
	}
	return ImportSummary{
		ID:              s.id,
		FileName:        s.fileName,
		StrategyID:      s.strategy.ID,
		StrategyName:    s.strategy.Name,
		Phase:           s.phase,
		Headings:        append([]string{}, s.file.Headings...),
		TotalRows:       s.prep.TotalRows,
		ValidRows:       len(s.prep.ValidTransfers),
		ErrorCount:      len(s.prep.ErrorRows),
		Errors:          append([]mapper.RowError{}, errs...),
		NewAccounts:     append([]mapper.NewAccount{}, s.prep.NewAccounts...),
		CreatedAccounts: created,
		AccountIDs:      append([]int64{}, s.prep.ParticipatingAccountIDs...),
		Committed:       s.committed,
		CanCommit:       s.canCommit(),
		Archived:        s.archivedAs != "",
		CreatedAt:       s.createdAt,
		UpdatedAt:       s.updatedAt,
	}
}
