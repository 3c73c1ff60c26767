package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/stmtimport/internal/ledger"
)

// Preparation is the result of mapping a whole file. ValidRows holds the
// row index of each entry in ValidTransfers.
type Preparation struct {
	TotalRows               int               `json:"totalRows"`
	ValidTransfers          []ledger.Transfer `json:"validTransfers"`
	ValidRows               []int64           `json:"validRows"`
	ErrorRows               []RowError        `json:"errorRows"`
	NewAccounts             []NewAccount      `json:"newAccounts"`
	ParticipatingAccountIDs []int64           `json:"participatingAccountIds"`
}

// PrepareImport maps every row independently. A failing row never stops the
// batch. New accounts are reported once per name, with the category of the
// first mapping that discovered them.
func (m *Mapper) PrepareImport(rows []Row) *Preparation {
	p := &Preparation{
		TotalRows:      len(rows),
		ValidTransfers: []ledger.Transfer{},
		ValidRows:      []int64{},
		ErrorRows:      []RowError{},
		NewAccounts:    []NewAccount{},
	}
	seenNew := make(map[string]bool)
	participating := make(map[int64]bool)

	for _, row := range rows {
		mapped, rowErr := m.MapRow(row)
		if rowErr != nil {
			p.ErrorRows = append(p.ErrorRows, *rowErr)
			continue
		}
		p.ValidTransfers = append(p.ValidTransfers, mapped.Transfer)
		p.ValidRows = append(p.ValidRows, mapped.RowIndex)
		for _, na := range mapped.NewAccounts {
			if seenNew[na.Name] {
				continue
			}
			seenNew[na.Name] = true
			p.NewAccounts = append(p.NewAccounts, na)
		}
		for _, id := range []int64{mapped.Transfer.SourceAccountID, mapped.Transfer.TargetAccountID} {
			if id > 0 {
				participating[id] = true
			}
		}
	}

	p.ParticipatingAccountIDs = make([]int64, 0, len(participating))
	for id := range participating {
		p.ParticipatingAccountIDs = append(p.ParticipatingAccountIDs, id)
	}
	sort.Slice(p.ParticipatingAccountIDs, func(i, j int) bool {
		return p.ParticipatingAccountIDs[i] < p.ParticipatingAccountIDs[j]
	})
	return p
}

// HasPendingAccounts reports whether any transfer still refers to an account
// that must be created first.
func (p *Preparation) HasPendingAccounts() bool {
	return len(p.NewAccounts) > 0
}

// ErrorSummary returns the error count followed by at most n messages.
func (p *Preparation) ErrorSummary(n int) string {
	if len(p.ErrorRows) == 0 {
		return "no row errors"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d rows failed", len(p.ErrorRows), p.TotalRows)
	for i, e := range p.ErrorRows {
		if i >= n {
			fmt.Fprintf(&b, "\n  ... and %d more", len(p.ErrorRows)-n)
			break
		}
		fmt.Fprintf(&b, "\n  %s", e.Error())
	}
	return b.String()
}
