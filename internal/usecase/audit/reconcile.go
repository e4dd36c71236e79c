package audit

import (
	"sort"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
)

const correctionDescription = "Unexplained balance difference (system generated)"

// Reconcile replays history oldest to newest and compares the result with
// the stored balance of account. It never mutates its inputs.
//
// When the two differ by more than tolerance, a manual_adjustment correction
// is prepended so the running balance ends at the stored balance again.
func Reconcile(account *domain.Account, history []*domain.Transaction, tolerance int64) *domain.AuditReport {
	ordered := make([]*domain.Transaction, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	report := &domain.AuditReport{
		AccountID:     account.ID,
		StoredBalance: account.Balance,
		Tolerance:     tolerance,
		Entries:       make([]domain.AuditEntry, 0, len(ordered)+1),
		Flags:         []domain.AuditFlag{},
	}

	for _, tx := range ordered {
		_, inferred := tx.EffectiveDirection()
		inferred = inferred && !tx.Status.Voided()
		if inferred {
			report.InferredEntries++
		}
		if tx.Status == domain.TransactionStatusApproved {
			switch tx.Kind {
			case domain.TransactionKindDeposit:
				report.TotalDeposits += tx.Amount
			case domain.TransactionKindPrizeWinnings, domain.TransactionKindSpinWin:
				report.TotalWinnings += tx.Amount
			}
		}
		report.Entries = append(report.Entries, domain.AuditEntry{
			TransactionID: tx.ID,
			Kind:          tx.Kind,
			Status:        tx.Status,
			Amount:        tx.Amount,
			Signed:        tx.SignedAmount(),
			Description:   tx.Description,
			CreatedAt:     tx.CreatedAt,
			Inferred:      inferred,
		})
	}

	report.DerivedBalance = fold(report.Entries, 0)
	report.Discrepancy = report.StoredBalance - report.DerivedBalance

	if abs(report.Discrepancy) > tolerance {
		correction := domain.AuditEntry{
			Kind:        domain.TransactionKindManualAdjustment,
			Status:      domain.TransactionStatusApproved,
			Amount:      abs(report.Discrepancy),
			Signed:      report.Discrepancy,
			Description: correctionDescription,
			CreatedAt:   historyStart(account, ordered),
			Synthetic:   true,
		}
		report.Entries = append([]domain.AuditEntry{correction}, report.Entries...)
		fold(report.Entries, 0)
		report.Correction = &report.Entries[0]
		report.Flags = append(report.Flags, domain.AuditFlagBalanceDesync)
	}

	if report.StoredBalance > report.TotalDeposits+report.TotalWinnings {
		report.Flags = append(report.Flags, domain.AuditFlagExceedsExplainableMaximum)
	}
	if report.InferredEntries > 0 {
		report.Flags = append(report.Flags, domain.AuditFlagAdjustmentDirectionInferred)
	}
	return report
}

// fold fills in the running balance of every entry and returns the final one
func fold(entries []domain.AuditEntry, opening int64) int64 {
	running := opening
	for i := range entries {
		running += entries[i].Signed
		entries[i].RunningBalance = running
	}
	return running
}

func historyStart(account *domain.Account, ordered []*domain.Transaction) time.Time {
	if len(ordered) > 0 {
		return ordered[0].CreatedAt
	}
	return account.CreatedAt
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
