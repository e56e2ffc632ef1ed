package store

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/models"
)

// CategoryFreelancerPay is the expense category used for team payouts.
const CategoryFreelancerPay = "Gaji Freelancer"

// AddLead prepends lead and re-sorts the leads by date, newest first.
// A lead dated the same as an existing one ends up in front of it.
// A missing id is generated.
func (s *Store) AddLead(lead models.Lead) models.Lead {
	if lead.ID == "" {
		lead.ID = "LEAD-" + s.newID()
	}
	if lead.Date.IsZero() {
		lead.Date = s.nowFn()
	}
	_ = s.update(func(st *state) ([]string, error) {
		leads := make([]models.Lead, 0, len(st.leads)+1)
		leads = append(leads, lead)
		leads = append(leads, st.leads...)
		slices.SortStableFunc(leads, func(a, b models.Lead) int {
			return b.Date.Compare(a.Date)
		})
		st.leads = leads
		return []string{NameLeads}, nil
	})
	return lead
}

// Settlement asks the store to pay out one or more obligations of a team member.
type Settlement struct {
	TeamMemberID string    `json:"teamMemberId"`
	PaymentIDs   []string  `json:"paymentIds"`
	RecordID     string    `json:"recordId,omitempty"`
	PocketID     string    `json:"pocketId,omitempty"`
	Method       string    `json:"method,omitempty"`
	Description  string    `json:"description,omitempty"`
	Date         time.Time `json:"date,omitempty"`
}

// SettlementResult reports every record written by SettlePayments.
type SettlementResult struct {
	Payments    []models.TeamProjectPayment `json:"payments"`
	Transaction models.Transaction          `json:"transaction"`
	Record      models.TeamPaymentRecord    `json:"record"`
	Pocket      *models.FinancialPocket     `json:"pocket,omitempty"`
}

// SettlePayments marks the obligations paid, appends the expense transaction
// and appends (or extends) the payment record in one step. When PocketID is
// set the pocket is debited by the same amount. On error nothing is written.
func (s *Store) SettlePayments(req Settlement) (*SettlementResult, error) {
	if len(req.PaymentIDs) == 0 {
		return nil, fmt.Errorf("store: settle: no payments given: %w", apperr.ErrValidation)
	}
	date := req.Date
	if date.IsZero() {
		date = s.nowFn()
	}

	var res SettlementResult
	err := s.update(func(st *state) ([]string, error) {
		seen := make(map[string]struct{}, len(req.PaymentIDs))
		var total int64
		memberName := ""
		for _, id := range req.PaymentIDs {
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("store: settle: payment %s listed twice: %w", id, apperr.ErrConflict)
			}
			seen[id] = struct{}{}

			i := slices.IndexFunc(st.teamProjectPayments, func(p models.TeamProjectPayment) bool { return p.ID == id })
			if i < 0 {
				return nil, fmt.Errorf("store: settle: payment %s: %w", id, apperr.ErrNotFound)
			}
			p := &st.teamProjectPayments[i]
			if p.TeamMemberID != req.TeamMemberID {
				return nil, fmt.Errorf("store: settle: payment %s belongs to %s: %w", id, p.TeamMemberID, apperr.ErrConflict)
			}
			if p.Status == models.ObligationPaid {
				return nil, fmt.Errorf("store: settle: payment %s already paid: %w", id, apperr.ErrConflict)
			}
			p.Status = models.ObligationPaid
			total += p.Fee
			memberName = p.TeamMemberName
			res.Payments = append(res.Payments, *p)
		}
		touched := []string{NameTeamProjectPayments, NameTeamPaymentRecords, NameTransactions}

		var record *models.TeamPaymentRecord
		if req.RecordID != "" {
			i := slices.IndexFunc(st.teamPaymentRecords, func(r models.TeamPaymentRecord) bool { return r.ID == req.RecordID })
			if i < 0 {
				return nil, fmt.Errorf("store: settle: record %s: %w", req.RecordID, apperr.ErrNotFound)
			}
			record = &st.teamPaymentRecords[i]
			if record.TeamMemberID != req.TeamMemberID {
				return nil, fmt.Errorf("store: settle: record %s belongs to %s: %w", record.ID, record.TeamMemberID, apperr.ErrConflict)
			}
		} else {
			st.teamPaymentRecords = append(st.teamPaymentRecords, models.TeamPaymentRecord{
				ID:           "TPR-" + s.newID(),
				RecordNumber: fmt.Sprintf("PAY-FR-%s-%s-%d", req.TeamMemberID, date.Format("20060102"), nextRecordSeq(st.teamPaymentRecords)),
				TeamMemberID: req.TeamMemberID,
				Date:         date,
			})
			record = &st.teamPaymentRecords[len(st.teamPaymentRecords)-1]
		}
		record.ProjectPaymentIDs = append(record.ProjectPaymentIDs, req.PaymentIDs...)
		record.TotalAmount += total

		desc := req.Description
		if desc == "" {
			desc = fmt.Sprintf("Pembayaran fee %s (%s)", memberName, record.RecordNumber)
		}
		tx := models.Transaction{
			ID:                  "TRN-" + s.newID(),
			Date:                date,
			Description:         desc,
			Amount:              -total,
			Type:                models.TransactionExpense,
			Category:            CategoryFreelancerPay,
			Method:              req.Method,
			TeamPaymentRecordID: record.ID,
			PocketID:            req.PocketID,
		}
		if len(req.PaymentIDs) == 1 {
			tx.TeamProjectPaymentID = req.PaymentIDs[0]
		}

		if req.PocketID != "" {
			i := slices.IndexFunc(st.pockets, func(p models.FinancialPocket) bool { return p.ID == req.PocketID })
			if i < 0 {
				return nil, fmt.Errorf("store: settle: pocket %s: %w", req.PocketID, apperr.ErrNotFound)
			}
			st.pockets[i].Balance += tx.Amount
			pocket := st.pockets[i]
			res.Pocket = &pocket
			touched = append(touched, NamePockets)
		}

		st.transactions = append(st.transactions, tx)
		res.Transaction = tx
		res.Record = record.Clone()
		return touched, nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// nextRecordSeq returns one past the highest trailing sequence of the
// existing record numbers, so numbers stay unique after records are removed.
func nextRecordSeq(records []models.TeamPaymentRecord) int {
	highest := 0
	for _, r := range records {
		i := strings.LastIndexByte(r.RecordNumber, '-')
		if i < 0 {
			continue
		}
		if n, err := strconv.Atoi(r.RecordNumber[i+1:]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
