// Package models defines the domain types for the Vena console.
package models

import (
	"slices"
	"time"
)

// Record is implemented by every collection element.
type Record[T any] interface {
	RecordID() string
	Clone() T
}

// ClientStatus is the lifecycle status of a client.
type ClientStatus string

const (
	ClientProspect ClientStatus = "Prospek"
	ClientActive   ClientStatus = "Aktif"
	ClientInactive ClientStatus = "Tidak Aktif"
	ClientLost     ClientStatus = "Hilang"
)

// Client is a customer of the company, independent of the Lead that may have produced it.
type Client struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Email       string       `json:"email" yaml:"email"`
	Phone       string       `json:"phone" yaml:"phone"`
	Instagram   string       `json:"instagram,omitempty" yaml:"instagram"`
	Status      ClientStatus `json:"status" yaml:"status"`
	ClientType  string       `json:"clientType" yaml:"client_type"`
	Since       time.Time    `json:"since" yaml:"since"`
	LastContact time.Time    `json:"lastContact" yaml:"last_contact"`
}

func (c Client) RecordID() string { return c.ID }
func (c Client) Clone() Client    { return c }

// PaymentStatus describes how much of a project has been paid.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Lunas"
	PaymentPartial PaymentStatus = "DP Terbayar"
	PaymentUnpaid  PaymentStatus = "Belum Bayar"
)

// AssignedTeamMember is a team member booked on a project.
type AssignedTeamMember struct {
	MemberID string `json:"memberId" yaml:"member_id"`
	Name     string `json:"name" yaml:"name"`
	Role     string `json:"role" yaml:"role"`
	Fee      int64  `json:"fee" yaml:"fee"`
	Reward   int64  `json:"reward,omitempty" yaml:"reward"`
}

// Project is a job delivered for exactly one client.
// TotalCost and AmountPaid are maintained by the views that write transactions.
type Project struct {
	ID            string               `json:"id" yaml:"id"`
	ProjectName   string               `json:"projectName" yaml:"project_name"`
	ClientID      string               `json:"clientId" yaml:"client_id"`
	ClientName    string               `json:"clientName" yaml:"client_name"`
	ProjectType   string               `json:"projectType" yaml:"project_type"`
	PackageID     string               `json:"packageId" yaml:"package_id"`
	PackageName   string               `json:"packageName" yaml:"package_name"`
	AddOnIDs      []string             `json:"addOnIds" yaml:"add_on_ids"`
	Date          time.Time            `json:"date" yaml:"date"`
	Location      string               `json:"location" yaml:"location"`
	Status        string               `json:"status" yaml:"status"`
	Progress      int                  `json:"progress" yaml:"progress"`
	TotalCost     int64                `json:"totalCost" yaml:"total_cost"`
	AmountPaid    int64                `json:"amountPaid" yaml:"amount_paid"`
	PaymentStatus PaymentStatus        `json:"paymentStatus" yaml:"payment_status"`
	Team          []AssignedTeamMember `json:"team" yaml:"team"`
	Notes         string               `json:"notes,omitempty" yaml:"notes"`
}

func (p Project) RecordID() string { return p.ID }

func (p Project) Clone() Project {
	p.AddOnIDs = slices.Clone(p.AddOnIDs)
	p.Team = slices.Clone(p.Team)
	return p
}

// TeamMember is a freelancer or staff member.
type TeamMember struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Role          string  `json:"role" yaml:"role"`
	Email         string  `json:"email" yaml:"email"`
	Phone         string  `json:"phone" yaml:"phone"`
	StandardFee   int64   `json:"standardFee" yaml:"standard_fee"`
	BankAccount   string  `json:"bankAccount,omitempty" yaml:"bank_account"`
	RewardBalance int64   `json:"rewardBalance" yaml:"reward_balance"`
	Rating        float64 `json:"rating" yaml:"rating"`
}

func (m TeamMember) RecordID() string  { return m.ID }
func (m TeamMember) Clone() TeamMember { return m }

// TransactionType separates income from expense.
type TransactionType string

const (
	TransactionIncome  TransactionType = "Pemasukan"
	TransactionExpense TransactionType = "Pengeluaran"
)

// Transaction is a signed money movement. Income is positive, expense negative.
type Transaction struct {
	ID                   string          `json:"id" yaml:"id"`
	Date                 time.Time       `json:"date" yaml:"date"`
	Description          string          `json:"description" yaml:"description"`
	Amount               int64           `json:"amount" yaml:"amount"`
	Type                 TransactionType `json:"type" yaml:"type"`
	Category             string          `json:"category" yaml:"category"`
	Method               string          `json:"method,omitempty" yaml:"method"`
	ProjectID            string          `json:"projectId,omitempty" yaml:"project_id"`
	TeamProjectPaymentID string          `json:"teamProjectPaymentId,omitempty" yaml:"team_project_payment_id"`
	TeamPaymentRecordID  string          `json:"teamPaymentRecordId,omitempty" yaml:"team_payment_record_id"`
	PocketID             string          `json:"pocketId,omitempty" yaml:"pocket_id"`
}

func (t Transaction) RecordID() string   { return t.ID }
func (t Transaction) Clone() Transaction { return t }

// Package is a sellable service bundle.
type Package struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Price         int64    `json:"price" yaml:"price"`
	Description   string   `json:"description,omitempty" yaml:"description"`
	DigitalItems  []string `json:"digitalItems" yaml:"digital_items"`
	PhysicalItems []string `json:"physicalItems" yaml:"physical_items"`
}

func (p Package) RecordID() string { return p.ID }

func (p Package) Clone() Package {
	p.DigitalItems = slices.Clone(p.DigitalItems)
	p.PhysicalItems = slices.Clone(p.PhysicalItems)
	return p
}

// AddOn is an optional extra sold on top of a package.
type AddOn struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Price int64  `json:"price" yaml:"price"`
}

func (a AddOn) RecordID() string { return a.ID }
func (a AddOn) Clone() AddOn     { return a }

// ObligationStatus is the settlement state of a TeamProjectPayment.
type ObligationStatus string

const (
	ObligationPaid   ObligationStatus = "Paid"
	ObligationUnpaid ObligationStatus = "Unpaid"
)

// TeamProjectPayment is what the company owes a team member for one project.
type TeamProjectPayment struct {
	ID             string           `json:"id" yaml:"id"`
	ProjectID      string           `json:"projectId" yaml:"project_id"`
	TeamMemberID   string           `json:"teamMemberId" yaml:"team_member_id"`
	TeamMemberName string           `json:"teamMemberName" yaml:"team_member_name"`
	Date           time.Time        `json:"date" yaml:"date"`
	Status         ObligationStatus `json:"status" yaml:"status"`
	Fee            int64            `json:"fee" yaml:"fee"`
	Reward         int64            `json:"reward,omitempty" yaml:"reward"`
}

func (p TeamProjectPayment) RecordID() string          { return p.ID }
func (p TeamProjectPayment) Clone() TeamProjectPayment { return p }

// TeamPaymentRecord is an executed payout that may settle several obligations.
type TeamPaymentRecord struct {
	ID                string    `json:"id" yaml:"id"`
	RecordNumber      string    `json:"recordNumber" yaml:"record_number"`
	TeamMemberID      string    `json:"teamMemberId" yaml:"team_member_id"`
	Date              time.Time `json:"date" yaml:"date"`
	ProjectPaymentIDs []string  `json:"projectPaymentIds" yaml:"project_payment_ids"`
	TotalAmount       int64     `json:"totalAmount" yaml:"total_amount"`
}

func (r TeamPaymentRecord) RecordID() string { return r.ID }

func (r TeamPaymentRecord) Clone() TeamPaymentRecord {
	r.ProjectPaymentIDs = slices.Clone(r.ProjectPaymentIDs)
	return r
}

// FinancialPocket is a named money bucket with a running balance.
type FinancialPocket struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
	Type        string `json:"type" yaml:"type"`
	Balance     int64  `json:"balance" yaml:"balance"`
	GoalAmount  int64  `json:"goalAmount,omitempty" yaml:"goal_amount"`
}

func (p FinancialPocket) RecordID() string       { return p.ID }
func (p FinancialPocket) Clone() FinancialPocket { return p }

// Lead is a prospect, usually submitted through the public suggestion form.
type Lead struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	ContactChannel string    `json:"contactChannel" yaml:"contact_channel"`
	Location       string    `json:"location" yaml:"location"`
	Status         string    `json:"status" yaml:"status"`
	Date           time.Time `json:"date" yaml:"date"`
	Notes          string    `json:"notes,omitempty" yaml:"notes"`
}

func (l Lead) RecordID() string { return l.ID }
func (l Lead) Clone() Lead      { return l }

// RewardLedgerEntry accrues reward points against a team member, optionally for a lead.
type RewardLedgerEntry struct {
	ID           string    `json:"id" yaml:"id"`
	TeamMemberID string    `json:"teamMemberId" yaml:"team_member_id"`
	LeadID       string    `json:"leadId,omitempty" yaml:"lead_id"`
	ProjectID    string    `json:"projectId,omitempty" yaml:"project_id"`
	Date         time.Time `json:"date" yaml:"date"`
	Description  string    `json:"description" yaml:"description"`
	Amount       int64     `json:"amount" yaml:"amount"`
}

func (e RewardLedgerEntry) RecordID() string         { return e.ID }
func (e RewardLedgerEntry) Clone() RewardLedgerEntry { return e }

// Profile is the singleton company profile.
type Profile struct {
	FullName          string   `json:"fullName" yaml:"full_name"`
	Email             string   `json:"email" yaml:"email"`
	Phone             string   `json:"phone" yaml:"phone"`
	CompanyName       string   `json:"companyName" yaml:"company_name"`
	Website           string   `json:"website,omitempty" yaml:"website"`
	Address           string   `json:"address,omitempty" yaml:"address"`
	BankAccount       string   `json:"bankAccount,omitempty" yaml:"bank_account"`
	IncomeCategories  []string `json:"incomeCategories" yaml:"income_categories"`
	ExpenseCategories []string `json:"expenseCategories" yaml:"expense_categories"`
	ProjectTypes      []string `json:"projectTypes" yaml:"project_types"`
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	p.IncomeCategories = slices.Clone(p.IncomeCategories)
	p.ExpenseCategories = slices.Clone(p.ExpenseCategories)
	p.ProjectTypes = slices.Clone(p.ProjectTypes)
	return p
}

// Dataset is the full set of collections plus the profile singleton.
type Dataset struct {
	Clients             []Client             `json:"clients" yaml:"clients"`
	Projects            []Project            `json:"projects" yaml:"projects"`
	TeamMembers         []TeamMember         `json:"teamMembers" yaml:"team_members"`
	Transactions        []Transaction        `json:"transactions" yaml:"transactions"`
	Packages            []Package            `json:"packages" yaml:"packages"`
	AddOns              []AddOn              `json:"addOns" yaml:"add_ons"`
	TeamProjectPayments []TeamProjectPayment `json:"teamProjectPayments" yaml:"team_project_payments"`
	TeamPaymentRecords  []TeamPaymentRecord  `json:"teamPaymentRecords" yaml:"team_payment_records"`
	Pockets             []FinancialPocket    `json:"pockets" yaml:"pockets"`
	Leads               []Lead               `json:"leads" yaml:"leads"`
	RewardLedger        []RewardLedgerEntry  `json:"rewardLedger" yaml:"reward_ledger"`
	Profile             Profile              `json:"profile" yaml:"profile"`
}
