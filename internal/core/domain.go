package core

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	PurposeFamily     Purpose = "Family"
	PurposeSupport    Purpose = "Support"
	PurposeInvestment Purpose = "Investment"
	PurposeOther      Purpose = "Other"

	MethodRemitly      TransferMethod = "Remitly"
	MethodWesternUnion TransferMethod = "Western Union"
	MethodWise         TransferMethod = "Wise"
	MethodBankTransfer TransferMethod = "Bank Transfer"
	MethodOther        TransferMethod = "Other"

	CategoryCar        ExpenseCategory = "Car"
	CategoryTax        ExpenseCategory = "Tax"
	CategoryInvestment ExpenseCategory = "Investment"
	CategoryPersonal   ExpenseCategory = "Personal"
	CategoryOther      ExpenseCategory = "Other"

	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
	TypeOwesMe  TransactionType = "owes_me"
	TypeIOwe    TransactionType = "i_owe"

	USD Currency = "USD"
	INR Currency = "INR"

	DebtPending DebtStatus = "pending"
	DebtPartial DebtStatus = "partial"
	DebtSettled DebtStatus = "settled"
)

type (
	Purpose         string
	TransferMethod  string
	ExpenseCategory string
	TransactionType string
	Currency        string
	DebtStatus      string

	// MonthlyPeriod is the salary record of one calendar month. Every other
	// record hangs off a period through MonthlyPeriodID.
	MonthlyPeriod struct {
		ID                    string          `json:"id"`
		Month                 int             `json:"month"` // 1-12
		Year                  int             `json:"year"`
		DaysWorked            int             `json:"days_worked"`
		TotalSalaryUSD        decimal.Decimal `json:"total_salary_usd"`
		ExchangeRateReference decimal.Decimal `json:"exchange_rate_reference"` // display only
		CreatedAt             time.Time       `json:"created_at"`
	}

	// Remittance is an outbound USD->INR transfer. EffectiveRate is frozen
	// when the record is created.
	Remittance struct {
		ID               string          `json:"id"`
		MonthlyPeriodID  string          `json:"monthly_period_id"`
		AmountUSD        decimal.Decimal `json:"amount_usd"`
		AmountINR        decimal.Decimal `json:"amount_inr"`
		EffectiveRate    decimal.Decimal `json:"effective_rate"`
		Purpose          Purpose         `json:"purpose"`
		TransferMethod   TransferMethod  `json:"transfer_method"`
		RecipientAccount string          `json:"recipient_account,omitempty"`
		Description      string          `json:"description,omitempty"`
		TransferDate     *civil.Date     `json:"transfer_date"`
		CreatedAt        time.Time       `json:"created_at"`
	}

	OtherExpense struct {
		ID              string              `json:"id"`
		MonthlyPeriodID string              `json:"monthly_period_id"`
		Category        ExpenseCategory     `json:"category"`
		AmountUSD       decimal.NullDecimal `json:"amount_usd"`
		AmountINR       decimal.NullDecimal `json:"amount_inr"`
		Description     string              `json:"description"`
		ExpenseDate     *civil.Date         `json:"expense_date"`
		CreatedAt       time.Time           `json:"created_at"`
	}

	// OtherTransaction is a miscellaneous income, expense or debt entry.
	// DebtStatus and ExpectedDate are only set for owes_me and i_owe.
	OtherTransaction struct {
		ID              string              `json:"id"`
		MonthlyPeriodID string              `json:"monthly_period_id"`
		Type            TransactionType     `json:"type"`
		AmountUSD       decimal.NullDecimal `json:"amount_usd"`
		AmountINR       decimal.NullDecimal `json:"amount_inr"`
		Currency        Currency            `json:"currency"`
		Category        string              `json:"category"`
		Description     string              `json:"description"`
		Source          string              `json:"source,omitempty"`
		Notes           string              `json:"notes,omitempty"`
		TransactionDate *civil.Date         `json:"transaction_date"`
		DebtStatus      DebtStatus          `json:"debt_status,omitempty"`
		ExpectedDate    *civil.Date         `json:"expected_date"`
		CreatedAt       time.Time           `json:"created_at"`
	}
)

func (p Purpose) IsValid() bool {
	switch p {
	case PurposeFamily, PurposeSupport, PurposeInvestment, PurposeOther:
		return true
	}
	return false
}

func (m TransferMethod) IsValid() bool {
	switch m {
	case MethodRemitly, MethodWesternUnion, MethodWise, MethodBankTransfer, MethodOther:
		return true
	}
	return false
}

func (c ExpenseCategory) IsValid() bool {
	switch c {
	case CategoryCar, CategoryTax, CategoryInvestment, CategoryPersonal, CategoryOther:
		return true
	}
	return false
}

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeOwesMe, TypeIOwe:
		return true
	}
	return false
}

// IsDebt reports whether the type tracks money owed to or by the user.
func (t TransactionType) IsDebt() bool {
	return t == TypeOwesMe || t == TypeIOwe
}

func (c Currency) IsValid() bool {
	return c == USD || c == INR
}

func (s DebtStatus) IsValid() bool {
	switch s {
	case DebtPending, DebtPartial, DebtSettled:
		return true
	}
	return false
}

// Key returns the (year, month) identity of a period, e.g. "2025-03".
func (p MonthlyPeriod) Key() string {
	return PeriodKey(p.Year, p.Month)
}
