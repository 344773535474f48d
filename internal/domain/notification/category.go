package notification

import "time"

// Category groups notifications so each kind can be muted on its own.
type Category string

const (
	CategoryTransactions Category = "transactions"
	CategoryTransfers    Category = "transfers"
	CategoryBills        Category = "bills"
	CategoryBudgets      Category = "budgets"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryTransactions, CategoryTransfers, CategoryBills, CategoryBudgets}

func (c Category) Valid() bool {
	switch c {
	case CategoryTransactions, CategoryTransfers, CategoryBills, CategoryBudgets:
		return true
	}
	return false
}

// Preferences holds a user's per-category toggles. A user with no stored
// row receives everything.
type Preferences struct {
	ID           string    `json:"id,omitempty"`
	UserID       int64     `json:"-"`
	Transactions bool      `json:"transactions"`
	Transfers    bool      `json:"transfers"`
	Bills        bool      `json:"bills"`
	Budgets      bool      `json:"budgets"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DefaultPreferences enables every category.
func DefaultPreferences(userID int64) *Preferences {
	return &Preferences{UserID: userID, Transactions: true, Transfers: true, Bills: true, Budgets: true}
}

// Allows reports whether notifications of category c reach the user.
func (p *Preferences) Allows(c Category) bool {
	switch c {
	case CategoryTransactions:
		return p.Transactions
	case CategoryTransfers:
		return p.Transfers
	case CategoryBills:
		return p.Bills
	case CategoryBudgets:
		return p.Budgets
	}
	return false
}

// PreferenceUpdate is a partial update; nil fields keep their value.
type PreferenceUpdate struct {
	Transactions *bool `json:"transactions,omitempty"`
	Transfers    *bool `json:"transfers,omitempty"`
	Bills        *bool `json:"bills,omitempty"`
	Budgets      *bool `json:"budgets,omitempty"`
}

func (u PreferenceUpdate) Apply(p *Preferences) {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Transactions, u.Transactions)
	set(&p.Transfers, u.Transfers)
	set(&p.Bills, u.Bills)
	set(&p.Budgets, u.Budgets)
}
