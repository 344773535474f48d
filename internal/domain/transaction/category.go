package transaction

import "strings"

// Category names produced by the classifier and by transfer kinds.
const (
	CategoryFood         = "Food"
	CategoryTravel       = "Travel"
	CategoryBills        = "Bills"
	CategoryShopping     = "Shopping"
	CategoryEntertain    = "Entertainment"
	CategoryHealth       = "Health"
	CategoryEducation    = "Education"
	CategoryGroceries    = "Groceries"
	CategoryRent         = "Rent"
	CategoryIncome       = "Income"
	CategoryPayments     = "Payments"
	CategoryTransfers    = "Transfers"
	CategorySelfTransfer = "Self Transfer"
	CategoryReversal     = "Reversal"
	CategoryOthers       = "Others"
)

// Rule maps any of its keywords to a category.
type Rule struct {
	Category string
	Keywords []string
}

// Rules is the ordered rule table used by Classify. Keywords are lower
// case; the first rule with a matching keyword wins.
var Rules = []Rule{
	{CategoryBills, []string{"bill", "electricity", "water", "gas", "broadband", "recharge", "postpaid", "dth", "insurance premium"}},
	{CategoryFood, []string{"food", "restaurant", "cafe", "swiggy", "zomato", "dinner", "lunch", "pizza"}},
	{CategoryGroceries, []string{"grocery", "groceries", "supermarket", "bigbasket", "blinkit", "vegetables"}},
	{CategoryRent, []string{"rent", "landlord", "maintenance"}},
	{CategoryTravel, []string{"uber", "ola", "taxi", "metro", "flight", "train", "irctc", "fuel", "petrol"}},
	{CategoryShopping, []string{"amazon", "flipkart", "myntra", "shopping", "mall"}},
	{CategoryEntertain, []string{"movie", "netflix", "spotify", "concert", "prime video"}},
	{CategoryHealth, []string{"pharmacy", "hospital", "doctor", "medical", "clinic"}},
	{CategoryEducation, []string{"school", "college", "tuition", "course", "books"}},
	{CategoryIncome, []string{"salary", "payroll", "interest", "dividend", "refund", "cashback"}},
}

// Classify returns the category for a free-text description using Rules.
// Matching is a case-insensitive substring test.
func Classify(description string) string {
	d := strings.ToLower(description)
	if strings.TrimSpace(d) == "" {
		return CategoryOthers
	}
	for _, rule := range Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(d, kw) {
				return rule.Category
			}
		}
	}
	return CategoryOthers
}

// Resolve returns category when supplied, otherwise the classified one.
func Resolve(category, description string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return Classify(description)
}
