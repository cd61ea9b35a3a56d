package billing

// ServiceCost is the cost breakdown for one service within a project
type ServiceCost struct {
	RealCost float64 `json:"real_cost"` // amount actually charged
	ListCost float64 `json:"list_cost"` // list price before discounts
	CashPaid float64 `json:"cash_paid"` // portion paid in cash
}

// ProjectBill is the monthly bill for one project
type ProjectBill struct {
	Total    float64                `json:"total"`
	Services map[string]ServiceCost `json:"services"`
}

// Bill maps project name to its monthly bill
type Bill map[string]ProjectBill

// DefaultProject is the label used for costs not attributed to a project.
const DefaultProject = "default project"

// BalanceProject and BalanceService key the synthetic row that carries the
// account balance in the billing table.
const (
	BalanceProject = "system"
	BalanceService = "account-balance"
)
