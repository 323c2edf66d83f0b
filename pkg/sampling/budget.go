package sampling

// SurveyNetwork is one counting network with its unit price and link quota.
type SurveyNetwork struct {
	Name        string  `json:"name" yaml:"name"`
	Price       float64 `json:"price" yaml:"price"`
	Budget      float64 `json:"budget" yaml:"budget"`
	Quota       int     `json:"quota" yaml:"quota"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// BudgetEstimate totals the survey cost across networks.
type BudgetEstimate struct {
	TotalCost  float64  `json:"total_cost" yaml:"total_cost"`
	TotalQuota int      `json:"total_quota" yaml:"total_quota"`
	OverBudget []string `json:"over_budget,omitempty" yaml:"over_budget,omitempty"`
}

// EstimateBudget sums price × quota over priced networks and the quota over
// all of them. A network is over budget when it has a positive budget that
// its price × quota exceeds.
func EstimateBudget(networks []SurveyNetwork) BudgetEstimate {
	var est BudgetEstimate
	for _, n := range networks {
		est.TotalQuota += n.Quota
		if n.Price <= 0 {
			continue
		}
		cost := n.Price * float64(n.Quota)
		est.TotalCost += cost
		if n.Budget > 0 && cost > n.Budget {
			est.OverBudget = append(est.OverBudget, n.Name)
		}
	}
	return est
}
