// Package ops holds the fixed catalog of business operations the system
// exposes. The catalog is ordered, known at build time, and not user-editable.
package ops

import (
	"fmt"
	"strings"
)

// Operation is one entry in the operation catalog.
type Operation struct {
	Code        string
	Label       string
	Description string
}

// All lists every operation in display order.
var All = []Operation{
	{
		Code:        "VIEW_ACCOUNT_BALANCE",
		Label:       "View account balance",
		Description: "Display the latest balance for the authenticated client's account.",
	},
	{
		Code:        "VIEW_INVESTMENT_PORTFOLIO",
		Label:       "View investment portfolio",
		Description: "Display holdings and allocations for the authenticated client's portfolio.",
	},
	{
		Code:        "MODIFY_INVESTMENT_PORTFOLIO",
		Label:       "Modify investment portfolio",
		Description: "Create or update investment allocations for a client.",
	},
	{
		Code:        "VIEW_FINANCIAL_ADVISOR_CONTACT",
		Label:       "View Financial Advisor contact info",
		Description: "Display contact information for the assigned Financial Advisor.",
	},
	{
		Code:        "VIEW_FINANCIAL_PLANNER_CONTACT",
		Label:       "View Financial Planner contact info",
		Description: "Display contact information for the assigned Financial Planner.",
	},
	{
		Code:        "VIEW_MONEY_MARKET_INSTRUMENTS",
		Label:       "View money market instruments",
		Description: "Display available money market instruments.",
	},
	{
		Code:        "VIEW_PRIVATE_CONSUMER_INSTRUMENTS",
		Label:       "View private consumer instruments",
		Description: "Display private consumer instruments available to advisors/planners.",
	},
}

// ByCode indexes the catalog by operation code.
var ByCode = func() map[string]Operation {
	index := make(map[string]Operation, len(All))
	for _, op := range All {
		index[op.Code] = op
	}
	return index
}()

// Menu renders the numbered operations menu shown by the CLI.
func Menu() string {
	lines := []string{"Operations available on the system:"}
	for i, op := range All {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, op.Label))
	}
	return strings.Join(lines, "\n")
}
