package auth

import "github.com/justinvest/justinvest/internal/ops"

// Result describes a successful login.
type Result struct {
	Username              string
	RoleName              string
	RoleLabel             string
	AllowedOperationCodes []string
}

// AllowedOperationLabels resolves the permitted codes against the operation
// catalog, skipping codes the catalog no longer knows.
func (r Result) AllowedOperationLabels() []string {
	labels := make([]string, 0, len(r.AllowedOperationCodes))
	for _, code := range r.AllowedOperationCodes {
		if op, ok := ops.ByCode[code]; ok {
			labels = append(labels, op.Label)
		}
	}
	return labels
}
