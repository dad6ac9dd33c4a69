// Package roles loads the role catalog from its JSON config file.
package roles

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/justinvest/justinvest/internal/access"
	"github.com/justinvest/justinvest/internal/shared"
)

type rolePayload struct {
	Name            string              `json:"name" validate:"required"`
	Label           string              `json:"label"`
	Permissions     []string            `json:"permissions" validate:"dive,required"`
	Constraints     []map[string]string `json:"constraints"`
	AllowSelfSignup bool                `json:"allow_self_signup"`
}

type catalogPayload struct {
	Roles []rolePayload `json:"roles" validate:"required,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads, validates, and converts the role catalog. Role names must be
// unique and every constraint must carry a type discriminator; the params map
// passed to the constraint builder is the raw constraint object.
func Load(path string) ([]access.RoleDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roles: read %s: %w", path, err)
	}
	var payload catalogPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("roles: parse %s: %w", path, err)
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: role catalog: %v", shared.ErrValidation, err)
	}

	defs := make([]access.RoleDefinition, 0, len(payload.Roles))
	seen := make(map[string]struct{}, len(payload.Roles))
	for _, role := range payload.Roles {
		if _, dup := seen[role.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate role %q", shared.ErrValidation, role.Name)
		}
		seen[role.Name] = struct{}{}

		label := role.Label
		if label == "" {
			label = role.Name
		}
		constraints := make([]access.ConstraintDefinition, 0, len(role.Constraints))
		for _, rawConstraint := range role.Constraints {
			constraintType := rawConstraint["type"]
			if constraintType == "" {
				return nil, fmt.Errorf("%w: role %q: constraint missing type", shared.ErrValidation, role.Name)
			}
			constraints = append(constraints, access.ConstraintDefinition{Type: constraintType, Params: rawConstraint})
		}
		defs = append(defs, access.RoleDefinition{
			Name:            role.Name,
			Label:           label,
			Permissions:     role.Permissions,
			Constraints:     constraints,
			AllowSelfSignup: role.AllowSelfSignup,
		})
	}
	return defs, nil
}

// Find returns the definition with the given name from a loaded catalog.
func Find(defs []access.RoleDefinition, name string) (access.RoleDefinition, bool) {
	for _, def := range defs {
		if def.Name == name {
			return def, true
		}
	}
	return access.RoleDefinition{}, false
}
