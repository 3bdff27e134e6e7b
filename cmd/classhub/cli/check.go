package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/coder/serpent"

	"github.com/classhub/classhub/internal/rbac"
)

// ErrCheckDenied is returned when the evaluated role does not satisfy the
// requirement.
var ErrCheckDenied = errors.New("check: denied")

// CheckOptions describes an offline evaluation against role defaults.
type CheckOptions struct {
	Role        string
	RequireRole string
	Permissions []string
	AnyOf       bool
	Stdout      io.Writer
}

// CheckCommand evaluates a requirement against a role's default permissions
// without touching storage. Useful when reviewing catalog changes.
func CheckCommand() *serpent.Command {
	var opts CheckOptions
	return &serpent.Command{
		Use:   "check",
		Short: "Evaluate a requirement against a role's default permissions",
		Options: serpent.OptionSet{
			{
				Name:        "role",
				Description: "Role to evaluate.",
				Flag:        "role",
				Required:    true,
				Value:       serpent.StringOf(&opts.Role),
			},
			{
				Name:        "require-role",
				Description: "Minimum role the requirement demands.",
				Flag:        "require-role",
				Value:       serpent.StringOf(&opts.RequireRole),
			},
			{
				Name:        "permission",
				Description: "Permission the requirement demands. Repeatable.",
				Flag:        "permission",
				Value:       serpent.StringArrayOf(&opts.Permissions),
			},
			{
				Name:        "any",
				Description: "Accept any one of the permissions instead of all.",
				Flag:        "any",
				Value:       serpent.BoolOf(&opts.AnyOf),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			opts.Stdout = inv.Stdout
			return RunCheck(opts)
		},
	}
}

// RunCheck performs the evaluation and prints one line per outcome.
func RunCheck(opts CheckOptions) error {
	role, err := rbac.ParseRole(opts.Role)
	if err != nil {
		return err
	}
	req, err := buildRequirement(opts)
	if err != nil {
		return err
	}
	principal := rbac.Principal{ID: "cli", Role: role, IsActive: true}
	outcome := req.Evaluate(principal, rbac.RolePermissions(role))
	if outcome.OK {
		_, _ = fmt.Fprintf(opts.Stdout, "allowed: %s satisfies %s\n", role, req)
		return nil
	}
	var missing []string
	for _, r := range outcome.MissingRoles {
		missing = append(missing, "role:"+string(r))
	}
	for _, p := range outcome.MissingPermissions {
		missing = append(missing, string(p))
	}
	_, _ = fmt.Fprintf(opts.Stdout, "denied: %s fails %s (missing %s)\n", role, req, strings.Join(missing, ", "))
	return ErrCheckDenied
}

func buildRequirement(opts CheckOptions) (rbac.Requirement, error) {
	if opts.RequireRole != "" {
		if len(opts.Permissions) > 0 {
			return nil, errors.New("check: use either --require-role or --permission")
		}
		role, err := rbac.ParseRole(opts.RequireRole)
		if err != nil {
			return nil, err
		}
		return rbac.RoleRequirement{Role: role}, nil
	}
	if len(opts.Permissions) == 0 {
		return nil, errors.New("check: --require-role or --permission is required")
	}
	set, err := rbac.ParsePermissions(opts.Permissions)
	if err != nil {
		return nil, err
	}
	perms := set.Slice()
	switch {
	case len(perms) == 1:
		return rbac.PermissionRequirement{Permission: perms[0]}, nil
	case opts.AnyOf:
		return rbac.AnyPermissionRequirement{Permissions: perms}, nil
	default:
		return rbac.AllPermissionsRequirement{Permissions: perms}, nil
	}
}
