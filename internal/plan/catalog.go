package plan

import "github.com/shopspring/decimal"

// Application id constants
const (
	AppOrganizations = "organizations"
	AppMemberships   = "memberships"
	AppReporting     = "reporting"
	AppAuditTrail    = "audit-trail"
)

// ApplicationGrant describes the access one plan gives to one application.
type ApplicationGrant struct {
	ApplicationID string
	Modules       []string
	MaxUsers      *int // nil means unlimited
}

// Plan is a subscription tier with its application/module access matrix.
// The catalog is a pure input to the entitlement reconciler.
type Plan struct {
	Name         string
	MonthlyPrice decimal.Decimal
	Applications []ApplicationGrant
}

// Grants indexes the plan's applications by id.
func (p Plan) Grants() map[string]ApplicationGrant {
	m := make(map[string]ApplicationGrant, len(p.Applications))
	for _, a := range p.Applications {
		m[a.ApplicationID] = a
	}
	return m
}

func intPtr(v int) *int { return &v }

const (
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

var catalog = map[string]Plan{
	TierStarter: {
		Name:         TierStarter,
		MonthlyPrice: decimal.NewFromInt(0),
		Applications: []ApplicationGrant{
			{ApplicationID: AppOrganizations, Modules: []string{"tree", "units"}, MaxUsers: intPtr(10)},
			{ApplicationID: AppMemberships, Modules: []string{"assignments"}, MaxUsers: intPtr(10)},
		},
	},
	TierProfessional: {
		Name:         TierProfessional,
		MonthlyPrice: decimal.NewFromInt(49),
		Applications: []ApplicationGrant{
			{ApplicationID: AppOrganizations, Modules: []string{"tree", "units", "bulk"}, MaxUsers: intPtr(100)},
			{ApplicationID: AppMemberships, Modules: []string{"assignments", "roles"}, MaxUsers: intPtr(100)},
			{ApplicationID: AppReporting, Modules: []string{"exports"}, MaxUsers: intPtr(100)},
		},
	},
	TierEnterprise: {
		Name:         TierEnterprise,
		MonthlyPrice: decimal.NewFromInt(199),
		Applications: []ApplicationGrant{
			{ApplicationID: AppOrganizations, Modules: []string{"tree", "units", "bulk"}},
			{ApplicationID: AppMemberships, Modules: []string{"assignments", "roles"}},
			{ApplicationID: AppReporting, Modules: []string{"exports", "dashboards"}},
			{ApplicationID: AppAuditTrail, Modules: []string{"history"}},
		},
	},
}

// Lookup resolves a plan by tier name.
func Lookup(name string) (Plan, bool) {
	p, ok := catalog[name]
	return p, ok
}

// Names lists the known tier names.
func Names() []string {
	return []string{TierStarter, TierProfessional, TierEnterprise}
}
