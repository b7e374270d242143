package shared

// Role is the closed set of roles recognised by the application. Role
// assignment itself lives in the external backend; this package only decides
// what an already-authenticated role may do.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSalesAdmin Role = "sales_admin"
	RoleWarehouse  Role = "warehouse"
	RoleFinance    Role = "finance"
	RoleViewer     Role = "viewer"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapOrdersView      Capability = "orders.view"
	CapOrdersEdit      Capability = "orders.edit"
	CapDeliveriesView  Capability = "deliveries.view"
	CapDeliveriesEdit  Capability = "deliveries.edit"
	CapReconcileView   Capability = "reconcile.view"
	CapReconcileEdit   Capability = "reconcile.edit"
	CapMasterdataView  Capability = "masterdata.view"
	CapMasterdataEdit  Capability = "masterdata.edit"
	CapFinanceView     Capability = "finance.view"
	CapFinanceEdit     Capability = "finance.edit"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleAdmin: capSet(
		CapOrdersView, CapOrdersEdit, CapDeliveriesView, CapDeliveriesEdit,
		CapReconcileView, CapReconcileEdit, CapMasterdataView, CapMasterdataEdit,
		CapFinanceView, CapFinanceEdit,
	),
	RoleSalesAdmin: capSet(
		CapOrdersView, CapOrdersEdit, CapDeliveriesView,
		CapReconcileView, CapMasterdataView, CapMasterdataEdit,
	),
	RoleWarehouse: capSet(
		CapOrdersView, CapDeliveriesView, CapDeliveriesEdit,
		CapReconcileView, CapReconcileEdit, CapMasterdataView,
	),
	RoleFinance: capSet(
		CapOrdersView, CapDeliveriesView, CapReconcileView,
		CapFinanceView, CapFinanceEdit,
	),
	RoleViewer: capSet(
		CapOrdersView, CapDeliveriesView, CapReconcileView,
		CapMasterdataView, CapFinanceView,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// ValidRole reports whether the role belongs to the closed enum.
func ValidRole(role Role) bool {
	_, ok := roleCapabilities[role]
	return ok
}

// HasCapability is the single authorisation decision point.
func HasCapability(role Role, action Capability) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	_, ok = caps[action]
	return ok
}
