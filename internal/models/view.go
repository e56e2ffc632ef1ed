package models

// ViewType identifies a top-level feature view of the authenticated shell.
type ViewType string

const (
	ViewDashboard ViewType = "Dashboard"
	ViewClientKPI ViewType = "Prospek"
	ViewClients   ViewType = "Klien"
	ViewProjects  ViewType = "Proyek"
	ViewTeam      ViewType = "Tim"
	ViewFinance   ViewType = "Keuangan"
	ViewCalendar  ViewType = "Kalender"
	ViewPackages  ViewType = "Paket"
	ViewSettings  ViewType = "Pengaturan"
)

// Views lists every view in sidebar order.
var Views = []ViewType{
	ViewDashboard,
	ViewClientKPI,
	ViewClients,
	ViewProjects,
	ViewTeam,
	ViewFinance,
	ViewCalendar,
	ViewPackages,
	ViewSettings,
}

// Valid reports whether v is a known view.
func (v ViewType) Valid() bool {
	for _, known := range Views {
		if v == known {
			return true
		}
	}
	return false
}

// Tab is a sub-tab inside an entity detail panel.
type Tab string

const (
	TabInfo    Tab = "info"
	TabProject Tab = "project"
	TabPayment Tab = "payment"
	TabInvoice Tab = "invoice"
)

// Valid reports whether t is empty or a known tab.
func (t Tab) Valid() bool {
	switch t {
	case "", TabInfo, TabProject, TabPayment, TabInvoice:
		return true
	}
	return false
}

// NavigationAction asks the target view to open an entity, optionally at a sub-tab.
type NavigationAction struct {
	Kind       string   `json:"kind"`
	TargetView ViewType `json:"targetView"`
	EntityID   string   `json:"entityId,omitempty"`
	Tab        Tab      `json:"tab,omitempty"`
}
