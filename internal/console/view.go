package console

import (
	"fmt"
	"slices"
	"time"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/navigation"
	"github.com/venapictures/vena/internal/store"
)

type capabilities struct {
	reads  []string
	writes []string
}

// viewCapabilities lists which collections each feature view may read and
// replace. A writable collection is also readable.
var viewCapabilities = map[models.ViewType]capabilities{
	models.ViewDashboard: {
		reads: []string{store.NameProjects, store.NameClients, store.NameTransactions, store.NamePockets, store.NamePackages, store.NameLeads},
	},
	models.ViewClients: {
		reads:  []string{store.NamePackages, store.NameAddOns, store.NameProfile},
		writes: []string{store.NameClients, store.NameProjects, store.NameTransactions},
	},
	models.ViewProjects: {
		reads:  []string{store.NameClients, store.NamePackages, store.NameTeamMembers, store.NameProfile},
		writes: []string{store.NameProjects, store.NameTeamProjectPayments, store.NameTransactions},
	},
	models.ViewTeam: {
		reads: []string{store.NameProfile},
		writes: []string{
			store.NameTeamMembers, store.NameTeamProjectPayments, store.NameTeamPaymentRecords,
			store.NameTransactions, store.NameProjects, store.NameRewardLedger,
		},
	},
	models.ViewFinance: {
		reads:  []string{store.NameProjects, store.NameProfile},
		writes: []string{store.NameTransactions, store.NamePockets},
	},
	models.ViewClientKPI: {
		reads:  []string{store.NameProjects},
		writes: []string{store.NameClients, store.NameLeads},
	},
	models.ViewCalendar: {
		reads:  []string{store.NameTeamMembers, store.NameProfile},
		writes: []string{store.NameProjects},
	},
	models.ViewPackages: {
		reads:  []string{store.NameProjects},
		writes: []string{store.NamePackages, store.NameAddOns},
	},
	models.ViewSettings: {
		reads:  []string{store.NameTransactions, store.NameProjects},
		writes: []string{store.NameProfile},
	},
}

// ViewContext is what a feature view receives when it is rendered: its
// store capabilities, the notification capability and the pending action
// addressed to it.
type ViewContext struct {
	View          models.ViewType     `json:"view"`
	Reads         []string            `json:"reads"`
	Writes        []string            `json:"writes"`
	InitialAction *navigation.Pending `json:"initialAction,omitempty"`

	c *Console
}

// View builds the context of view. It does not acknowledge the pending
// action; the view calls ClearAction once it has handled it.
func (c *Console) View(view models.ViewType) (*ViewContext, error) {
	caps, ok := viewCapabilities[view]
	if !ok {
		return nil, fmt.Errorf("console: unknown view %q: %w", view, apperr.ErrValidation)
	}
	vc := &ViewContext{
		View:   view,
		Reads:  append(slices.Clone(caps.writes), caps.reads...),
		Writes: slices.Clone(caps.writes),
		c:      c,
	}
	if p, ok := c.Nav.Pending(view); ok {
		vc.InitialAction = &p
	}
	return vc, nil
}

// Data returns a snapshot of every readable collection keyed by name.
func (v *ViewContext) Data() (map[string]any, error) {
	out := make(map[string]any, len(v.Reads))
	for _, name := range v.Reads {
		items, err := v.c.collections.List(name)
		if err != nil {
			return nil, err
		}
		out[name] = items
	}
	return out, nil
}

// Replace overwrites a collection the view is allowed to write.
func (v *ViewContext) Replace(name string, raw []byte) error {
	if !slices.Contains(v.Writes, name) {
		return fmt.Errorf("console: view %s cannot write %s: %w", v.View, name, apperr.ErrConflict)
	}
	return v.c.collections.ReplaceJSON(name, raw)
}

// ShowNotification publishes a transient message.
func (v *ViewContext) ShowNotification(message string, d time.Duration) (uint64, error) {
	return v.c.ShowNotification(message, d)
}

// ClearAction acknowledges the action this context was built with. It
// reports false when there was none or it has been replaced meanwhile.
func (v *ViewContext) ClearAction() bool {
	if v.InitialAction == nil {
		return false
	}
	return v.c.Nav.Acknowledge(v.InitialAction.ID)
}
