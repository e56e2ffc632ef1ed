package store

import "github.com/venapictures/vena/internal/models"

type state struct {
	clients             []models.Client
	projects            []models.Project
	teamMembers         []models.TeamMember
	transactions        []models.Transaction
	packages            []models.Package
	addOns              []models.AddOn
	teamProjectPayments []models.TeamProjectPayment
	teamPaymentRecords  []models.TeamPaymentRecord
	pockets             []models.FinancialPocket
	leads               []models.Lead
	rewardLedger        []models.RewardLedgerEntry
	profile             models.Profile
}

func stateFromDataset(ds *models.Dataset) state {
	return state{
		clients:             cloneAll(ds.Clients),
		projects:            cloneAll(ds.Projects),
		teamMembers:         cloneAll(ds.TeamMembers),
		transactions:        cloneAll(ds.Transactions),
		packages:            cloneAll(ds.Packages),
		addOns:              cloneAll(ds.AddOns),
		teamProjectPayments: cloneAll(ds.TeamProjectPayments),
		teamPaymentRecords:  cloneAll(ds.TeamPaymentRecords),
		pockets:             cloneAll(ds.Pockets),
		leads:               cloneAll(ds.Leads),
		rewardLedger:        cloneAll(ds.RewardLedger),
		profile:             ds.Profile.Clone(),
	}
}

func (st state) clone() state {
	return state{
		clients:             cloneAll(st.clients),
		projects:            cloneAll(st.projects),
		teamMembers:         cloneAll(st.teamMembers),
		transactions:        cloneAll(st.transactions),
		packages:            cloneAll(st.packages),
		addOns:              cloneAll(st.addOns),
		teamProjectPayments: cloneAll(st.teamProjectPayments),
		teamPaymentRecords:  cloneAll(st.teamPaymentRecords),
		pockets:             cloneAll(st.pockets),
		leads:               cloneAll(st.leads),
		rewardLedger:        cloneAll(st.rewardLedger),
		profile:             st.profile.Clone(),
	}
}

func (st state) dataset() models.Dataset {
	return models.Dataset{
		Clients:             cloneAll(st.clients),
		Projects:            cloneAll(st.projects),
		TeamMembers:         cloneAll(st.teamMembers),
		Transactions:        cloneAll(st.transactions),
		Packages:            cloneAll(st.packages),
		AddOns:              cloneAll(st.addOns),
		TeamProjectPayments: cloneAll(st.teamProjectPayments),
		TeamPaymentRecords:  cloneAll(st.teamPaymentRecords),
		Pockets:             cloneAll(st.pockets),
		Leads:               cloneAll(st.leads),
		RewardLedger:        cloneAll(st.rewardLedger),
		Profile:             st.profile.Clone(),
	}
}
