package mcpserver

const guideURI = "vena://console-guide"

// ConsoleGuide tells LLM consumers how the console's views, collections and
// navigation actions fit together.
const ConsoleGuide = `# Vena Console Guide

The console manages clients, projects, the freelance team and finances of
Vena Pictures. All amounts are whole Rupiah.

## Views

| View | Purpose | Writes |
|---|---|---|
| Dashboard | overview | nothing |
| Prospek | client KPI and leads | clients, leads |
| Klien | clients and their invoices | clients, projects, transactions |
| Proyek | projects and team assignment | projects, team-project-payments, transactions |
| Tim | freelancers and payouts | team-members, team-project-payments, team-payment-records, transactions, projects, reward-ledger |
| Keuangan | transactions and pockets | transactions, pockets |
| Kalender | project schedule | projects |
| Paket | packages and add-ons | packages, add-ons |
| Pengaturan | company profile | profile |

## Collections

clients, projects, team-members, transactions, packages, add-ons,
team-project-payments, team-payment-records, pockets, leads, reward-ledger,
and the singleton profile. References between records are plain ids
(e.g. a project's clientId) and are not checked on write.

## Navigation actions

` + "`navigate`" + ` switches the view. With a ` + "`kind`" + ` it also leaves a one-shot
action for the target view, e.g. kind VIEW_PROJECT_DETAILS, entity_id PRJ001,
tab payment. Tabs: info, project, payment, invoice. A newer navigation
replaces an action that was not consumed yet.

## Paying the team

Use ` + "`settle_payments`" + ` rather than editing collections by hand. Transactions
store signed amounts: income is positive, expenses negative. A settlement
writes one expense of category "Gaji Freelancer" for the sum of the fees.
`
