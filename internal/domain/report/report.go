package report

import (
	"sort"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/shopspring/decimal"
)

// CollectionEntry is one EMI record flattened with the client, loan and agent it belongs to.
type CollectionEntry struct {
	ClientID        int64              `json:"clientId"`
	ClientName      string             `json:"clientName"`
	LoanID          int64              `json:"loanId"`
	LoanNumber      string             `json:"loanNumber"`
	RecordID        int64              `json:"recordId"`
	AmountCollected decimal.Decimal    `json:"amountCollected"`
	PaymentMode     loan.PaymentMode   `json:"paymentMode"`
	Status          loan.PaymentStatus `json:"status"`
	AgentID         int64              `json:"agentId"`
	AgentName       string             `json:"agentName"`
	ReceiverName    string             `json:"recieverName,omitempty"`
	Location        loan.Location      `json:"location"`
	Date            time.Time          `json:"date"`
}

type AgentCollections struct {
	AgentID        int64             `json:"agentId"`
	AgentName      string            `json:"agentName"`
	TotalCollected decimal.Decimal   `json:"totalCollected"`
	Count          int               `json:"count"`
	Records        []CollectionEntry `json:"records"`
}

type Defaulter struct {
	ClientID   int64           `json:"clientId"`
	ClientName string          `json:"clientName"`
	LoanID     int64           `json:"loanId"`
	LoanNumber string          `json:"loanNumber"`
	Overdue    decimal.Decimal `json:"overdue"`
	MissedEmis int             `json:"missedEmis"`
}

type Dashboard struct {
	TotalLoanDisbursed   decimal.Decimal `json:"totalLoanDisbursed"`
	TotalAmountRecovered decimal.Decimal `json:"totalAmountRecovered"`
	TotalAmountRemaining decimal.Decimal `json:"totalAmountRemaining"`
	TotalEmisCollected   int             `json:"totalEmisCollected"`
	DefaulterCount       int             `json:"defaulterCount"`
	ClientCount          int             `json:"clientCount"`
	OngoingLoans         int             `json:"ongoingLoans"`
	CompletedLoans       int             `json:"completedLoans"`
	AsOf                 time.Time       `json:"asOf"`
}

func agentNames(agents []*agent.Agent) map[int64]string {
	names := make(map[int64]string, len(agents))
	for _, a := range agents {
		if a != nil {
			names[a.AgentID] = a.Name
		}
	}
	return names
}

func entry(c *client.Client, l *loan.Loan, r *loan.EmiRecord, names map[int64]string) CollectionEntry {
	return CollectionEntry{
		ClientID:        c.ClientID,
		ClientName:      c.Name,
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		RecordID:        r.ID,
		AmountCollected: r.AmountCollected,
		PaymentMode:     r.PaymentMode,
		Status:          r.Status,
		AgentID:         r.CollectedBy,
		AgentName:       names[r.CollectedBy],
		ReceiverName:    r.ReceiverName,
		Location:        r.Location,
		Date:            r.Date,
	}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// eachRecord visits every EMI record of every loan in client order.
func eachRecord(clients []*client.Client, fn func(c *client.Client, l *loan.Loan, r *loan.EmiRecord)) {
	for _, c := range clients {
		if c == nil {
			continue
		}
		for i := range c.Loans {
			l := &c.Loans[i]
			for j := range l.EmiRecords {
				fn(c, l, &l.EmiRecords[j])
			}
		}
	}
}

// TodaysCollections returns every record dated on asOf's calendar day in loc, oldest first.
func TodaysCollections(clients []*client.Client, agents []*agent.Agent, asOf time.Time, loc *time.Location) []CollectionEntry {
	if loc == nil {
		loc = time.UTC
	}
	names := agentNames(agents)
	entries := []CollectionEntry{}
	eachRecord(clients, func(c *client.Client, l *loan.Loan, r *loan.EmiRecord) {
		if sameDay(r.Date, asOf, loc) {
			entries = append(entries, entry(c, l, r, names))
		}
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}

// AgentTotals sums every record authored by agentID.
func AgentTotals(clients []*client.Client, agents []*agent.Agent, agentID int64) AgentCollections {
	names := agentNames(agents)
	totals := AgentCollections{AgentID: agentID, AgentName: names[agentID], TotalCollected: decimal.Zero, Records: []CollectionEntry{}}
	eachRecord(clients, func(c *client.Client, l *loan.Loan, r *loan.EmiRecord) {
		if r.CollectedBy != agentID {
			return
		}
		totals.TotalCollected = totals.TotalCollected.Add(r.AmountCollected)
		totals.Count++
		totals.Records = append(totals.Records, entry(c, l, r, names))
	})
	return totals
}

// AllAgentTotals covers every agent that authored at least one record, ordered by agent id.
func AllAgentTotals(clients []*client.Client, agents []*agent.Agent) []AgentCollections {
	names := agentNames(agents)
	byAgent := map[int64]*AgentCollections{}
	eachRecord(clients, func(c *client.Client, l *loan.Loan, r *loan.EmiRecord) {
		t, ok := byAgent[r.CollectedBy]
		if !ok {
			t = &AgentCollections{AgentID: r.CollectedBy, AgentName: names[r.CollectedBy], TotalCollected: decimal.Zero, Records: []CollectionEntry{}}
			byAgent[r.CollectedBy] = t
		}
		t.TotalCollected = t.TotalCollected.Add(r.AmountCollected)
		t.Count++
		t.Records = append(t.Records, entry(c, l, r, names))
	})

	result := make([]AgentCollections, 0, len(byAgent))
	for _, t := range byAgent {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AgentID < result[j].AgentID })
	return result
}

// DefaulterSet holds only clients with at least one loan in default.
func DefaulterSet(clients []*client.Client, asOf time.Time) map[int64]bool {
	set := map[int64]bool{}
	for _, c := range clients {
		if c == nil {
			continue
		}
		for i := range c.Loans {
			if loan.IsInDefault(&c.Loans[i], asOf) {
				set[c.ClientID] = true
				break
			}
		}
	}
	return set
}

// Defaulters lists each loan in default with its shortfall, ordered by client then loan.
func Defaulters(clients []*client.Client, asOf time.Time) []Defaulter {
	list := []Defaulter{}
	for _, c := range clients {
		if c == nil {
			continue
		}
		for i := range c.Loans {
			l := &c.Loans[i]
			if !loan.IsInDefault(l, asOf) {
				continue
			}
			list = append(list, Defaulter{
				ClientID:   c.ClientID,
				ClientName: c.Name,
				LoanID:     l.ID,
				LoanNumber: l.LoanNumber,
				Overdue:    loan.Overdue(l, asOf),
				MissedEmis: loan.MissedEmis(l, asOf),
			})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ClientID != list[j].ClientID {
			return list[i].ClientID < list[j].ClientID
		}
		return list[i].LoanID < list[j].LoanID
	})
	return list
}

func BuildDashboard(clients []*client.Client, asOf time.Time) Dashboard {
	d := Dashboard{
		TotalLoanDisbursed:   decimal.Zero,
		TotalAmountRecovered: decimal.Zero,
		TotalAmountRemaining: decimal.Zero,
		AsOf:                 asOf,
	}
	for _, c := range clients {
		if c == nil {
			continue
		}
		d.ClientCount++
		for i := range c.Loans {
			l := &c.Loans[i]
			d.TotalLoanDisbursed = d.TotalLoanDisbursed.Add(l.DisbursedAmount)
			d.TotalAmountRecovered = d.TotalAmountRecovered.Add(l.TotalCollected)
			d.TotalAmountRemaining = d.TotalAmountRemaining.Add(l.TotalAmountLeft)
			d.TotalEmisCollected += len(l.EmiRecords)
			if l.ResolveStatus() == loan.StatusCompleted {
				d.CompletedLoans++
			} else {
				d.OngoingLoans++
			}
		}
	}
	d.DefaulterCount = len(DefaulterSet(clients, asOf))
	return d
}
