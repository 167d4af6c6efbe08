package domain

// Stats reducers are pure functions over an already-loaded, bounded slice of
// documents.

// ContactStats tallies contacts
type ContactStats struct {
	Total      int                   `json:"total"`
	ByStatus   map[ContactStatus]int `json:"byStatus"`
	ByPriority map[Priority]int      `json:"byPriority"`
}

// ReduceContactStats tallies contacts by status and priority
func ReduceContactStats(contacts []Contact) ContactStats {
	stats := ContactStats{
		ByStatus:   make(map[ContactStatus]int),
		ByPriority: make(map[Priority]int),
	}
	for _, c := range contacts {
		stats.Total++
		stats.ByStatus[c.Status]++
		stats.ByPriority[c.Priority]++
	}
	return stats
}

// RequestStats tallies requests
type RequestStats struct {
	Total          int                     `json:"total"`
	Open           int                     `json:"open"`
	ByStatus       map[RequestStatus]int   `json:"byStatus"`
	ByCategory     map[RequestCategory]int `json:"byCategory"`
	ByPriority     map[Priority]int        `json:"byPriority"`
	EstimatedValue float64                 `json:"estimatedValue"`
	ActualValue    float64                 `json:"actualValue"`
}

// ReduceRequestStats tallies requests by status, category and priority and
// sums their values
func ReduceRequestStats(requests []Request) RequestStats {
	stats := RequestStats{
		ByStatus:   make(map[RequestStatus]int),
		ByCategory: make(map[RequestCategory]int),
		ByPriority: make(map[Priority]int),
	}
	for _, r := range requests {
		stats.Total++
		if !r.Status.IsClosed() {
			stats.Open++
		}
		stats.ByStatus[r.Status]++
		stats.ByCategory[r.Category]++
		stats.ByPriority[r.Priority]++
		stats.EstimatedValue += r.EstimatedValue
		stats.ActualValue += r.ActualValue
	}
	return stats
}

// CaseStats tallies cases
type CaseStats struct {
	Total       int                `json:"total"`
	Open        int                `json:"open"`
	ByStatus    map[CaseStatus]int `json:"byStatus"`
	QuotedValue float64            `json:"quotedValue"`
	WonValue    float64            `json:"wonValue"`
	Won         int                `json:"won"`
	Lost        int                `json:"lost"`
	WinRate     float64            `json:"winRate"`
}

// ReduceCaseStats tallies cases by status and computes the win rate over
// closed cases
func ReduceCaseStats(list []Case) CaseStats {
	stats := CaseStats{ByStatus: make(map[CaseStatus]int)}
	for _, c := range list {
		stats.Total++
		stats.ByStatus[c.Status]++
		switch c.Status {
		case CaseStatusWon:
			stats.Won++
			stats.WonValue += c.Financials.FinalValue
		case CaseStatusLost:
			stats.Lost++
		default:
			stats.Open++
			stats.QuotedValue += c.Financials.QuotedValue
		}
	}
	if closed := stats.Won + stats.Lost; closed > 0 {
		stats.WinRate = float64(stats.Won) / float64(closed) * 100
	}
	return stats
}

// OrderStats tallies orders
type OrderStats struct {
	Total           int                   `json:"total"`
	ByType          map[OrderType]int     `json:"byType"`
	ByStatus        map[OrderStatus]int   `json:"byStatus"`
	ByPaymentStatus map[PaymentStatus]int `json:"byPaymentStatus"`
	TotalAmount     float64               `json:"totalAmount"`
	PaidAmount      float64               `json:"paidAmount"`
	AverageProgress float64               `json:"averageProgress"`
}

// ReduceOrderStats tallies orders and averages their progress
func ReduceOrderStats(orders []Order) OrderStats {
	stats := OrderStats{
		ByType:          make(map[OrderType]int),
		ByStatus:        make(map[OrderStatus]int),
		ByPaymentStatus: make(map[PaymentStatus]int),
	}
	progress := 0
	for i := range orders {
		o := &orders[i]
		stats.Total++
		stats.ByType[o.Type]++
		stats.ByStatus[o.Status]++
		stats.ByPaymentStatus[o.PaymentStatus]++
		stats.TotalAmount += o.TotalAmount
		stats.PaidAmount += o.PaidAmount
		progress += o.Progress()
	}
	if stats.Total > 0 {
		stats.AverageProgress = float64(progress) / float64(stats.Total)
	}
	return stats
}

// DashboardStats combines every reducer
type DashboardStats struct {
	Contacts  ContactStats `json:"contacts"`
	Requests  RequestStats `json:"requests"`
	Cases     CaseStats    `json:"cases"`
	Orders    OrderStats   `json:"orders"`
	ScanLimit int          `json:"scanLimit"`
}
