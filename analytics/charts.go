package analytics

import (
	"sort"
	"time"

	"foodbridge/models"

	"github.com/shopspring/decimal"
)

const (
	MaxChartDays  = 365
	TopDonorLimit = 10
)

type DailyPoint struct {
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
	Listings int     `json:"listings"`
}

type CategoryShare struct {
	Category models.Category `json:"category"`
	Quantity float64         `json:"quantity"`
	Listings int             `json:"listings"`
}

type DonorRank struct {
	DonorID   string  `json:"donor_id"`
	DonorName string  `json:"donor_name"`
	TotalKg   float64 `json:"total_kg"`
	Listings  int     `json:"listings"`
}

type Charts struct {
	DonationsOverTime    []DailyPoint    `json:"donations_over_time"`
	CategoryDistribution []CategoryShare `json:"category_distribution"`
	TopDonors            []DonorRank     `json:"top_donors"`
}

// CategoryView selects which listings the category chart covers.
type CategoryView string

const (
	ViewAll       CategoryView = "all"
	ViewDelivered CategoryView = "delivered"
)

func ClampDays(days, def int) int {
	if days < 1 {
		days = def
	}
	if days < 1 {
		days = 1
	}
	if days > MaxChartDays {
		days = MaxChartDays
	}
	return days
}

// DonationsOverTime buckets listing quantity by UTC creation day. It returns
// exactly days points, oldest first, the last one being today.
func DonationsOverTime(listings []models.Listing, now time.Time, days int) []DailyPoint {
	today := now.UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	sums := make([]decimal.Decimal, days)
	counts := make([]int, days)
	for _, l := range listings {
		day := l.CreatedAt.UTC().Truncate(24 * time.Hour)
		if day.Before(start) || day.After(today) {
			continue
		}
		i := int(day.Sub(start).Hours() / 24)
		sums[i] = sums[i].Add(decimal.NewFromFloat(l.Quantity))
		counts[i]++
	}

	points := make([]DailyPoint, days)
	for i := range points {
		points[i] = DailyPoint{
			Date:     start.AddDate(0, 0, i).Format("2006-01-02"),
			Quantity: kg(sums[i]),
			Listings: counts[i],
		}
	}
	return points
}

// CategoryDistribution totals quantity per category in display order,
// leaving out empty categories.
func CategoryDistribution(snap Snapshot, view CategoryView) []CategoryShare {
	var delivered map[string]bool
	if view == ViewDelivered {
		delivered = snap.deliveredListings()
	}
	sums := make(map[models.Category]decimal.Decimal)
	counts := make(map[models.Category]int)
	for _, l := range snap.Listings {
		if delivered != nil && !delivered[l.ID] {
			continue
		}
		c := l.Category
		if !c.Valid() {
			c = models.CategoryOther
		}
		sums[c] = sums[c].Add(decimal.NewFromFloat(l.Quantity))
		counts[c]++
	}

	out := []CategoryShare{}
	for _, c := range models.Categories {
		if counts[c] == 0 {
			continue
		}
		out = append(out, CategoryShare{Category: c, Quantity: kg(sums[c]), Listings: counts[c]})
	}
	return out
}

// TopDonors ranks donors by total listed quantity. Ties go to the donor who
// registered first, then to the lower id; donors without a known
// registration sort after those with one.
func TopDonors(snap Snapshot, limit int) []DonorRank {
	registered := make(map[string]time.Time, len(snap.Users))
	for _, u := range snap.Users {
		registered[u.ID] = u.CreatedAt
	}

	type acc struct {
		rank  DonorRank
		total decimal.Decimal
	}
	byDonor := make(map[string]*acc)
	for _, l := range snap.Listings {
		a, ok := byDonor[l.DonorID]
		if !ok {
			a = &acc{rank: DonorRank{DonorID: l.DonorID, DonorName: l.DonorName}}
			byDonor[l.DonorID] = a
		}
		a.total = a.total.Add(decimal.NewFromFloat(l.Quantity))
		a.rank.Listings++
	}

	ranked := make([]*acc, 0, len(byDonor))
	for _, a := range byDonor {
		ranked = append(ranked, a)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if c := a.total.Cmp(b.total); c != 0 {
			return c > 0
		}
		ta, okA := registered[a.rank.DonorID]
		tb, okB := registered[b.rank.DonorID]
		if okA != okB {
			return okA
		}
		if okA && !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return a.rank.DonorID < b.rank.DonorID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]DonorRank, len(ranked))
	for i, a := range ranked {
		a.rank.TotalKg = kg(a.total)
		out[i] = a.rank
	}
	return out
}

func BuildCharts(snap Snapshot, now time.Time, days int, view CategoryView) Charts {
	return Charts{
		DonationsOverTime:    DonationsOverTime(snap.Listings, now, days),
		CategoryDistribution: CategoryDistribution(snap, view),
		TopDonors:            TopDonors(snap, TopDonorLimit),
	}
}
