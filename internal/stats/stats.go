package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/wolfman30/mediassist/internal/booking"
)

const (
	// TopDepartmentsLimit caps the department ranking.
	TopDepartmentsLimit = 4

	defaultDepartment = "General"

	StatusActionRequired = "Action Required"
	StatusStable         = "Stable"
)

// DepartmentCount is one bucket of the department distribution.
type DepartmentCount struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Stats is derived from a ledger snapshot and never stored.
type Stats struct {
	Total              int               `json:"total"`
	Active             int               `json:"active"`
	Cancelled          int               `json:"cancelled"`
	HighPriorityActive int               `json:"high_priority_active"`
	TopDepartments     []DepartmentCount `json:"top_departments"`
}

// Compute derives Stats from records in ledger order (newest-first).
func Compute(records []booking.Record) Stats {
	s := Stats{Total: len(records)}

	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if rec.IsCancelled() {
			continue
		}
		s.Active++
		if rec.IsHighPriority() {
			s.HighPriorityActive++
		}
		dept := strings.TrimSpace(rec.Department)
		if dept == "" {
			dept = defaultDepartment
		}
		if _, seen := counts[dept]; !seen {
			order = append(order, dept)
		}
		counts[dept]++
	}
	s.Cancelled = s.Total - s.Active

	// Stable sort keeps first-encounter order for ties.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > TopDepartmentsLimit {
		order = order[:TopDepartmentsLimit]
	}

	s.TopDepartments = make([]DepartmentCount, 0, len(order))
	for _, name := range order {
		s.TopDepartments = append(s.TopDepartments, DepartmentCount{
			Name:    name,
			Count:   counts[name],
			Percent: s.Percent(counts[name]),
		})
	}
	return s
}

// Percent expresses count as a rounded share of active bookings.
func (s Stats) Percent(count int) int {
	denominator := s.Active
	if denominator < 1 {
		denominator = 1
	}
	return int(math.Round(float64(count) / float64(denominator) * 100))
}

// Status is the dashboard headline: urgent active bookings need attention.
func (s Stats) Status() string {
	if s.HighPriorityActive > 0 {
		return StatusActionRequired
	}
	return StatusStable
}
