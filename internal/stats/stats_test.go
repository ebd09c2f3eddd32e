package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/mediassist/internal/booking"
)

func rec(dept string, status booking.Status, priority booking.Priority) booking.Record {
	return booking.Record{
		Status:      status,
		PatientName: "p",
		Department:  dept,
		Time:        "t",
		Priority:    priority,
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.Active)
	assert.Equal(t, 0, s.Cancelled)
	assert.Empty(t, s.TopDepartments)
	assert.Equal(t, StatusStable, s.Status())
	assert.Equal(t, 0, s.Percent(0))
}

func TestCompute_Counts(t *testing.T) {
	records := []booking.Record{
		rec("Cardiology", booking.StatusConfirmed, booking.PriorityHigh),
		rec("Cardiology", booking.StatusCancelled, booking.PriorityHigh),
		rec("ENT", booking.StatusPendingCallback, booking.PriorityNormal),
		rec("ENT", "rescheduled", ""),
		rec("Dermatology", booking.StatusCancelled, booking.PriorityNormal),
	}

	s := Compute(records)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.Active)
	assert.Equal(t, 2, s.Cancelled)
	assert.Equal(t, 1, s.HighPriorityActive)
	assert.Equal(t, s.Total, s.Active+s.Cancelled)
	assert.Equal(t, StatusActionRequired, s.Status())
}

func TestCompute_DepartmentRanking(t *testing.T) {
	records := []booking.Record{
		rec("Cardiology", booking.StatusConfirmed, booking.PriorityNormal),
		rec("Cardiology", booking.StatusConfirmed, booking.PriorityNormal),
		rec("Dermatology", booking.StatusConfirmed, booking.PriorityNormal),
	}

	s := Compute(records)

	require.Len(t, s.TopDepartments, 2)
	assert.Equal(t, DepartmentCount{Name: "Cardiology", Count: 2, Percent: 67}, s.TopDepartments[0])
	assert.Equal(t, DepartmentCount{Name: "Dermatology", Count: 1, Percent: 33}, s.TopDepartments[1])
}

func TestCompute_TiesKeepEncounterOrderAndLimit(t *testing.T) {
	records := []booking.Record{
		rec("Ophthalmology", booking.StatusConfirmed, ""),
		rec("", booking.StatusConfirmed, ""),
		rec("Pediatrics", booking.StatusConfirmed, ""),
		rec("ENT", booking.StatusConfirmed, ""),
		rec("Dermatology", booking.StatusConfirmed, ""),
		rec("Dermatology", booking.StatusConfirmed, ""),
		rec("Cardiology", booking.StatusCancelled, ""),
	}

	s := Compute(records)

	names := make([]string, 0, len(s.TopDepartments))
	for _, d := range s.TopDepartments {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Dermatology", "Ophthalmology", "General", "Pediatrics"}, names)
}

func TestCompute_Idempotent(t *testing.T) {
	records := []booking.Record{
		rec("Cardiology", booking.StatusConfirmed, booking.PriorityHigh),
		rec("ENT", booking.StatusCancelled, ""),
		rec("ENT", booking.StatusConfirmed, ""),
	}

	assert.Equal(t, Compute(records), Compute(records))
}
