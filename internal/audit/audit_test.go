package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lumos-Labs-HQ/dentseed/internal/seeder"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store/memstore"
	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
)

func rules(r *Report) []string {
	var out []string
	for _, v := range r.Violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestSeededStoreIsClean(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	opts := seeder.DefaultOptions()
	opts.RandomSeed = 31
	require.NoError(t, seeder.New(mem, zap.NewNop()).Run(ctx, opts))

	report, err := Run(ctx, mem)
	require.NoError(t, err)
	assert.True(t, report.OK(), "violations: %v", report.Violations)
	assert.Equal(t, 5, report.Counts[types.TableOffices])
	assert.Equal(t, 20, report.Counts[types.TableGuardians])
}

func TestEmptyStoreIsClean(t *testing.T) {
	report, err := Run(context.Background(), memstore.New())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Zero(t, report.Counts[types.TablePayments])
}

func TestDetectsBrokenRows(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, mem.Insert(ctx, &types.Dentist{OfficeID: 9}))
	require.NoError(t, mem.Insert(ctx, &types.Guardian{}))
	require.NoError(t, mem.Insert(ctx, &types.Patient{GuardianID: 1}))
	require.NoError(t, mem.Insert(ctx, &types.Appointment{PatientID: 1, DentistID: 1}))
	require.NoError(t, mem.Insert(ctx, &types.Appointment{PatientID: 1, DentistID: 1}))
	require.NoError(t, mem.Insert(ctx, &types.Procedure{AppointmentID: 1, StandardCost: 100.00}))
	require.NoError(t, mem.Insert(ctx, &types.Procedure{AppointmentID: 1, StandardCost: 250.50}))

	// Wrong total, discount above 20%, and an unbillable appointment.
	require.NoError(t, mem.Insert(ctx, &types.Invoice{AppointmentID: 1, TotalAmount: 350.00, DiscountAmount: 80.00, InvoiceDate: now}))
	require.NoError(t, mem.Insert(ctx, &types.Invoice{AppointmentID: 2, TotalAmount: 10, InvoiceDate: now}))

	// Overpaid and paid before the invoice date.
	require.NoError(t, mem.Insert(ctx, &types.Payment{InvoiceID: 1, Amount: 300.00, PaymentDate: now.AddDate(0, 0, -1)}))

	report, err := Run(ctx, mem)
	require.NoError(t, err)
	assert.False(t, report.OK())

	got := rules(report)
	for _, want := range []string{
		"foreign_key",
		"total_matches_procedures",
		"discount_bounds",
		"billable_appointment",
		"payments_within_balance",
		"paid_after_invoice",
	} {
		assert.Contains(t, got, want)
	}
}

func TestPrimaryPlanRule(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	require.NoError(t, mem.Insert(ctx, &types.Guardian{}))
	require.NoError(t, mem.Insert(ctx, &types.Patient{GuardianID: 1}))
	require.NoError(t, mem.Insert(ctx, &types.Patient{GuardianID: 1}))
	require.NoError(t, mem.Insert(ctx, &types.InsuranceCompany{}))
	require.NoError(t, mem.Insert(ctx, &types.InsurancePlan{InsuranceID: 1}))
	require.NoError(t, mem.Insert(ctx, &types.InsurancePlan{InsuranceID: 1}))

	require.NoError(t, mem.Insert(ctx, &types.PatientInsurance{PatientID: 1, PlanID: 1, IsPrimary: true}))
	require.NoError(t, mem.Insert(ctx, &types.PatientInsurance{PatientID: 1, PlanID: 2, IsPrimary: true}))
	require.NoError(t, mem.Insert(ctx, &types.PatientInsurance{PatientID: 2, PlanID: 1}))

	report, err := Run(ctx, mem)
	require.NoError(t, err)
	require.Len(t, report.Violations, 2)
	for _, v := range report.Violations {
		assert.Equal(t, "one_primary_plan", v.Rule)
	}
	assert.Equal(t, "1", report.Violations[0].ID)
	assert.Equal(t, "2", report.Violations[1].ID)
}
