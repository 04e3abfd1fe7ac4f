package seeder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Lumos-Labs-HQ/dentseed/internal/factory"
	"github.com/Lumos-Labs-HQ/dentseed/internal/faker"
	"github.com/Lumos-Labs-HQ/dentseed/internal/money"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store/memstore"
	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// scripted overrides selected draws of a seeded provider.
type scripted struct {
	*faker.Gofakeit
	probabilities []float64
	amounts       []float64
	ceilings      []float64
}

func (s *scripted) Probability() float64 {
	if len(s.probabilities) == 0 {
		return s.Gofakeit.Probability()
	}
	v := s.probabilities[0]
	s.probabilities = s.probabilities[1:]
	return v
}

func (s *scripted) Float(min, max float64, precision int32) float64 {
	s.ceilings = append(s.ceilings, max)
	if len(s.amounts) == 0 {
		return s.Gofakeit.Float(min, max, precision)
	}
	v := s.amounts[0]
	s.amounts = s.amounts[1:]
	return v
}

type failingStore struct {
	*memstore.Store
	failTable string
	err       error
}

func (f *failingStore) Insert(ctx context.Context, rec types.Record) error {
	if rec.TableName() == f.failTable {
		return f.err
	}
	return f.Store.Insert(ctx, rec)
}

// plainStore hides memstore's Truncate.
type plainStore struct {
	store.Store
}

func newSeeder(t *testing.T, st store.Store, opts ...Option) *Seeder {
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(st, zaptest.NewLogger(t), opts...)
}

func all[T any](t *testing.T, st store.Store, table string) []T {
	t.Helper()
	rows, err := store.FindAll[T](context.Background(), st, table, nil)
	require.NoError(t, err)
	return rows
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"negative office count", func(o *Options) { o.OfficeCount = -1 }},
		{"negative guardian count", func(o *Options) { o.GuardianCount = -3 }},
		{"min above max", func(o *Options) { o.DentistsPerOffice = Range{Min: 5, Max: 2} }},
		{"negative min", func(o *Options) { o.PaymentsPerInvoice = Range{Min: -1, Max: 2} }},
		{"likelihood above one", func(o *Options) { o.UnpaidInvoiceLikelihood = 1.5 }},
		{"negative likelihood", func(o *Options) { o.UnpaidInvoiceLikelihood = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestOptionsValidateBoundaries(t *testing.T) {
	o := DefaultOptions()
	o.OfficeCount = 0
	o.UnpaidInvoiceLikelihood = 0
	o.DentistsPerOffice = Range{Min: 3, Max: 3}
	assert.NoError(t, o.Validate())

	o.UnpaidInvoiceLikelihood = 1
	assert.NoError(t, o.Validate())
}

func TestRunRejectsBadOptionsBeforeWriting(t *testing.T) {
	mem := memstore.New()
	opts := DefaultOptions()
	opts.ChildrenPerGuardian = Range{Min: 4, Max: 1}

	err := newSeeder(t, mem).Run(context.Background(), opts)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "children_per_guardian")
	assert.Zero(t, mem.Count(types.TableOffices))
}

func TestSeedDentistsPerOffice(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	s := newSeeder(t, mem, WithProvider(faker.New(1)))

	n, err := s.SeedOffices(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	office := all[types.Office](t, mem, types.TableOffices)[0]

	created, err := s.SeedDentists(ctx, Range{Min: 2, Max: 15})
	require.NoError(t, err)

	dentists := all[types.Dentist](t, mem, types.TableDentists)
	assert.Len(t, dentists, created)
	assert.GreaterOrEqual(t, len(dentists), 2)
	assert.LessOrEqual(t, len(dentists), 15)
	for _, d := range dentists {
		assert.Equal(t, office.OfficeID, d.OfficeID)
	}
}

func TestSeedPatientsInheritSurname(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	s := newSeeder(t, mem, WithProvider(faker.New(2)))

	_, err := s.SeedGuardians(ctx, 4)
	require.NoError(t, err)
	_, err = s.SeedPatients(ctx, Range{Min: 1, Max: 3})
	require.NoError(t, err)

	surnames := map[int64]string{}
	for _, g := range all[types.Guardian](t, mem, types.TableGuardians) {
		surnames[g.GuardianID] = g.LastName
	}
	patients := all[types.Patient](t, mem, types.TablePatients)
	assert.GreaterOrEqual(t, len(patients), 4)
	assert.LessOrEqual(t, len(patients), 12)
	for _, p := range patients {
		assert.Equal(t, surnames[p.GuardianID], p.LastName)
	}
}

func TestInvoiceTotalFromProcedures(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	fake := &scripted{Gofakeit: faker.New(3), probabilities: []float64{0.5}}
	s := newSeeder(t, mem, WithProvider(fake))

	appt := &types.Appointment{PatientID: 1, DentistID: 1, AppointmentDatetime: testNow}
	require.NoError(t, mem.Insert(ctx, appt))
	for _, cost := range []float64{100.00, 250.50, 75.25} {
		require.NoError(t, mem.Insert(ctx, &types.Procedure{AppointmentID: appt.AppointmentID, ProcedureCode: "AAAAA", StandardCost: cost}))
	}

	n, err := s.SeedAppointmentInvoices(ctx, 0.1)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	inv := all[types.Invoice](t, mem, types.TableInvoices)[0]
	assert.Equal(t, appt.AppointmentID, inv.AppointmentID)
	assert.Equal(t, 425.75, inv.TotalAmount)
	assert.GreaterOrEqual(t, inv.DiscountAmount, 0.0)
	assert.LessOrEqual(t, inv.DiscountAmount, 425.75*factory.MaxDiscountRate)
}

func TestInvoiceSkipBoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	fake := &scripted{Gofakeit: faker.New(4), probabilities: []float64{0.25, 0.2500001}}
	s := newSeeder(t, mem, WithProvider(fake))

	for i := 0; i < 2; i++ {
		a := &types.Appointment{PatientID: 1, DentistID: 1, AppointmentDatetime: testNow}
		require.NoError(t, mem.Insert(ctx, a))
		require.NoError(t, mem.Insert(ctx, &types.Procedure{AppointmentID: a.AppointmentID, StandardCost: 300}))
	}

	n, err := s.SeedAppointmentInvoices(ctx, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	invoices := all[types.Invoice](t, mem, types.TableInvoices)
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(2), invoices[0].AppointmentID)
}

func TestInvoiceZeroLikelihoodStillSkipsZeroDraw(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	fake := &scripted{Gofakeit: faker.New(5), probabilities: []float64{0}}
	s := newSeeder(t, mem, WithProvider(fake))

	a := &types.Appointment{PatientID: 1, DentistID: 1, AppointmentDatetime: testNow}
	require.NoError(t, mem.Insert(ctx, a))
	require.NoError(t, mem.Insert(ctx, &types.Procedure{AppointmentID: a.AppointmentID, StandardCost: 300}))

	n, err := s.SeedAppointmentInvoices(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNoInvoiceWithoutProcedures(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	fake := &scripted{Gofakeit: faker.New(6), probabilities: []float64{0.9}}
	s := newSeeder(t, mem, WithProvider(fake))

	require.NoError(t, mem.Insert(ctx, &types.Appointment{PatientID: 1, DentistID: 1}))

	n, err := s.SeedAppointmentInvoices(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	// The probability draw is only taken for billable appointments.
	assert.Len(t, fake.probabilities, 1)
}

func TestPaymentsTrackRemainingBalance(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	fake := &scripted{Gofakeit: faker.New(7), amounts: []float64{200.00, 100.00}}
	s := newSeeder(t, mem, WithProvider(fake))

	invoiceDate := testNow.AddDate(0, 0, -5)
	inv := &types.Invoice{AppointmentID: 1, TotalAmount: 500.00, DiscountAmount: 50.00, InvoiceDate: invoiceDate, DueDate: testNow, Status: types.InvoicePending}
	require.NoError(t, mem.Insert(ctx, inv))

	n, err := s.SeedInvoicePayments(ctx, Range{Min: 3, Max: 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// Ceilings are remaining-discount: 500-50, 300-50, 200-50.
	assert.Equal(t, []float64{450.00, 250.00, 150.00}, fake.ceilings)

	payments := all[types.Payment](t, mem, types.TablePayments)
	require.Len(t, payments, 3)
	assert.Equal(t, 200.00, payments[0].Amount)
	assert.Equal(t, 100.00, payments[1].Amount)
	assert.LessOrEqual(t, payments[2].Amount, 200.00)
	assert.LessOrEqual(t, money.Sum(payments[0].Amount, payments[1].Amount, payments[2].Amount), 450.00)
	for _, p := range payments {
		assert.Equal(t, inv.InvoiceID, p.InvoiceID)
		assert.False(t, p.PaymentDate.Before(invoiceDate))
	}
}

func TestPlansPerPatientCappedAndPrimaryFirst(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	s := newSeeder(t, mem, WithProvider(faker.New(8)))

	_, err := s.SeedGuardians(ctx, 3)
	require.NoError(t, err)
	_, err = s.SeedPatients(ctx, Range{Min: 2, Max: 2})
	require.NoError(t, err)
	_, err = s.SeedInsuranceCompanies(ctx, 1)
	require.NoError(t, err)
	_, err = s.SeedInsurancePlans(ctx, Range{Min: 2, Max: 2})
	require.NoError(t, err)

	n, err := s.SeedPatientInsurancePlans(ctx, Range{Min: 5, Max: 5})
	require.NoError(t, err)
	assert.Equal(t, 6*2, n)

	seen := map[int64]int{}
	for _, l := range all[types.PatientInsurance](t, mem, types.TablePatientInsurance) {
		assert.Equal(t, seen[l.PatientID] == 0, l.IsPrimary, "patient %d", l.PatientID)
		seen[l.PatientID]++
	}
	assert.Len(t, seen, 6)
}

func TestEmptyParentsAreNoOps(t *testing.T) {
	ctx := context.Background()
	s := newSeeder(t, memstore.New())

	for name, run := range map[string]func() (int, error){
		"dentists":     func() (int, error) { return s.SeedDentists(ctx, Range{Min: 1, Max: 3}) },
		"patients":     func() (int, error) { return s.SeedPatients(ctx, Range{Min: 1, Max: 3}) },
		"plans":        func() (int, error) { return s.SeedInsurancePlans(ctx, Range{Min: 1, Max: 3}) },
		"links":        func() (int, error) { return s.SeedPatientInsurancePlans(ctx, Range{Min: 1, Max: 3}) },
		"appointments": func() (int, error) { return s.SeedPatientAppointments(ctx, Range{Min: 1, Max: 3}) },
		"procedures":   func() (int, error) { return s.SeedAppointmentProcedures(ctx, Range{Min: 1, Max: 3}) },
		"invoices":     func() (int, error) { return s.SeedAppointmentInvoices(ctx, 0.1) },
		"payments":     func() (int, error) { return s.SeedInvoicePayments(ctx, Range{Min: 1, Max: 3}) },
	} {
		n, err := run()
		assert.NoError(t, err, name)
		assert.Zero(t, n, name)
	}
}

func TestAppointmentsWithoutDentists(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	s := newSeeder(t, mem)

	_, err := s.SeedGuardians(ctx, 2)
	require.NoError(t, err)
	_, err = s.SeedPatients(ctx, Range{Min: 1, Max: 1})
	require.NoError(t, err)

	n, err := s.SeedPatientAppointments(ctx, Range{Min: 2, Max: 2})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, mem.Count(types.TableAppointments))
}

func TestStorageFailureAbortsRun(t *testing.T) {
	boom := errors.New("connection reset")
	st := &failingStore{Store: memstore.New(), failTable: types.TableDentists, err: boom}

	var stages []string
	s := newSeeder(t, st, WithStageHook(func(r StageReport) { stages = append(stages, r.Stage) }))

	opts := DefaultOptions()
	opts.RandomSeed = 99
	err := s.Run(context.Background(), opts)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, StageDentists, storageErr.Stage)
	assert.Equal(t, types.TableDentists, storageErr.Table)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{StageOffices}, stages)
	assert.Equal(t, 5, st.Count(types.TableOffices))
	assert.Zero(t, st.Count(types.TableGuardians))
}

func TestRunFullPipelineProperties(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	var stages []string
	s := newSeeder(t, mem, WithStageHook(func(r StageReport) { stages = append(stages, r.Stage) }))

	opts := DefaultOptions()
	opts.RandomSeed = 2024
	require.NoError(t, s.Run(ctx, opts))

	assert.Equal(t, []string{
		StageOffices, StageDentists, StageGuardians, StagePatients,
		StageInsuranceCompanies, StageInsurancePlans, StagePatientInsurance,
		StageAppointments, StageProcedures, StageInvoices, StagePayments,
	}, stages)

	assert.Equal(t, 5, mem.Count(types.TableOffices))
	assert.Equal(t, 20, mem.Count(types.TableGuardians))
	assert.Equal(t, 10, mem.Count(types.TableInsuranceCompanies))

	offices := idSet(all[types.Office](t, mem, types.TableOffices), func(o types.Office) int64 { return o.OfficeID })
	dentists := all[types.Dentist](t, mem, types.TableDentists)
	for _, d := range dentists {
		assert.Contains(t, offices, d.OfficeID)
	}
	dentistIDs := idSet(dentists, func(d types.Dentist) int64 { return d.DentistID })
	patientIDs := idSet(all[types.Patient](t, mem, types.TablePatients), func(p types.Patient) int64 { return p.PatientID })
	planIDs := idSet(all[types.InsurancePlan](t, mem, types.TableInsurancePlans), func(p types.InsurancePlan) int64 { return p.PlanID })

	primaries := map[int64]int{}
	firstSeen := map[int64]bool{}
	for _, l := range all[types.PatientInsurance](t, mem, types.TablePatientInsurance) {
		assert.Contains(t, patientIDs, l.PatientID)
		assert.Contains(t, planIDs, l.PlanID)
		if !firstSeen[l.PatientID] {
			assert.True(t, l.IsPrimary)
			firstSeen[l.PatientID] = true
		}
		if l.IsPrimary {
			primaries[l.PatientID]++
		}
	}
	for id, n := range primaries {
		assert.Equal(t, 1, n, "patient %d", id)
	}

	appointments := all[types.Appointment](t, mem, types.TableAppointments)
	for _, a := range appointments {
		assert.Contains(t, patientIDs, a.PatientID)
		assert.Contains(t, dentistIDs, a.DentistID)
	}

	byAppointment := map[int64][]types.Procedure{}
	for _, p := range all[types.Procedure](t, mem, types.TableProcedures) {
		byAppointment[p.AppointmentID] = append(byAppointment[p.AppointmentID], p)
		assert.Greater(t, p.StandardCost, 0.0)
	}

	invoices := all[types.Invoice](t, mem, types.TableInvoices)
	for _, inv := range invoices {
		procs := byAppointment[inv.AppointmentID]
		require.NotEmpty(t, procs, "invoice %d has no procedures", inv.InvoiceID)
		assert.Equal(t, InvoiceTotal(procs), inv.TotalAmount)
		assert.GreaterOrEqual(t, inv.DiscountAmount, 0.0)
		assert.LessOrEqual(t, inv.DiscountAmount, inv.TotalAmount*factory.MaxDiscountRate)
	}

	paid := map[int64]float64{}
	for _, p := range all[types.Payment](t, mem, types.TablePayments) {
		paid[p.InvoiceID] = money.Sum(paid[p.InvoiceID], p.Amount)
	}
	for _, inv := range invoices {
		assert.LessOrEqual(t, paid[inv.InvoiceID], money.Sub(inv.TotalAmount, inv.DiscountAmount), "invoice %d", inv.InvoiceID)
	}
}

func TestRunIsReproducible(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()
	opts.RandomSeed = 77

	a, b := memstore.New(), memstore.New()
	require.NoError(t, newSeeder(t, a).Run(ctx, opts))
	require.NoError(t, newSeeder(t, b).Run(ctx, opts))

	for _, table := range InsertionOrder() {
		rowsA, err := a.Find(ctx, table, nil)
		require.NoError(t, err)
		rowsB, err := b.Find(ctx, table, nil)
		require.NoError(t, err)
		assert.Equal(t, rowsA, rowsB, table)
	}
}

func TestTruncate(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	s := newSeeder(t, mem)

	_, err := s.SeedOffices(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, s.Truncate(ctx))
	assert.Zero(t, mem.Count(types.TableOffices))

	err = newSeeder(t, plainStore{mem}).Truncate(ctx)
	assert.Error(t, err)
}

func idSet[T any](rows []T, key func(T) int64) map[int64]bool {
	out := make(map[int64]bool, len(rows))
	for _, r := range rows {
		out[key(r)] = true
	}
	return out
}
