package seeder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Lumos-Labs-HQ/dentseed/internal/factory"
	"github.com/Lumos-Labs-HQ/dentseed/internal/faker"
	"github.com/Lumos-Labs-HQ/dentseed/internal/money"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store"
	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
)

const (
	StageOffices            = "SeedOffices"
	StageDentists           = "SeedDentists"
	StageGuardians          = "SeedGuardians"
	StagePatients           = "SeedPatients"
	StageInsuranceCompanies = "SeedInsuranceCompanies"
	StageInsurancePlans     = "SeedInsurancePlans"
	StagePatientInsurance   = "SeedPatientInsurancePlans"
	StageAppointments       = "SeedPatientAppointments"
	StageProcedures         = "SeedAppointmentProcedures"
	StageInvoices           = "SeedAppointmentInvoices"
	StagePayments           = "SeedInvoicePayments"
)

// StageReport describes a finished stage.
type StageReport struct {
	Stage   string
	Table   string
	Rows    int
	Elapsed time.Duration
}

type Option func(*Seeder)

// WithProvider replaces the gofakeit provider. Options.RandomSeed is
// ignored when a provider is supplied.
func WithProvider(p faker.Provider) Option {
	return func(s *Seeder) {
		s.fake = p
		s.fixedProvider = true
	}
}

// WithClock sets the clock used for relative dates.
func WithClock(clock func() time.Time) Option {
	return func(s *Seeder) { s.clock = clock }
}

// WithStageHook registers fn to be called after each stage of Run.
func WithStageHook(fn func(StageReport)) Option {
	return func(s *Seeder) { s.onStage = fn }
}

type Seeder struct {
	store         store.Store
	fake          faker.Provider
	fixedProvider bool
	factory       *factory.Factory
	clock         func() time.Time
	log           *zap.Logger
	onStage       func(StageReport)
}

func New(st store.Store, log *zap.Logger, opts ...Option) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Seeder{
		store: st,
		clock: time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fake == nil {
		s.fake = faker.New(0)
	}
	s.factory = factory.New(s.fake, s.clock)
	return s
}

// Run validates opts and runs every stage in dependency order. It stops at
// the first error; rows written by finished stages stay in place.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	if opts.RandomSeed != 0 && !s.fixedProvider {
		s.fake = faker.New(opts.RandomSeed)
		s.factory = factory.New(s.fake, s.clock)
	}

	order, err := TableGraph().BuildInsertionOrder()
	if err != nil {
		return fmt.Errorf("failed to build insertion order: %w", err)
	}

	stages := s.stages(opts)
	s.log.Info("seeding started", zap.Strings("order", order), zap.Int64("seed", opts.RandomSeed))

	for _, table := range order {
		st, ok := stages[table]
		if !ok {
			return fmt.Errorf("no stage seeds table %s", table)
		}

		start := time.Now()
		n, err := st.run(ctx)
		if err != nil {
			s.log.Error("stage failed", zap.String("stage", st.name), zap.Error(err))
			return err
		}

		report := StageReport{Stage: st.name, Table: table, Rows: n, Elapsed: time.Since(start)}
		s.log.Info("stage complete",
			zap.String("stage", report.Stage),
			zap.String("table", report.Table),
			zap.Int("rows", report.Rows),
			zap.Duration("elapsed", report.Elapsed),
		)
		if s.onStage != nil {
			s.onStage(report)
		}
	}

	s.log.Info("seeding completed")
	return nil
}

type stage struct {
	name string
	run  func(context.Context) (int, error)
}

func (s *Seeder) stages(o Options) map[string]stage {
	return map[string]stage{
		types.TableOffices: {StageOffices, func(ctx context.Context) (int, error) {
			return s.SeedOffices(ctx, o.OfficeCount)
		}},
		types.TableDentists: {StageDentists, func(ctx context.Context) (int, error) {
			return s.SeedDentists(ctx, o.DentistsPerOffice)
		}},
		types.TableGuardians: {StageGuardians, func(ctx context.Context) (int, error) {
			return s.SeedGuardians(ctx, o.GuardianCount)
		}},
		types.TablePatients: {StagePatients, func(ctx context.Context) (int, error) {
			return s.SeedPatients(ctx, o.ChildrenPerGuardian)
		}},
		types.TableInsuranceCompanies: {StageInsuranceCompanies, func(ctx context.Context) (int, error) {
			return s.SeedInsuranceCompanies(ctx, o.InsuranceCompanyCount)
		}},
		types.TableInsurancePlans: {StageInsurancePlans, func(ctx context.Context) (int, error) {
			return s.SeedInsurancePlans(ctx, o.PlansPerCompany)
		}},
		types.TablePatientInsurance: {StagePatientInsurance, func(ctx context.Context) (int, error) {
			return s.SeedPatientInsurancePlans(ctx, o.PlansPerPatient)
		}},
		types.TableAppointments: {StageAppointments, func(ctx context.Context) (int, error) {
			return s.SeedPatientAppointments(ctx, o.AppointmentsPerPatient)
		}},
		types.TableProcedures: {StageProcedures, func(ctx context.Context) (int, error) {
			return s.SeedAppointmentProcedures(ctx, o.ProceduresPerAppointment)
		}},
		types.TableInvoices: {StageInvoices, func(ctx context.Context) (int, error) {
			return s.SeedAppointmentInvoices(ctx, o.UnpaidInvoiceLikelihood)
		}},
		types.TablePayments: {StagePayments, func(ctx context.Context) (int, error) {
			return s.SeedInvoicePayments(ctx, o.PaymentsPerInvoice)
		}},
	}
}

// Truncate empties every seeded table, children first. The store must
// implement store.Truncater.
func (s *Seeder) Truncate(ctx context.Context) error {
	t, ok := s.store.(store.Truncater)
	if !ok {
		return fmt.Errorf("store %T cannot truncate tables", s.store)
	}
	order := TruncationOrder()
	s.log.Info("truncating tables", zap.Strings("order", order))
	return t.Truncate(ctx, order)
}

func (s *Seeder) SeedOffices(ctx context.Context, count int) (int, error) {
	for i := 0; i < count; i++ {
		if err := s.insert(ctx, StageOffices, s.factory.Office()); err != nil {
			return i, err
		}
	}
	return count, nil
}

func (s *Seeder) SeedDentists(ctx context.Context, perOffice Range) (int, error) {
	offices, err := load(ctx, s, StageDentists, types.TableOffices, nil,
		func(o types.Office) int64 { return o.OfficeID })
	if err != nil {
		return 0, err
	}

	created := 0
	for _, office := range offices {
		n := s.draw(perOffice)
		s.log.Debug("fan-out", zap.String("stage", StageDentists), zap.Int64("office_id", office.OfficeID), zap.Int("count", n))
		for i := 0; i < n; i++ {
			if err := s.insert(ctx, StageDentists, s.factory.Dentist(office.OfficeID)); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) SeedGuardians(ctx context.Context, count int) (int, error) {
	for i := 0; i < count; i++ {
		if err := s.insert(ctx, StageGuardians, s.factory.Guardian()); err != nil {
			return i, err
		}
	}
	return count, nil
}

// SeedPatients gives every child the guardian's surname.
func (s *Seeder) SeedPatients(ctx context.Context, perGuardian Range) (int, error) {
	guardians, err := load(ctx, s, StagePatients, types.TableGuardians, nil,
		func(g types.Guardian) int64 { return g.GuardianID })
	if err != nil {
		return 0, err
	}

	created := 0
	for _, g := range guardians {
		n := s.draw(perGuardian)
		s.log.Debug("fan-out", zap.String("stage", StagePatients), zap.Int64("guardian_id", g.GuardianID), zap.Int("count", n))
		surname := g.LastName
		for i := 0; i < n; i++ {
			p := s.factory.Patient(g.GuardianID, factory.PatientOverrides{LastName: &surname})
			if err := s.insert(ctx, StagePatients, p); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) SeedInsuranceCompanies(ctx context.Context, count int) (int, error) {
	for i := 0; i < count; i++ {
		if err := s.insert(ctx, StageInsuranceCompanies, s.factory.InsuranceCompany()); err != nil {
			return i, err
		}
	}
	return count, nil
}

func (s *Seeder) SeedInsurancePlans(ctx context.Context, perCompany Range) (int, error) {
	companies, err := load(ctx, s, StageInsurancePlans, types.TableInsuranceCompanies, nil,
		func(c types.InsuranceCompany) int64 { return c.InsuranceID })
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range companies {
		n := s.draw(perCompany)
		for i := 0; i < n; i++ {
			if err := s.insert(ctx, StageInsurancePlans, s.factory.InsurancePlan(c.InsuranceID)); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// SeedPatientInsurancePlans links each patient to the first k plans of a
// fresh permutation. The first link is the primary one. k never exceeds the
// number of plans.
func (s *Seeder) SeedPatientInsurancePlans(ctx context.Context, perPatient Range) (int, error) {
	patients, err := load(ctx, s, StagePatientInsurance, types.TablePatients, nil,
		func(p types.Patient) int64 { return p.PatientID })
	if err != nil {
		return 0, err
	}
	plans, err := load(ctx, s, StagePatientInsurance, types.TableInsurancePlans, nil,
		func(p types.InsurancePlan) int64 { return p.PlanID })
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range patients {
		k := s.draw(perPatient)
		if k > len(plans) {
			k = len(plans)
		}
		shuffled := faker.Permute(s.fake, plans)
		for i := 0; i < k; i++ {
			link := s.factory.PatientInsurance(p.PatientID, shuffled[i].PlanID, i == 0)
			if err := s.insert(ctx, StagePatientInsurance, link); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// SeedPatientAppointments picks a dentist independently for every
// appointment. With no dentists there is nothing to book.
func (s *Seeder) SeedPatientAppointments(ctx context.Context, perPatient Range) (int, error) {
	patients, err := load(ctx, s, StageAppointments, types.TablePatients, nil,
		func(p types.Patient) int64 { return p.PatientID })
	if err != nil {
		return 0, err
	}
	dentists, err := load(ctx, s, StageAppointments, types.TableDentists, nil,
		func(d types.Dentist) int64 { return d.DentistID })
	if err != nil {
		return 0, err
	}
	if len(dentists) == 0 {
		s.log.Warn("no dentists, skipping appointments", zap.Int("patients", len(patients)))
		return 0, nil
	}

	created := 0
	for _, p := range patients {
		n := s.draw(perPatient)
		for i := 0; i < n; i++ {
			d := dentists[s.fake.IntRange(0, len(dentists)-1)]
			if err := s.insert(ctx, StageAppointments, s.factory.Appointment(p.PatientID, d.DentistID)); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) SeedAppointmentProcedures(ctx context.Context, perAppointment Range) (int, error) {
	appointments, err := load(ctx, s, StageProcedures, types.TableAppointments, nil,
		func(a types.Appointment) int64 { return a.AppointmentID })
	if err != nil {
		return 0, err
	}

	created := 0
	for _, a := range appointments {
		n := s.draw(perAppointment)
		for i := 0; i < n; i++ {
			if err := s.insert(ctx, StageProcedures, s.factory.Procedure(a.AppointmentID)); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// SeedAppointmentInvoices bills each appointment that has procedures, unless
// a draw u in [0,1) satisfies u <= skipProbability.
func (s *Seeder) SeedAppointmentInvoices(ctx context.Context, skipProbability float64) (int, error) {
	appointments, err := load(ctx, s, StageInvoices, types.TableAppointments, nil,
		func(a types.Appointment) int64 { return a.AppointmentID })
	if err != nil {
		return 0, err
	}

	created := 0
	for _, a := range appointments {
		procedures, err := load(ctx, s, StageInvoices, types.TableProcedures,
			store.Filter{"appointment_id": a.AppointmentID},
			func(p types.Procedure) int64 { return p.ProcedureID })
		if err != nil {
			return created, err
		}
		if len(procedures) == 0 {
			continue
		}
		if s.fake.Probability() <= skipProbability {
			s.log.Debug("invoice skipped", zap.Int64("appointment_id", a.AppointmentID))
			continue
		}

		if err := s.insert(ctx, StageInvoices, s.factory.Invoice(a.AppointmentID, InvoiceTotal(procedures))); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedInvoicePayments never lets the payments of an invoice exceed its
// total less discount.
func (s *Seeder) SeedInvoicePayments(ctx context.Context, perInvoice Range) (int, error) {
	invoices, err := load(ctx, s, StagePayments, types.TableInvoices, nil,
		func(i types.Invoice) int64 { return i.InvoiceID })
	if err != nil {
		return 0, err
	}

	created := 0
	for _, inv := range invoices {
		n := s.draw(perInvoice)
		remaining := inv.TotalAmount
		for i := 0; i < n; i++ {
			p := s.factory.Payment(inv.InvoiceID, remaining, inv.DiscountAmount, inv.InvoiceDate)
			if err := s.insert(ctx, StagePayments, p); err != nil {
				return created, err
			}
			remaining = money.Sub(remaining, p.Amount)
			created++
		}
	}
	return created, nil
}

// InvoiceTotal is the rounded sum of the procedures' standard costs.
func InvoiceTotal(procedures []types.Procedure) float64 {
	costs := make([]float64, len(procedures))
	for i, p := range procedures {
		costs[i] = p.StandardCost
	}
	return money.Sum(costs...)
}

func (s *Seeder) draw(r Range) int {
	return s.fake.IntRange(r.Min, r.Max)
}

func (s *Seeder) insert(ctx context.Context, stage string, rec types.Record) error {
	if err := s.store.Insert(ctx, rec); err != nil {
		return &StorageError{Stage: stage, Table: rec.TableName(), Err: err}
	}
	return nil
}

// load reads a parent table sorted by key so a fixed seed replays the same
// run whatever order the store returns rows in.
func load[T any](ctx context.Context, s *Seeder, stage, table string, filter store.Filter, key func(T) int64) ([]T, error) {
	rows, err := store.FindAll[T](ctx, s.store, table, filter)
	if err != nil {
		return nil, &StorageError{Stage: stage, Table: table, Err: err}
	}
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) < key(rows[j]) })
	return rows, nil
}
