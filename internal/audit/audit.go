// Package audit re-reads a seeded store and checks the consistency rules the
// seeder is meant to guarantee.
package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/Lumos-Labs-HQ/dentseed/internal/money"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store"
	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
)

const maxDiscountRate = 0.2

// Violation is one broken rule on one row.
type Violation struct {
	Table   string `json:"table"`
	ID      string `json:"id"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%s] %s: %s", v.Table, v.ID, v.Rule, v.Message)
}

type Report struct {
	Counts     map[string]int `json:"counts"`
	Violations []Violation    `json:"violations"`
}

func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

func (r *Report) add(table string, id interface{}, rule, format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{
		Table:   table,
		ID:      fmt.Sprint(id),
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	})
}

type snapshot struct {
	offices      []types.Office
	dentists     []types.Dentist
	guardians    []types.Guardian
	patients     []types.Patient
	companies    []types.InsuranceCompany
	plans        []types.InsurancePlan
	links        []types.PatientInsurance
	appointments []types.Appointment
	procedures   []types.Procedure
	invoices     []types.Invoice
	payments     []types.Payment
}

// Run loads every seeded table and returns the violations found. An error
// means the store could not be read.
func Run(ctx context.Context, st store.Store) (*Report, error) {
	var s snapshot
	var err error
	if s.offices, err = store.FindAll[types.Office](ctx, st, types.TableOffices, nil); err != nil {
		return nil, err
	}
	if s.dentists, err = store.FindAll[types.Dentist](ctx, st, types.TableDentists, nil); err != nil {
		return nil, err
	}
	if s.guardians, err = store.FindAll[types.Guardian](ctx, st, types.TableGuardians, nil); err != nil {
		return nil, err
	}
	if s.patients, err = store.FindAll[types.Patient](ctx, st, types.TablePatients, nil); err != nil {
		return nil, err
	}
	if s.companies, err = store.FindAll[types.InsuranceCompany](ctx, st, types.TableInsuranceCompanies, nil); err != nil {
		return nil, err
	}
	if s.plans, err = store.FindAll[types.InsurancePlan](ctx, st, types.TableInsurancePlans, nil); err != nil {
		return nil, err
	}
	if s.links, err = store.FindAll[types.PatientInsurance](ctx, st, types.TablePatientInsurance, nil); err != nil {
		return nil, err
	}
	if s.appointments, err = store.FindAll[types.Appointment](ctx, st, types.TableAppointments, nil); err != nil {
		return nil, err
	}
	if s.procedures, err = store.FindAll[types.Procedure](ctx, st, types.TableProcedures, nil); err != nil {
		return nil, err
	}
	if s.invoices, err = store.FindAll[types.Invoice](ctx, st, types.TableInvoices, nil); err != nil {
		return nil, err
	}
	if s.payments, err = store.FindAll[types.Payment](ctx, st, types.TablePayments, nil); err != nil {
		return nil, err
	}

	r := &Report{Counts: map[string]int{
		types.TableOffices:            len(s.offices),
		types.TableDentists:           len(s.dentists),
		types.TableGuardians:          len(s.guardians),
		types.TablePatients:           len(s.patients),
		types.TableInsuranceCompanies: len(s.companies),
		types.TableInsurancePlans:     len(s.plans),
		types.TablePatientInsurance:   len(s.links),
		types.TableAppointments:       len(s.appointments),
		types.TableProcedures:         len(s.procedures),
		types.TableInvoices:           len(s.invoices),
		types.TablePayments:           len(s.payments),
	}}

	checkReferences(r, &s)
	checkCoverage(r, s.links)
	checkInvoices(r, s.invoices, s.procedures)
	checkPayments(r, s.invoices, s.payments)

	sort.SliceStable(r.Violations, func(i, j int) bool {
		return r.Violations[i].Table < r.Violations[j].Table
	})
	return r, nil
}

func ids[T any](rows []T, key func(T) int64) map[int64]bool {
	out := make(map[int64]bool, len(rows))
	for _, row := range rows {
		out[key(row)] = true
	}
	return out
}

func checkReferences(r *Report, s *snapshot) {
	offices := ids(s.offices, func(o types.Office) int64 { return o.OfficeID })
	dentists := ids(s.dentists, func(d types.Dentist) int64 { return d.DentistID })
	guardians := ids(s.guardians, func(g types.Guardian) int64 { return g.GuardianID })
	patients := ids(s.patients, func(p types.Patient) int64 { return p.PatientID })
	companies := ids(s.companies, func(c types.InsuranceCompany) int64 { return c.InsuranceID })
	plans := ids(s.plans, func(p types.InsurancePlan) int64 { return p.PlanID })
	appointments := ids(s.appointments, func(a types.Appointment) int64 { return a.AppointmentID })
	invoices := ids(s.invoices, func(i types.Invoice) int64 { return i.InvoiceID })

	ref := func(table string, id interface{}, column string, value int64, known map[int64]bool) {
		if !known[value] {
			r.add(table, id, "foreign_key", "%s %d does not exist", column, value)
		}
	}

	for _, d := range s.dentists {
		ref(types.TableDentists, d.DentistID, "office_id", d.OfficeID, offices)
	}
	for _, p := range s.patients {
		ref(types.TablePatients, p.PatientID, "guardian_id", p.GuardianID, guardians)
	}
	for _, p := range s.plans {
		ref(types.TableInsurancePlans, p.PlanID, "insurance_id", p.InsuranceID, companies)
	}
	for _, l := range s.links {
		key := fmt.Sprintf("%d/%d", l.PatientID, l.PlanID)
		ref(types.TablePatientInsurance, key, "patient_id", l.PatientID, patients)
		ref(types.TablePatientInsurance, key, "plan_id", l.PlanID, plans)
	}
	for _, a := range s.appointments {
		ref(types.TableAppointments, a.AppointmentID, "patient_id", a.PatientID, patients)
		ref(types.TableAppointments, a.AppointmentID, "dentist_id", a.DentistID, dentists)
	}
	for _, p := range s.procedures {
		ref(types.TableProcedures, p.ProcedureID, "appointment_id", p.AppointmentID, appointments)
	}
	for _, i := range s.invoices {
		ref(types.TableInvoices, i.InvoiceID, "appointment_id", i.AppointmentID, appointments)
	}
	for _, p := range s.payments {
		ref(types.TablePayments, p.PaymentID, "invoice_id", p.InvoiceID, invoices)
	}
}

func checkCoverage(r *Report, links []types.PatientInsurance) {
	seen := map[string]bool{}
	primaries := map[int64]int{}
	patients := map[int64]bool{}
	for _, l := range links {
		key := fmt.Sprintf("%d/%d", l.PatientID, l.PlanID)
		if seen[key] {
			r.add(types.TablePatientInsurance, key, "unique_link", "patient linked to plan more than once")
		}
		seen[key] = true
		patients[l.PatientID] = true
		if l.IsPrimary {
			primaries[l.PatientID]++
		}
		if l.CoverageEndDate != nil && l.CoverageEndDate.Before(l.CoverageStartDate) {
			r.add(types.TablePatientInsurance, key, "coverage_window", "coverage ends before it starts")
		}
	}

	ordered := make([]int64, 0, len(patients))
	for id := range patients {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for _, id := range ordered {
		if n := primaries[id]; n != 1 {
			r.add(types.TablePatients, id, "one_primary_plan", "has %d primary plans", n)
		}
	}
}

func checkInvoices(r *Report, invoices []types.Invoice, procedures []types.Procedure) {
	costs := map[int64][]float64{}
	for _, p := range procedures {
		if p.StandardCost <= 0 {
			r.add(types.TableProcedures, p.ProcedureID, "positive_cost", "standard_cost %.2f is not positive", p.StandardCost)
		}
		costs[p.AppointmentID] = append(costs[p.AppointmentID], p.StandardCost)
	}

	for _, inv := range invoices {
		c, ok := costs[inv.AppointmentID]
		if !ok {
			r.add(types.TableInvoices, inv.InvoiceID, "billable_appointment", "appointment %d has no procedures", inv.AppointmentID)
			continue
		}
		if want := money.Sum(c...); inv.TotalAmount != want {
			r.add(types.TableInvoices, inv.InvoiceID, "total_matches_procedures", "total %.2f, procedures sum to %.2f", inv.TotalAmount, want)
		}
		if inv.DiscountAmount < 0 || inv.DiscountAmount > inv.TotalAmount*maxDiscountRate {
			r.add(types.TableInvoices, inv.InvoiceID, "discount_bounds", "discount %.2f outside [0, %.2f]", inv.DiscountAmount, inv.TotalAmount*maxDiscountRate)
		}
	}
}

func checkPayments(r *Report, invoices []types.Invoice, payments []types.Payment) {
	byID := make(map[int64]types.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.InvoiceID] = inv
	}

	paid := map[int64]float64{}
	for _, p := range payments {
		inv, ok := byID[p.InvoiceID]
		if !ok {
			continue
		}
		if p.Amount < 0 {
			r.add(types.TablePayments, p.PaymentID, "non_negative_amount", "amount %.2f is negative", p.Amount)
		}
		if p.PaymentDate.Before(inv.InvoiceDate) {
			r.add(types.TablePayments, p.PaymentID, "paid_after_invoice", "paid %s before invoice date %s", p.PaymentDate, inv.InvoiceDate)
		}
		paid[p.InvoiceID] = money.Sum(paid[p.InvoiceID], p.Amount)
	}

	for _, inv := range invoices {
		limit := money.Sub(inv.TotalAmount, inv.DiscountAmount)
		if got := paid[inv.InvoiceID]; got > limit {
			r.add(types.TableInvoices, inv.InvoiceID, "payments_within_balance", "payments %.2f exceed %.2f", got, limit)
		}
	}
}
