// Package factory builds single, unsaved records for every seeded table.
//
// A Factory never touches storage and never checks that the parent ids it is
// given exist. All randomness comes from the injected faker.Provider and all
// relative dates from the injected clock.
package factory

import (
	"time"

	"github.com/Lumos-Labs-HQ/dentseed/internal/faker"
	"github.com/Lumos-Labs-HQ/dentseed/internal/money"
	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
)

const (
	MinProcedureCost = 200.00
	MaxProcedureCost = 10000.00

	// MaxDiscountRate bounds an invoice discount as a share of its total.
	MaxDiscountRate = 0.2

	procedureCodeLength = 5
	textWords           = 3
)

var (
	Specialties     = []string{"Pediatric Dentist", "Orthodontist", "Endodontist"}
	Relationships   = []string{"Mother", "Father", "Uncle", "Aunt", "Grandparent"}
	Genders         = []string{"Male", "Female", "Non-binary"}
	CoverageTypes   = []string{"PPO", "HMO", "Dental Only"}
	birthWindowFrom = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	birthWindowTo   = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
)

type Factory struct {
	fake faker.Provider
	now  func() time.Time
}

// New returns a Factory. A nil clock means time.Now.
func New(fake faker.Provider, clock func() time.Time) *Factory {
	if clock == nil {
		clock = time.Now
	}
	return &Factory{fake: fake, now: clock}
}

// PatientOverrides carries explicit patient fields. A nil or empty LastName
// means a random surname.
type PatientOverrides struct {
	LastName *string
}

func (f *Factory) Office() *types.Office {
	return &types.Office{
		OfficeName:   f.fake.Company(),
		BrandName:    f.fake.BuzzVerb(),
		AddressLine1: f.fake.Street(),
		City:         f.fake.City(),
		State:        f.fake.StateAbbr(),
		ZipCode:      f.fake.Zip(),
		PhoneNumber:  f.fake.Phone(),
	}
}

func (f *Factory) Dentist(officeID int64) *types.Dentist {
	now := f.now()
	return &types.Dentist{
		OfficeID:  officeID,
		FirstName: f.fake.FirstName(),
		LastName:  f.fake.LastName(),
		Specialty: ptr(f.fake.Choice(Specialties)),
		Email:     ptr(f.fake.Email()),
		Phone:     ptr(f.fake.Phone()),
		HiredDate: f.fake.DateRange(now.AddDate(-5, 0, 0), now),
	}
}

func (f *Factory) Guardian() *types.Guardian {
	return &types.Guardian{
		FirstName:      f.fake.FirstName(),
		LastName:       f.fake.LastName(),
		Relationship:   f.fake.Choice(Relationships),
		PhonePrimary:   f.fake.Phone(),
		PhoneSecondary: ptr(f.fake.Phone()),
		Email:          ptr(f.fake.Email()),
		AddressLine1:   f.fake.Street(),
		City:           f.fake.City(),
		State:          f.fake.StateAbbr(),
		ZipCode:        f.fake.Zip(),
	}
}

func (f *Factory) Patient(guardianID int64, o PatientOverrides) *types.Patient {
	lastName := f.fake.LastName()
	if o.LastName != nil && *o.LastName != "" {
		lastName = *o.LastName
	}
	return &types.Patient{
		GuardianID:  guardianID,
		FirstName:   f.fake.FirstName(),
		LastName:    lastName,
		DateOfBirth: f.fake.DateRange(birthWindowFrom, birthWindowTo),
		Gender:      ptr(f.fake.Choice(Genders)),
		Notes:       ptr(f.fake.Sentence()),
	}
}

func (f *Factory) InsuranceCompany() *types.InsuranceCompany {
	c := &types.InsuranceCompany{
		CompanyName:  f.fake.Company(),
		Phone:        f.fake.Phone(),
		AddressLine1: f.fake.Street(),
		City:         f.fake.City(),
		State:        f.fake.StateAbbr(),
		ZipCode:      f.fake.Zip(),
	}
	if f.fake.Maybe(0.3) {
		c.AddressLine2 = ptr(f.fake.SecondaryAddress())
	}
	return c
}

func (f *Factory) InsurancePlan(insuranceID int64) *types.InsurancePlan {
	return &types.InsurancePlan{
		InsuranceID:  insuranceID,
		PlanName:     f.fake.Noun() + " Plan",
		CoverageType: f.fake.Choice(CoverageTypes),
	}
}

func (f *Factory) PatientInsurance(patientID, planID int64, isPrimary bool) *types.PatientInsurance {
	now := f.now()
	link := &types.PatientInsurance{
		PatientID:         patientID,
		PlanID:            planID,
		IsPrimary:         isPrimary,
		CoverageStartDate: f.fake.DateRange(now.AddDate(-2, 0, 0), now),
	}
	if f.fake.Maybe(0.2) {
		end := f.fake.DateRange(now, now.AddDate(1, 0, 0))
		link.CoverageEndDate = &end
	}
	return link
}

func (f *Factory) Appointment(patientID, dentistID int64) *types.Appointment {
	now := f.now()
	a := &types.Appointment{
		PatientID:           patientID,
		DentistID:           dentistID,
		AppointmentDatetime: f.fake.DateRange(now.AddDate(0, 0, -300), now),
		ReasonForVisit:      ptr(f.fake.Words(textWords)),
	}
	if f.fake.Maybe(0.3) {
		a.Notes = ptr(f.fake.Sentence())
	}
	return a
}

func (f *Factory) Procedure(appointmentID int64) *types.Procedure {
	return &types.Procedure{
		AppointmentID: appointmentID,
		ProcedureCode: f.fake.Code(procedureCodeLength),
		Description:   f.fake.Words(textWords),
		StandardCost:  f.fake.Float(MinProcedureCost, MaxProcedureCost, money.Places),
	}
}

// Invoice uses total as given; the caller computes it from the procedures.
// The discount is drawn from [0, MaxDiscountRate*total].
func (f *Factory) Invoice(appointmentID int64, total float64) *types.Invoice {
	now := f.now()
	return &types.Invoice{
		AppointmentID:  appointmentID,
		TotalAmount:    total,
		DiscountAmount: f.fake.Float(0, total*MaxDiscountRate, money.Places),
		DueDate:        f.fake.DateRange(now, now.AddDate(1, 0, 0)),
		InvoiceDate:    f.fake.DateRange(now.AddDate(0, 0, -60), now),
		Status:         types.InvoiceStatus(f.fake.Choice(invoiceStatuses())),
	}
}

// Payment draws an amount from [0, max(remaining-discount, 0)] and a date
// between invoiceDate and now.
func (f *Factory) Payment(invoiceID int64, remaining, discount float64, invoiceDate time.Time) *types.Payment {
	ceiling := PaymentCeiling(remaining, discount)
	return &types.Payment{
		InvoiceID:     invoiceID,
		Amount:        f.fake.Float(0, ceiling, money.Places),
		PaymentDate:   f.fake.DateRange(invoiceDate, f.now()),
		PaymentMethod: types.PaymentMethod(f.fake.Choice(paymentMethods())),
	}
}

// PaymentCeiling is the largest amount a payment may take given the running
// balance and the invoice discount.
func PaymentCeiling(remaining, discount float64) float64 {
	c := money.Sub(remaining, discount)
	if c < 0 {
		return 0
	}
	return c
}

func invoiceStatuses() []string {
	out := make([]string, len(types.InvoiceStatuses))
	for i, s := range types.InvoiceStatuses {
		out[i] = string(s)
	}
	return out
}

func paymentMethods() []string {
	out := make([]string, len(types.PaymentMethods))
	for i, m := range types.PaymentMethods {
		out[i] = string(m)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
