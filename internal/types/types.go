package types

import (
	"time"
)

const (
	TableOffices            = "offices"
	TableDentists           = "dentists"
	TableGuardians          = "guardians"
	TablePatients           = "patients"
	TableInsuranceCompanies = "insurance_companies"
	TableInsurancePlans     = "insurance_plans"
	TablePatientInsurance   = "patient_insurance"
	TableAppointments       = "appointments"
	TableProcedures         = "procedures"
	TableInvoices           = "invoices"
	TablePayments           = "payments"
)

// TableInfo describes a seeded table and the tables its foreign keys
// reference.
type TableInfo struct {
	Name       string
	PrimaryKey string
	Parents    []string
}

// Tables lists every seeded table in pipeline order.
var Tables = []TableInfo{
	{Name: TableOffices, PrimaryKey: "office_id"},
	{Name: TableDentists, PrimaryKey: "dentist_id", Parents: []string{TableOffices}},
	{Name: TableGuardians, PrimaryKey: "guardian_id"},
	{Name: TablePatients, PrimaryKey: "patient_id", Parents: []string{TableGuardians}},
	{Name: TableInsuranceCompanies, PrimaryKey: "insurance_id"},
	{Name: TableInsurancePlans, PrimaryKey: "plan_id", Parents: []string{TableInsuranceCompanies}},
	{Name: TablePatientInsurance, Parents: []string{TablePatients, TableInsurancePlans}},
	{Name: TableAppointments, PrimaryKey: "appointment_id", Parents: []string{TablePatients, TableDentists}},
	{Name: TableProcedures, PrimaryKey: "procedure_id", Parents: []string{TableAppointments}},
	{Name: TableInvoices, PrimaryKey: "invoice_id", Parents: []string{TableAppointments}},
	{Name: TablePayments, PrimaryKey: "payment_id", Parents: []string{TableInvoices}},
}

// Record is a row the seeder can persist. Values never contains the
// generated primary key; SetID receives it after the insert.
type Record interface {
	TableName() string
	PrimaryKey() string
	Values() map[string]interface{}
	SetID(id int64)
}

// CompositeKeyed is implemented by link tables keyed on several columns.
type CompositeKeyed interface {
	CompositeKey() []string
}

type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "PENDING"
	InvoicePaid     InvoiceStatus = "PAID"
	InvoiceCanceled InvoiceStatus = "CANCELED"
)

var InvoiceStatuses = []InvoiceStatus{InvoicePending, InvoicePaid, InvoiceCanceled}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentCheck      PaymentMethod = "CHECK"
	PaymentCash       PaymentMethod = "CASH"
)

var PaymentMethods = []PaymentMethod{PaymentCreditCard, PaymentCheck, PaymentCash}

type Office struct {
	OfficeID     int64   `json:"office_id" mapstructure:"office_id"`
	OfficeName   string  `json:"office_name" mapstructure:"office_name"`
	BrandName    string  `json:"brand_name" mapstructure:"brand_name"`
	AddressLine1 string  `json:"address_line_1" mapstructure:"address_line_1"`
	AddressLine2 *string `json:"address_line_2,omitempty" mapstructure:"address_line_2"`
	City         string  `json:"city" mapstructure:"city"`
	State        string  `json:"state" mapstructure:"state"`
	ZipCode      string  `json:"zip_code" mapstructure:"zip_code"`
	PhoneNumber  string  `json:"phone_number" mapstructure:"phone_number"`
}

func (Office) TableName() string  { return TableOffices }
func (Office) PrimaryKey() string { return "office_id" }
func (o *Office) SetID(id int64)  { o.OfficeID = id }

func (o *Office) Values() map[string]interface{} {
	return map[string]interface{}{
		"office_name":    o.OfficeName,
		"brand_name":     o.BrandName,
		"address_line_1": o.AddressLine1,
		"address_line_2": nullable(o.AddressLine2),
		"city":           o.City,
		"state":          o.State,
		"zip_code":       o.ZipCode,
		"phone_number":   o.PhoneNumber,
	}
}

type Dentist struct {
	DentistID int64     `json:"dentist_id" mapstructure:"dentist_id"`
	OfficeID  int64     `json:"office_id" mapstructure:"office_id"`
	FirstName string    `json:"first_name" mapstructure:"first_name"`
	LastName  string    `json:"last_name" mapstructure:"last_name"`
	Specialty *string   `json:"specialty,omitempty" mapstructure:"specialty"`
	Email     *string   `json:"email,omitempty" mapstructure:"email"`
	Phone     *string   `json:"phone,omitempty" mapstructure:"phone"`
	HiredDate time.Time `json:"hired_date" mapstructure:"hired_date"`
}

func (Dentist) TableName() string  { return TableDentists }
func (Dentist) PrimaryKey() string { return "dentist_id" }
func (d *Dentist) SetID(id int64)  { d.DentistID = id }

func (d *Dentist) Values() map[string]interface{} {
	return map[string]interface{}{
		"office_id":  d.OfficeID,
		"first_name": d.FirstName,
		"last_name":  d.LastName,
		"specialty":  nullable(d.Specialty),
		"email":      nullable(d.Email),
		"phone":      nullable(d.Phone),
		"hired_date": d.HiredDate,
	}
}

type Guardian struct {
	GuardianID     int64   `json:"guardian_id" mapstructure:"guardian_id"`
	FirstName      string  `json:"first_name" mapstructure:"first_name"`
	LastName       string  `json:"last_name" mapstructure:"last_name"`
	Relationship   string  `json:"relationship" mapstructure:"relationship"`
	PhonePrimary   string  `json:"phone_primary" mapstructure:"phone_primary"`
	PhoneSecondary *string `json:"phone_secondary,omitempty" mapstructure:"phone_secondary"`
	Email          *string `json:"email,omitempty" mapstructure:"email"`
	AddressLine1   string  `json:"address_line_1" mapstructure:"address_line_1"`
	AddressLine2   *string `json:"address_line_2,omitempty" mapstructure:"address_line_2"`
	City           string  `json:"city" mapstructure:"city"`
	State          string  `json:"state" mapstructure:"state"`
	ZipCode        string  `json:"zip_code" mapstructure:"zip_code"`
}

func (Guardian) TableName() string  { return TableGuardians }
func (Guardian) PrimaryKey() string { return "guardian_id" }
func (g *Guardian) SetID(id int64)  { g.GuardianID = id }

func (g *Guardian) Values() map[string]interface{} {
	return map[string]interface{}{
		"first_name":      g.FirstName,
		"last_name":       g.LastName,
		"relationship":    g.Relationship,
		"phone_primary":   g.PhonePrimary,
		"phone_secondary": nullable(g.PhoneSecondary),
		"email":           nullable(g.Email),
		"address_line_1":  g.AddressLine1,
		"address_line_2":  nullable(g.AddressLine2),
		"city":            g.City,
		"state":           g.State,
		"zip_code":        g.ZipCode,
	}
}

type Patient struct {
	PatientID   int64     `json:"patient_id" mapstructure:"patient_id"`
	GuardianID  int64     `json:"guardian_id" mapstructure:"guardian_id"`
	FirstName   string    `json:"first_name" mapstructure:"first_name"`
	LastName    string    `json:"last_name" mapstructure:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth" mapstructure:"date_of_birth"`
	Gender      *string   `json:"gender,omitempty" mapstructure:"gender"`
	Notes       *string   `json:"notes,omitempty" mapstructure:"notes"`
}

func (Patient) TableName() string  { return TablePatients }
func (Patient) PrimaryKey() string { return "patient_id" }
func (p *Patient) SetID(id int64)  { p.PatientID = id }

func (p *Patient) Values() map[string]interface{} {
	return map[string]interface{}{
		"guardian_id":   p.GuardianID,
		"first_name":    p.FirstName,
		"last_name":     p.LastName,
		"date_of_birth": p.DateOfBirth,
		"gender":        nullable(p.Gender),
		"notes":         nullable(p.Notes),
	}
}

type InsuranceCompany struct {
	InsuranceID  int64   `json:"insurance_id" mapstructure:"insurance_id"`
	CompanyName  string  `json:"company_name" mapstructure:"company_name"`
	Phone        string  `json:"phone" mapstructure:"phone"`
	AddressLine1 string  `json:"address_line_1" mapstructure:"address_line_1"`
	AddressLine2 *string `json:"address_line_2,omitempty" mapstructure:"address_line_2"`
	City         string  `json:"city" mapstructure:"city"`
	State        string  `json:"state" mapstructure:"state"`
	ZipCode      string  `json:"zip_code" mapstructure:"zip_code"`
}

func (InsuranceCompany) TableName() string  { return TableInsuranceCompanies }
func (InsuranceCompany) PrimaryKey() string { return "insurance_id" }
func (c *InsuranceCompany) SetID(id int64)  { c.InsuranceID = id }

func (c *InsuranceCompany) Values() map[string]interface{} {
	return map[string]interface{}{
		"company_name":   c.CompanyName,
		"phone":          c.Phone,
		"address_line_1": c.AddressLine1,
		"address_line_2": nullable(c.AddressLine2),
		"city":           c.City,
		"state":          c.State,
		"zip_code":       c.ZipCode,
	}
}

type InsurancePlan struct {
	PlanID       int64  `json:"plan_id" mapstructure:"plan_id"`
	InsuranceID  int64  `json:"insurance_id" mapstructure:"insurance_id"`
	PlanName     string `json:"plan_name" mapstructure:"plan_name"`
	CoverageType string `json:"coverage_type" mapstructure:"coverage_type"`
}

func (InsurancePlan) TableName() string  { return TableInsurancePlans }
func (InsurancePlan) PrimaryKey() string { return "plan_id" }
func (p *InsurancePlan) SetID(id int64)  { p.PlanID = id }

func (p *InsurancePlan) Values() map[string]interface{} {
	return map[string]interface{}{
		"insurance_id":  p.InsuranceID,
		"plan_name":     p.PlanName,
		"coverage_type": p.CoverageType,
	}
}

// PatientInsurance links a patient to a plan. It has no surrogate key.
type PatientInsurance struct {
	PatientID         int64      `json:"patient_id" mapstructure:"patient_id"`
	PlanID            int64      `json:"plan_id" mapstructure:"plan_id"`
	IsPrimary         bool       `json:"is_primary" mapstructure:"is_primary"`
	CoverageStartDate time.Time  `json:"coverage_start_date" mapstructure:"coverage_start_date"`
	CoverageEndDate   *time.Time `json:"coverage_end_date,omitempty" mapstructure:"coverage_end_date"`
}

func (PatientInsurance) TableName() string      { return TablePatientInsurance }
func (PatientInsurance) PrimaryKey() string     { return "" }
func (PatientInsurance) CompositeKey() []string { return []string{"patient_id", "plan_id"} }
func (l *PatientInsurance) SetID(int64)         {}

func (l *PatientInsurance) Values() map[string]interface{} {
	return map[string]interface{}{
		"patient_id":          l.PatientID,
		"plan_id":             l.PlanID,
		"is_primary":          l.IsPrimary,
		"coverage_start_date": l.CoverageStartDate,
		"coverage_end_date":   nullable(l.CoverageEndDate),
	}
}

type Appointment struct {
	AppointmentID       int64     `json:"appointment_id" mapstructure:"appointment_id"`
	PatientID           int64     `json:"patient_id" mapstructure:"patient_id"`
	DentistID           int64     `json:"dentist_id" mapstructure:"dentist_id"`
	AppointmentDatetime time.Time `json:"appointment_datetime" mapstructure:"appointment_datetime"`
	ReasonForVisit      *string   `json:"reason_for_visit,omitempty" mapstructure:"reason_for_visit"`
	Notes               *string   `json:"notes,omitempty" mapstructure:"notes"`
}

func (Appointment) TableName() string  { return TableAppointments }
func (Appointment) PrimaryKey() string { return "appointment_id" }
func (a *Appointment) SetID(id int64)  { a.AppointmentID = id }

func (a *Appointment) Values() map[string]interface{} {
	return map[string]interface{}{
		"patient_id":           a.PatientID,
		"dentist_id":           a.DentistID,
		"appointment_datetime": a.AppointmentDatetime,
		"reason_for_visit":     nullable(a.ReasonForVisit),
		"notes":                nullable(a.Notes),
	}
}

type Procedure struct {
	ProcedureID   int64   `json:"procedure_id" mapstructure:"procedure_id"`
	AppointmentID int64   `json:"appointment_id" mapstructure:"appointment_id"`
	ProcedureCode string  `json:"procedure_code" mapstructure:"procedure_code"`
	Description   string  `json:"description" mapstructure:"description"`
	StandardCost  float64 `json:"standard_cost" mapstructure:"standard_cost"`
}

func (Procedure) TableName() string  { return TableProcedures }
func (Procedure) PrimaryKey() string { return "procedure_id" }
func (p *Procedure) SetID(id int64)  { p.ProcedureID = id }

func (p *Procedure) Values() map[string]interface{} {
	return map[string]interface{}{
		"appointment_id": p.AppointmentID,
		"procedure_code": p.ProcedureCode,
		"description":    p.Description,
		"standard_cost":  p.StandardCost,
	}
}

// Invoice. final_amount is computed by the database and is never written.
type Invoice struct {
	InvoiceID      int64         `json:"invoice_id" mapstructure:"invoice_id"`
	AppointmentID  int64         `json:"appointment_id" mapstructure:"appointment_id"`
	TotalAmount    float64       `json:"total_amount" mapstructure:"total_amount"`
	DiscountAmount float64       `json:"discount_amount" mapstructure:"discount_amount"`
	DueDate        time.Time     `json:"due_date" mapstructure:"due_date"`
	InvoiceDate    time.Time     `json:"invoice_date" mapstructure:"invoice_date"`
	Status         InvoiceStatus `json:"status" mapstructure:"status"`
}

func (Invoice) TableName() string  { return TableInvoices }
func (Invoice) PrimaryKey() string { return "invoice_id" }
func (i *Invoice) SetID(id int64)  { i.InvoiceID = id }

func (i *Invoice) Values() map[string]interface{} {
	return map[string]interface{}{
		"appointment_id":  i.AppointmentID,
		"total_amount":    i.TotalAmount,
		"discount_amount": i.DiscountAmount,
		"due_date":        i.DueDate,
		"invoice_date":    i.InvoiceDate,
		"status":          string(i.Status),
	}
}

type Payment struct {
	PaymentID     int64         `json:"payment_id" mapstructure:"payment_id"`
	InvoiceID     int64         `json:"invoice_id" mapstructure:"invoice_id"`
	Amount        float64       `json:"amount" mapstructure:"amount"`
	PaymentDate   time.Time     `json:"payment_date" mapstructure:"payment_date"`
	PaymentMethod PaymentMethod `json:"payment_method" mapstructure:"payment_method"`
}

func (Payment) TableName() string  { return TablePayments }
func (Payment) PrimaryKey() string { return "payment_id" }
func (p *Payment) SetID(id int64)  { p.PaymentID = id }

func (p *Payment) Values() map[string]interface{} {
	return map[string]interface{}{
		"invoice_id":     p.InvoiceID,
		"amount":         p.Amount,
		"payment_date":   p.PaymentDate,
		"payment_method": string(p.PaymentMethod),
	}
}

func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
