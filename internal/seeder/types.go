package seeder

import (
	"errors"
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Range is an inclusive {min, max} bound for a per-parent fan-out.
type Range struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

func (r Range) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Min, validation.Min(0)),
		validation.Field(&r.Max, validation.Min(0), validation.By(func(interface{}) error {
			if r.Max < r.Min {
				return errors.New("must be no less than min")
			}
			return nil
		})),
	)
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Options configures a full seeding run.
type Options struct {
	OfficeCount              int     `json:"office_count" mapstructure:"office_count"`
	DentistsPerOffice        Range   `json:"dentists_per_office" mapstructure:"dentists_per_office"`
	GuardianCount            int     `json:"guardian_count" mapstructure:"guardian_count"`
	ChildrenPerGuardian      Range   `json:"children_per_guardian" mapstructure:"children_per_guardian"`
	InsuranceCompanyCount    int     `json:"insurance_company_count" mapstructure:"insurance_company_count"`
	PlansPerCompany          Range   `json:"plans_per_company" mapstructure:"plans_per_company"`
	PlansPerPatient          Range   `json:"plans_per_patient" mapstructure:"plans_per_patient"`
	AppointmentsPerPatient   Range   `json:"appointments_per_patient" mapstructure:"appointments_per_patient"`
	ProceduresPerAppointment Range   `json:"procedures_per_appointment" mapstructure:"procedures_per_appointment"`
	UnpaidInvoiceLikelihood  float64 `json:"unpaid_invoice_likelihood" mapstructure:"unpaid_invoice_likelihood"`
	PaymentsPerInvoice       Range   `json:"payments_per_invoice" mapstructure:"payments_per_invoice"`
	// RandomSeed makes a run reproducible. Zero means a random seed.
	RandomSeed int64 `json:"random_seed" mapstructure:"random_seed"`
}

// DefaultOptions returns the volumes used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		OfficeCount:              5,
		DentistsPerOffice:        Range{Min: 2, Max: 15},
		GuardianCount:            20,
		ChildrenPerGuardian:      Range{Min: 1, Max: 3},
		InsuranceCompanyCount:    10,
		PlansPerCompany:          Range{Min: 1, Max: 4},
		PlansPerPatient:          Range{Min: 0, Max: 2},
		AppointmentsPerPatient:   Range{Min: 0, Max: 4},
		ProceduresPerAppointment: Range{Min: 0, Max: 3},
		UnpaidInvoiceLikelihood:  0.1,
		PaymentsPerInvoice:       Range{Min: 0, Max: 2},
	}
}

// Validate reports every invalid option at once, wrapped in a ConfigError.
func (o Options) Validate() error {
	err := validation.ValidateStruct(&o,
		validation.Field(&o.OfficeCount, validation.Min(0)),
		validation.Field(&o.DentistsPerOffice),
		validation.Field(&o.GuardianCount, validation.Min(0)),
		validation.Field(&o.ChildrenPerGuardian),
		validation.Field(&o.InsuranceCompanyCount, validation.Min(0)),
		validation.Field(&o.PlansPerCompany),
		validation.Field(&o.PlansPerPatient),
		validation.Field(&o.AppointmentsPerPatient),
		validation.Field(&o.ProceduresPerAppointment),
		validation.Field(&o.UnpaidInvoiceLikelihood,
			validation.By(func(interface{}) error {
				p := o.UnpaidInvoiceLikelihood
				if math.IsNaN(p) || p < 0 || p > 1 {
					return errors.New("must be between 0 and 1")
				}
				return nil
			}),
		),
		validation.Field(&o.PaymentsPerInvoice),
	)
	if err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

// ConfigError reports invalid options. It is returned before any stage runs.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid seed options: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StorageError wraps a store failure with the stage and table it hit.
type StorageError struct {
	Stage string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
