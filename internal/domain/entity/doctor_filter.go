package entity

// DoctorFilter is a domain-level filter for listing active doctors.
// Used by repository layer to avoid coupling with delivery DTOs.
type DoctorFilter struct {
	Specialization string // ILIKE match, empty means any
}
