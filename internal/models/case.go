package models

import "time"

// Case types.
const (
	CaseTypePrimary  = "Primary"
	CaseTypeRevision = "Revision"
)

// User status values recorded against a case.
const (
	StatusEstimated = "EST"
	StatusIn        = "IN"
	StatusValidated = "VAL"
)

// Extremities.
const (
	ExtremityUpper = "UE"
	ExtremityLower = "LE"
)

// Case is a surgical-procedure record. SurvivalDays and SurvivalWeeks are
// derived from OpDate when the case is read and are never persisted.
type Case struct {
	CaseNumber         string     `json:"caseNumber"`
	NervesTreated      int        `json:"nervesTreated"`
	OpDate             time.Time  `json:"opDate"`
	CaseType           string     `json:"caseType"`
	ClinicalSystem     string     `json:"clinicalSystem"`
	Site               string     `json:"site"`
	Surgeon            string     `json:"surgeon"`
	UserStatus         string     `json:"userStatus"`
	Specialty          string     `json:"specialty"`
	Extremity          string     `json:"extremity"`
	SurgeryDescription string     `json:"surgeryDescription"`
	NeuromaCase        bool       `json:"neuromaCase"`
	CaseStudy          bool       `json:"caseStudy"`
	Region             string     `json:"region"`
	SurvivalDays       int        `json:"survivalDays"`
	SurvivalWeeks      int        `json:"survivalWeeks"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	DeletedAt          *time.Time `json:"deletedAt,omitempty"`
}
