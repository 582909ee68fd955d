// Package model contains domain models passed between layers.
package model

import "time"

// TargetKind distinguishes course targets from job targets.
type TargetKind string

const (
	KindCourse TargetKind = "course"
	KindJob    TargetKind = "job"
)

// TargetStatus is the lifecycle status of a course or job posting.
type TargetStatus string

const (
	TargetActive   TargetStatus = "active"
	TargetClosed   TargetStatus = "closed"
	TargetArchived TargetStatus = "archived"
)

// Education is one education entry on a candidate profile.
type Education struct {
	Level       string  `json:"level"`
	Field       string  `json:"field"`
	GPA         float64 `json:"gpa"`
	Institution string  `json:"institution"`
	StartYear   int     `json:"startYear"`
	EndYear     int     `json:"endYear"`
}

// WorkExperience is one work history entry on a candidate profile.
type WorkExperience struct {
	Position  string  `json:"position"`
	Company   string  `json:"company"`
	Years     float64 `json:"years"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
}

// Certificate is one certificate entry on a candidate profile.
type Certificate struct {
	Name      string `json:"name"`
	Issuer    string `json:"issuer"`
	IssueDate string `json:"issueDate"`
}

// Candidate is the student profile snapshot used as scoring input.
// Scoring never mutates it.
type Candidate struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Education         []Education      `json:"education"`
	Skills            []string         `json:"skills"`
	WorkExperience    []WorkExperience `json:"workExperience"`
	Certificates      []Certificate    `json:"certificates"`
	PreferredLocation string           `json:"preferredLocation,omitempty"`
}

// RequirementSet is the qualification criteria attached to a job or course,
// plus the posting fields the application flow denormalizes.
type RequirementSet struct {
	ID          string       `json:"id"`
	Kind        TargetKind   `json:"kind"`
	OwnerID     string       `json:"ownerId"` // institution or company id
	OwnerName   string       `json:"ownerName"`
	Title       string       `json:"title"`
	Location    string       `json:"location,omitempty"`
	Status      TargetStatus `json:"status"`

	Education            string   `json:"education,omitempty"`
	ExperienceLevel      string   `json:"experienceLevel,omitempty"`
	Skills               []string `json:"skills,omitempty"`
	MinGPA               float64  `json:"minGPA,omitempty"`
	RequiredCertificates []string `json:"requiredCertificates,omitempty"`
}

// ApplicationStatus is the lifecycle status of an application.
// Course applications move through pending/admitted/accepted/rejected;
// job applications use pending/shortlisted/interview/rejected.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusAdmitted    ApplicationStatus = "admitted"
	StatusAccepted    ApplicationStatus = "accepted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInterview   ApplicationStatus = "interview"
)

// Application records a student's application to a course or job.
// Target and owner display fields are denormalized at creation time
// so reads do not require joins; enrichment re-fetches them on demand.
type Application struct {
	ID              string            `json:"id"`
	StudentID       string            `json:"studentId"`
	TargetID        string            `json:"targetId"`
	TargetKind      TargetKind        `json:"targetKind"`
	OwnerID         string            `json:"ownerId"`
	OwnerName       string            `json:"ownerName,omitempty"`
	TargetTitle     string            `json:"targetTitle,omitempty"`
	Status          ApplicationStatus `json:"status"`
	StudentSelected bool              `json:"studentSelected"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	AppliedAt       time.Time         `json:"appliedAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	ReviewedAt      *time.Time        `json:"reviewedAt,omitempty"`
	ReviewedBy      string            `json:"reviewedBy,omitempty"`
	SelectedAt      *time.Time        `json:"selectedAt,omitempty"`
}

// Notification is a user-facing event recorded by the core.
// Delivery is handled by a separate system.
type Notification struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	Type                 string    `json:"type"`
	Title                string    `json:"title"`
	Message              string    `json:"message"`
	RelatedApplicationID string    `json:"relatedApplicationId,omitempty"`
	Read                 bool      `json:"read"`
	CreatedAt            time.Time `json:"createdAt"`
}
