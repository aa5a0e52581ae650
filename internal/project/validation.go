package project

import (
	"strings"
	"unicode/utf8"
)

// Field limits.
const (
	MaxNameLength    = 200
	MaxDetailsLength = 2000
)

// NewInput is the payload for starting a project. Empty optional fields take
// their defaults.
type NewInput struct {
	ProjectName    string `json:"projectName"`
	ProjectDetails string `json:"projectDetails,omitempty"`
	Progress       string `json:"progress,omitempty"`
	Urgency        string `json:"urgency,omitempty"`
	TargetDate     string `json:"targetDate,omitempty"`
}

// EditInput is a partial project edit. Nil fields are left unchanged.
type EditInput struct {
	ProjectName    *string `json:"projectName,omitempty"`
	ProjectDetails *string `json:"projectDetails,omitempty"`
	Progress       *string `json:"progress,omitempty"`
	Urgency        *string `json:"urgency,omitempty"`
	TargetDate     *string `json:"targetDate,omitempty"`
}

// Empty reports whether the edit changes nothing.
func (in *EditInput) Empty() bool {
	return in.ProjectName == nil && in.ProjectDetails == nil && in.Progress == nil &&
		in.Urgency == nil && in.TargetDate == nil
}

// draft is a validated set of project attributes.
type draft struct {
	name       *string
	details    *string
	progress   *Progress
	urgency    *Urgency
	targetDate *Date
}

func (in *NewInput) validate() (draft, error) {
	var d draft

	name := strings.TrimSpace(in.ProjectName)
	if name == "" {
		return d, invalid("projectName", "Project name is required")
	}
	if err := validateName(name); err != nil {
		return d, err
	}
	d.name = &name

	if in.ProjectDetails != "" {
		if err := validateDetails(in.ProjectDetails); err != nil {
			return d, err
		}
		d.details = &in.ProjectDetails
	}

	progress := ProgressNotStarted
	if in.Progress != "" {
		progress = Progress(in.Progress)
		if !progress.Valid() {
			return d, progressError()
		}
	}
	d.progress = &progress

	urgency := UrgencyNormal
	if in.Urgency != "" {
		urgency = Urgency(in.Urgency)
		if !urgency.Valid() {
			return d, urgencyError()
		}
	}
	d.urgency = &urgency

	if in.TargetDate != "" {
		date, err := ParseDate(in.TargetDate)
		if err != nil {
			return d, dateError()
		}
		d.targetDate = &date
	}
	return d, nil
}

func (in *EditInput) validate() (draft, error) {
	var d draft

	if in.ProjectName != nil {
		name := strings.TrimSpace(*in.ProjectName)
		if name == "" {
			return d, invalid("projectName", "Project name is required")
		}
		if err := validateName(name); err != nil {
			return d, err
		}
		d.name = &name
	}
	if in.ProjectDetails != nil {
		if err := validateDetails(*in.ProjectDetails); err != nil {
			return d, err
		}
		d.details = in.ProjectDetails
	}
	if in.Progress != nil {
		p := Progress(*in.Progress)
		if !p.Valid() {
			return d, progressError()
		}
		d.progress = &p
	}
	if in.Urgency != nil {
		u := Urgency(*in.Urgency)
		if !u.Valid() {
			return d, urgencyError()
		}
		d.urgency = &u
	}
	if in.TargetDate != nil {
		date, err := ParseDate(*in.TargetDate)
		if err != nil {
			return d, dateError()
		}
		d.targetDate = &date
	}
	return d, nil
}

// apply merges the present draft fields into p.
func (d draft) apply(p *Project) {
	if d.name != nil {
		p.Name = *d.name
	}
	if d.details != nil {
		p.Details = *d.details
	}
	if d.progress != nil {
		p.Progress = *d.progress
	}
	if d.urgency != nil {
		p.Urgency = *d.urgency
	}
	if d.targetDate != nil {
		p.TargetDate = d.targetDate
	}
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalid("projectName", "Project name cannot exceed 200 characters")
	}
	return nil
}

func validateDetails(details string) error {
	if utf8.RuneCountInString(details) > MaxDetailsLength {
		return invalid("projectDetails", "Project details cannot exceed 2000 characters")
	}
	return nil
}

func progressError() error {
	return invalid("progress", "Progress must be not_started, working, or finished")
}

func urgencyError() error {
	return invalid("urgency", "Urgency must be minimal, normal, or critical")
}

func dateError() error {
	return invalid("targetDate", "Target date must be a valid date format")
}
