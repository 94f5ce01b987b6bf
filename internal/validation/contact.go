package validation

import (
	"net/url"
	"strings"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/model"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/validator"
)

const (
	msgFirstNameRequired = "First name is required"
	msgLastNameRequired  = "Last name is required"
	msgAccountMgrNeeded  = "Account manager is required"
	msgOrgRequired       = "Organization is required - contacts cannot exist without an organization"
	msgSelfManager       = "Contact cannot be their own manager"
	msgManagersDiffer    = "Primary and secondary account managers must be different"
	msgInvalidEmail      = "Must be a valid email address"
	msgLinkedinOnly      = "URL must be from linkedin.com"
)

// EntryInput is one email/phone tuple as sent by the form's row iterator.
type EntryInput struct {
	Value string `json:"value" validate:"omitempty,max=255"`
	Type  string `json:"type" validate:"omitempty,oneof=work home other"`
}

// ContactInput is the shared field set for contact writes.
type ContactInput struct {
	ID        model.FlexID `json:"id"`
	Name      *string      `json:"name" validate:"omitempty,max=255"`
	FirstName *string      `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=100"`

	Email []EntryInput `json:"email" validate:"omitempty,max=10,dive"`
	Phone []EntryInput `json:"phone" validate:"omitempty,max=10,dive"`

	Title       *string `json:"title" validate:"omitempty,max=100"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	LinkedinURL *string `json:"linkedin_url" validate:"omitempty,max=2048"`

	OrganizationID   model.FlexID `json:"organization_id"`
	SalesID          model.FlexID `json:"sales_id"`
	SecondarySalesID model.FlexID `json:"secondary_sales_id"`
	ManagerID        model.FlexID `json:"manager_id"`

	Notes      *string        `json:"notes" validate:"omitempty,max=5000"`
	Address    *string        `json:"address" validate:"omitempty,max=500"`
	City       *string        `json:"city" validate:"omitempty,max=100"`
	State      *string        `json:"state" validate:"omitempty,max=100"`
	PostalCode *string        `json:"postal_code" validate:"omitempty,max=20"`
	Country    *string        `json:"country" validate:"omitempty,max=100"`
	Birthday   model.FlexDate `json:"birthday"`
	Gender     *string        `json:"gender" validate:"omitempty,max=50"`

	Tags   []model.FlexInt `json:"tags"`
	Status *string         `json:"status" validate:"omitempty,max=50"`

	// QuickCreate switches to the reduced "just use a name" path. The flag is
	// not stored; it only selects the refinement set.
	QuickCreate bool `json:"quickCreate"`
}

// normalize trims text fields, sanitizes notes, and drops the empty
// email/phone rows the form's row iterator leaves behind when a user adds a
// row without filling it.
func (in *ContactInput) normalize() {
	trim(in.Name)
	trim(in.FirstName)
	trim(in.LastName)
	trim(in.Title)
	trim(in.Department)
	sanitize(in.Notes)

	in.Email = dropEmptyEntries(in.Email)
	in.Phone = dropEmptyEntries(in.Phone)

	// Compute name from first + last when absent.
	if isBlank(in.Name) && (!isBlank(in.FirstName) || !isBlank(in.LastName)) {
		var parts []string
		if !isBlank(in.FirstName) {
			parts = append(parts, *in.FirstName)
		}
		if !isBlank(in.LastName) {
			parts = append(parts, *in.LastName)
		}
		full := strings.Join(parts, " ")
		in.Name = &full
	}
}

func dropEmptyEntries(entries []EntryInput) []EntryInput {
	if entries == nil {
		return nil
	}
	kept := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e.Value) != "" {
			kept = append(kept, e)
		}
	}
	return kept
}

func (in *ContactInput) checkScalars() validator.Issues {
	var issues validator.Issues
	for path, id := range map[string]model.FlexID{
		"id":                 in.ID,
		"organization_id":    in.OrganizationID,
		"sales_id":           in.SalesID,
		"secondary_sales_id": in.SecondarySalesID,
		"manager_id":         in.ManagerID,
	} {
		if id.Set() && !id.Valid() {
			issues.Add(path, msgInvalidID)
		}
	}
	if in.Birthday.Set() && !in.Birthday.Valid() {
		issues.Add("birthday", msgInvalidDate)
	}
	for i, tag := range in.Tags {
		if !tag.Valid() || tag.Int64() <= 0 {
			issues.Add(joinPath("tags", i), msgPositiveNumber)
		}
	}
	return issues
}

// refineShared holds the rules common to every contact write.
func (in *ContactInput) refineShared() validator.Issues {
	var issues validator.Issues

	// Per-entry email format, reported at the row the form rendered.
	for i, entry := range in.Email {
		if err := validator.ValidateVar(entry.Value, "email"); err != nil {
			issues.Add(joinPath("email", i)+".value", msgInvalidEmail)
		}
	}

	if in.LinkedinURL != nil && *in.LinkedinURL != "" {
		if !isLinkedinURL(*in.LinkedinURL) {
			issues.Add("linkedin_url", msgLinkedinOnly)
		}
	}

	// Self-reference: a contact cannot manage themselves.
	if in.ManagerID.Valid() && in.ID.Valid() && in.ManagerID.String() == in.ID.String() {
		issues.Add("manager_id", msgSelfManager)
	}
	if in.SalesID.Valid() && in.SecondarySalesID.Valid() && in.SalesID.String() == in.SecondarySalesID.String() {
		issues.Add("secondary_sales_id", msgManagersDiffer)
	}

	return issues
}

func isLinkedinURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := strings.ToLower(parsed.Host)
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

// ParseCreateContact validates a contact create payload. When the
// quickCreate flag is on, only first_name (plus organization and account
// manager) is required; the full path also requires last_name.
func ParseCreateContact(data interface{}) (*ContactInput, error) {
	var in ContactInput
	issues := decode(data, &in)
	if !issues.Empty() {
		return nil, issues.ToError()
	}

	in.normalize()
	issues.Merge(validator.CheckStruct(&in))
	issues.Merge(in.checkScalars())

	if isBlank(in.FirstName) {
		issues.Add("first_name", msgFirstNameRequired)
	}
	if !in.QuickCreate && isBlank(in.LastName) {
		issues.Add("last_name", msgLastNameRequired)
	}
	if !in.SalesID.Valid() {
		issues.Add("sales_id", msgAccountMgrNeeded)
	}
	if !in.OrganizationID.Valid() {
		issues.Add("organization_id", msgOrgRequired)
	}

	issues.Merge(in.refineShared())

	if err := issues.ToError(); err != nil {
		return nil, err
	}
	return &in, nil
}

// ValidateCreateContact runs the contact create schema and reports failures
// as a structured ValidationError.
func ValidateCreateContact(data interface{}) error {
	_, err := ParseCreateContact(data)
	return err
}

// ParseUpdateContact validates a partial contact update.
func ParseUpdateContact(data interface{}) (*ContactInput, error) {
	var in ContactInput
	issues := decode(data, &in)
	if !issues.Empty() {
		return nil, issues.ToError()
	}

	in.normalize()
	issues.Merge(validator.CheckStruct(&in))
	issues.Merge(in.checkScalars())

	if in.FirstName != nil && *in.FirstName == "" {
		issues.Add("first_name", msgFirstNameRequired)
	}
	if in.LastName != nil && *in.LastName == "" {
		issues.Add("last_name", msgLastNameRequired)
	}

	issues.Merge(in.refineShared())

	if err := issues.ToError(); err != nil {
		return nil, err
	}
	return &in, nil
}

// ValidateUpdateContact runs the contact update schema and reports failures
// as a structured ValidationError.
func ValidateUpdateContact(data interface{}) error {
	_, err := ParseUpdateContact(data)
	return err
}
