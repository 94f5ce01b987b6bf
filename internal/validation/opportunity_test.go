package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/model"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	verr, ok := apperrors.AsValidationError(err)
	require.True(t, ok, "expected a ValidationError, got %T: %v", err, err)
	assert.Equal(t, "Validation failed", verr.Message)
	return verr.Errors
}

func validOpportunityCreate() map[string]interface{} {
	return map[string]interface{}{
		"name":                      "McCRUM - Sysco",
		"stage":                     "new_lead",
		"priority":                  "high",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
		"contact_ids":               []interface{}{1, 2, 3},
	}
}

func TestCreateOpportunityHappyPath(t *testing.T) {
	in, err := ParseCreateOpportunity(validOpportunityCreate())
	require.NoError(t, err)
	assert.Equal(t, "McCRUM - Sysco", *in.Name)
	assert.Equal(t, "customer-1", in.CustomerOrganizationID.String())
}

func TestCreateOpportunityRequiredPartition(t *testing.T) {
	errs := fieldErrors(t, ValidateCreateOpportunity(map[string]interface{}{}))

	assert.Equal(t, "Opportunity name is required", errs["name"])
	assert.Equal(t, "Stage is required", errs["stage"])
	assert.Equal(t, "Priority is required", errs["priority"])
	assert.Equal(t, "Customer organization is required", errs["customer_organization_id"])
	assert.Equal(t, "Principal organization is required", errs["principal_organization_id"])
	assert.Equal(t, "At least one contact is required", errs["contact_ids"])
}

func TestCreateOpportunityContactOrderPreserved(t *testing.T) {
	payload := validOpportunityCreate()
	payload["contact_ids"] = []interface{}{3, 1, 3}

	in, err := ParseCreateOpportunity(payload)
	require.NoError(t, err)

	got := make([]int64, 0, len(in.ContactIDs))
	for _, id := range in.ContactIDs {
		got = append(got, id.Int64())
	}
	// Order preserved, duplicates untouched.
	assert.Equal(t, []int64{3, 1, 3}, got)
}

func TestCreateOpportunityContactCoercion(t *testing.T) {
	payload := validOpportunityCreate()
	payload["contact_ids"] = []interface{}{"1", "2"}

	in, err := ParseCreateOpportunity(payload)
	require.NoError(t, err)
	assert.Equal(t, int64(1), in.ContactIDs[0].Int64())

	payload["contact_ids"] = []interface{}{"@@ra-create", 2}
	errs := fieldErrors(t, ValidateCreateOpportunity(payload))
	assert.Equal(t, "must be a positive number", errs["contact_ids.0"])

	payload["contact_ids"] = []interface{}{-4}
	errs = fieldErrors(t, ValidateCreateOpportunity(payload))
	assert.Equal(t, "must be a positive number", errs["contact_ids.0"])
}

func TestCreateOpportunityDefaultsEstimatedClose(t *testing.T) {
	in, err := ParseCreateOpportunity(validOpportunityCreate())
	require.NoError(t, err)
	require.True(t, in.EstimatedCloseDate.Valid())

	want := utils.DefaultEstimatedClose()
	assert.WithinDuration(t, want, in.EstimatedCloseDate.Time(), time.Minute)

	// A supplied date is untouched.
	payload := validOpportunityCreate()
	payload["estimated_close_date"] = "2026-11-01"
	in, err = ParseCreateOpportunity(payload)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), in.EstimatedCloseDate.Time())
}

func TestCreateOpportunityNoDefaultOnFailure(t *testing.T) {
	payload := validOpportunityCreate()
	delete(payload, "name")

	_, err := ParseCreateOpportunity(payload)
	require.Error(t, err)
}

func TestCreateOpportunityNameTooLong(t *testing.T) {
	payload := validOpportunityCreate()
	payload["name"] = strings.Repeat("x", 256)

	errs := fieldErrors(t, ValidateCreateOpportunity(payload))
	assert.Equal(t, "must not exceed 255 characters", errs["name"])
}

func TestCreateOpportunityUnknownField(t *testing.T) {
	payload := validOpportunityCreate()
	payload["stagee"] = "new_lead"

	errs := fieldErrors(t, ValidateCreateOpportunity(payload))
	assert.Equal(t, "is not a recognized field", errs["stagee"])
}

func TestCreateOpportunityInvalidEnum(t *testing.T) {
	payload := validOpportunityCreate()
	payload["stage"] = "archived"

	errs := fieldErrors(t, ValidateCreateOpportunity(payload))
	assert.Contains(t, errs["stage"], "must be one of")
}

func TestCreateOpportunitySanitizesRichText(t *testing.T) {
	payload := validOpportunityCreate()
	payload["description"] = `hello <script>alert("x")</script>world`

	in, err := ParseCreateOpportunity(payload)
	require.NoError(t, err)
	assert.NotContains(t, *in.Description, "<script>")
	assert.Contains(t, *in.Description, "hello")
}

func TestUpdateStageOnlyNonClosedStages(t *testing.T) {
	for _, stage := range model.OpportunityStages() {
		if stage.IsClosed() {
			continue
		}
		t.Run(string(stage), func(t *testing.T) {
			err := ValidateUpdateOpportunity(map[string]interface{}{
				"id":    "opp-1",
				"stage": string(stage),
			})
			assert.NoError(t, err)
		})
	}
}

func TestUpdateStageOnlyWithEmptyContacts(t *testing.T) {
	// A Kanban drag carries the board's contact_ids verbatim, sometimes
	// empty; a drag to a non-closed column must not trip the minimum.
	err := ValidateUpdateOpportunity(map[string]interface{}{
		"id":          "opp-1",
		"stage":       "demo_scheduled",
		"contact_ids": []interface{}{},
	})
	assert.NoError(t, err)
}

func TestUpdateContactsOnlyEditKeepsMinimum(t *testing.T) {
	errs := fieldErrors(t, ValidateUpdateOpportunity(map[string]interface{}{
		"id":          "opp-1",
		"contact_ids": []interface{}{},
	}))
	assert.Equal(t, "At least one contact is required", errs["contact_ids"])
}

func TestUpdateFullFormSkipsContactsMinimum(t *testing.T) {
	// At or above the field-count threshold the payload is treated as a
	// full form submission even with empty contacts.
	err := ValidateUpdateOpportunity(map[string]interface{}{
		"id":                        "opp-1",
		"name":                      "Renamed Deal",
		"stage":                     "initial_outreach",
		"priority":                  "low",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
		"contact_ids":               []interface{}{},
	})
	assert.NoError(t, err)
}

func TestUpdateClosedWonRequiresWinReason(t *testing.T) {
	errs := fieldErrors(t, ValidateUpdateOpportunity(map[string]interface{}{
		"id":    "opp-1",
		"stage": "closed_won",
	}))
	assert.Equal(t, "Win reason is required when closing as won", errs["win_reason"])

	err := ValidateUpdateOpportunity(map[string]interface{}{
		"id":         "opp-1",
		"stage":      "closed_won",
		"win_reason": "relationship",
	})
	assert.NoError(t, err)
}

func TestUpdateClosedLostRequiresLossReason(t *testing.T) {
	errs := fieldErrors(t, ValidateUpdateOpportunity(map[string]interface{}{
		"id":    "opp-1",
		"stage": "closed_lost",
	}))
	assert.Equal(t, "Loss reason is required when closing as lost", errs["loss_reason"])
}

func TestUpdateOtherReasonNeedsNotes(t *testing.T) {
	errs := fieldErrors(t, ValidateUpdateOpportunity(map[string]interface{}{
		"id":         "opp-1",
		"stage":      "closed_won",
		"win_reason": "other",
	}))
	assert.Equal(t, "Please specify the reason in notes when selecting 'Other'", errs["close_reason_notes"])

	// Whitespace-only notes do not count.
	errs = fieldErrors(t, ValidateUpdateOpportunity(map[string]interface{}{
		"id":                 "opp-1",
		"stage":              "closed_lost",
		"loss_reason":        "other",
		"close_reason_notes": "   ",
	}))
	assert.Equal(t, "Please specify the reason in notes when selecting 'Other'", errs["close_reason_notes"])

	err := ValidateUpdateOpportunity(map[string]interface{}{
		"id":                 "opp-1",
		"stage":              "closed_won",
		"win_reason":         "other",
		"close_reason_notes": "custom pricing arrangement",
	})
	assert.NoError(t, err)
}

func TestUpdateClosedStageNeverBypassesReasons(t *testing.T) {
	// Even a payload above the full-form threshold must carry a reason
	// when moving into a closed stage.
	errs := fieldErrors(t, ValidateUpdateOpportunity(map[string]interface{}{
		"id":                        "opp-1",
		"name":                      "Deal",
		"stage":                     "closed_won",
		"priority":                  "high",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
	}))
	assert.Equal(t, "Win reason is required when closing as won", errs["win_reason"])
}

func TestUpdateRequiresID(t *testing.T) {
	errs := fieldErrors(t, ValidateUpdateOpportunity(map[string]interface{}{
		"stage": "new_lead",
	}))
	assert.Equal(t, "is required", errs["id"])
}

func TestUpdateReValidationIsIdempotent(t *testing.T) {
	in, err := ParseUpdateOpportunity(map[string]interface{}{
		"id":          "opp-1",
		"name":        "Deal",
		"stage":       "demo_scheduled",
		"contact_ids": []interface{}{1, 2},
	})
	require.NoError(t, err)

	// Feeding parsed output back through the schema must not surface new
	// violations.
	again, err := ParseUpdateOpportunity(in)
	require.NoError(t, err)
	assert.Equal(t, in.ContactIDs, again.ContactIDs)
	assert.Equal(t, *in.Name, *again.Name)
}

func TestQuickCreateRequiresExplicitStatusAndPriority(t *testing.T) {
	base := map[string]interface{}{
		"name":                      "Board Add",
		"stage":                     "new_lead",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
	}

	errs := fieldErrors(t, ValidateQuickCreateOpportunity(base))
	assert.Equal(t, "Status must be provided as 'active'", errs["status"])
	assert.Equal(t, "Priority is required", errs["priority"])

	// A wrong literal is as bad as a missing one.
	base["status"] = "on_hold"
	base["priority"] = "medium"
	errs = fieldErrors(t, ValidateQuickCreateOpportunity(base))
	assert.Equal(t, "Status must be provided as 'active'", errs["status"])

	base["status"] = "active"
	in, err := ParseQuickCreateOpportunity(base)
	require.NoError(t, err)
	assert.Equal(t, "active", *in.Status)
	assert.Equal(t, "medium", *in.Priority)
	// The only default applied is the schema's own estimated close fill.
	assert.True(t, in.EstimatedCloseDate.Valid())
}

func TestQuickCreateRejectsUnknownFields(t *testing.T) {
	errs := fieldErrors(t, ValidateQuickCreateOpportunity(map[string]interface{}{
		"name":                      "Board Add",
		"stage":                     "new_lead",
		"status":                    "active",
		"priority":                  "low",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
		"description":               "not part of quick create",
	}))
	assert.Equal(t, "is not a recognized field", errs["description"])
}

func TestCloseOpportunityRefinementChain(t *testing.T) {
	errs := fieldErrors(t, ValidateCloseOpportunity(map[string]interface{}{
		"id":    "opp-1",
		"stage": "closed_won",
	}))
	assert.Equal(t, "Win reason is required when closing as won", errs["win_reason"])

	errs = fieldErrors(t, ValidateCloseOpportunity(map[string]interface{}{
		"id":    "opp-1",
		"stage": "closed_lost",
	}))
	assert.Equal(t, "Loss reason is required when closing as lost", errs["loss_reason"])

	errs = fieldErrors(t, ValidateCloseOpportunity(map[string]interface{}{
		"id":          "opp-1",
		"stage":       "closed_lost",
		"loss_reason": "other",
	}))
	assert.Equal(t, "Please specify the reason in notes when selecting 'Other'", errs["close_reason_notes"])

	err := ValidateCloseOpportunity(map[string]interface{}{
		"id":         "opp-1",
		"stage":      "closed_won",
		"win_reason": "price",
	})
	assert.NoError(t, err)
}

func TestCloseOpportunityRejectsOpenStages(t *testing.T) {
	errs := fieldErrors(t, ValidateCloseOpportunity(map[string]interface{}{
		"id":    "opp-1",
		"stage": "demo_scheduled",
	}))
	assert.Contains(t, errs["stage"], "must be one of")
}

func TestParsePayloadVariants(t *testing.T) {
	// Raw JSON bytes and maps must be interchangeable.
	raw := []byte(`{"id": "opp-1", "stage": "new_lead"}`)
	_, err := ParseUpdateOpportunity(raw)
	assert.NoError(t, err)

	_, err = ParseUpdateOpportunity(nil)
	require.Error(t, err)

	errs := fieldErrors(t, ValidateUpdateOpportunity([]byte(`{not json`)))
	assert.Contains(t, errs, "")
}
