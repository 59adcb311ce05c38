// Package survey contains the scenarios exercising the survey management
// application, together with the page helpers they share.
package survey

import (
	"github.com/networkteam/surveyprobe/scenario"
)

// Scenarios returns the catalog in its declared order.
func Scenarios() []scenario.Scenario {
	return []scenario.Scenario{
		{
			Order:       1,
			Name:        "signup",
			Description: "Sign up a new organization and its administrator",
			Produces:    []scenario.Key{KeyOrgName, KeyAdminEmail},
			Run:         signup,
		},
		{
			Order:       2,
			Name:        "signup-duplicate-organization",
			Description: "Reject an organization name that is already taken",
			Requires:    []scenario.Key{KeyOrgName},
			Run:         signupDuplicateOrganization,
		},
		{
			Order:       3,
			Name:        "login-success",
			Description: "Sign in as administrator",
			Requires:    []scenario.Key{KeyAdminEmail},
			Run:         loginSuccess,
		},
		{
			Order:       4,
			Name:        "signup-join-by-invite-code",
			Description: "Join the organization with the invitation code read by the administrator",
			Requires:    []scenario.Key{KeyAdminEmail},
			Produces:    []scenario.Key{KeyMemberEmail},
			Run:         joinByInviteCode,
		},
		{
			Order:       5,
			Name:        "login-wrong-credentials",
			Description: "Reject unknown credentials",
			Run:         loginWrongCredentials,
		},
		{
			Order:       6,
			Name:        "survey-create-and-search",
			Description: "Create the test surveys and find one by search",
			Requires:    []scenario.Key{KeyAdminEmail},
			Produces:    []scenario.Key{KeySurveyAllInOne, KeySurveyOneByOne},
			Run:         surveyCreateAndSearch,
		},
		{
			Order:       7,
			Name:        "survey-edit-lock-unlock-delete",
			Description: "Edit, lock, unlock and delete a survey",
			Requires:    []scenario.Key{KeyAdminEmail},
			Produces:    []scenario.Key{KeySurveyFullFlow},
			Removes:     []scenario.Key{KeySurveyFullFlow},
			Run:         surveyEditLockUnlockDelete,
		},
		{
			Order:       8,
			Name:        "question-create-variants",
			Description: "Create a question of every type",
			Requires:    []scenario.Key{KeyAdminEmail},
			Produces:    []scenario.Key{KeyQuestionBank},
			Run:         questionCreateVariants,
		},
		{
			Order:       9,
			Name:        "question-edit-lock-unlock-delete",
			Description: "Edit a question's options, lock, unlock and delete it",
			Requires:    []scenario.Key{KeyAdminEmail},
			Run:         questionEditLockUnlockDelete,
		},
		{
			Order:       10,
			Name:        "survey-attach-questions-all-in-one",
			Description: "Attach existing questions to the all-in-one survey, create one in place and remove it",
			Requires:    []scenario.Key{KeySurveyAllInOne, KeyQuestionBank},
			Run:         surveyAttachQuestionsAllInOne,
		},
		{
			Order:       11,
			Name:        "survey-attach-questions-one-by-one",
			Description: "Attach existing questions to the one-by-one survey",
			Requires:    []scenario.Key{KeySurveyOneByOne, KeyQuestionBank},
			Run:         surveyAttachQuestionsOneByOne,
		},
		{
			Order:       12,
			Name:        "role-create",
			Description: "Create a role with read permissions",
			Requires:    []scenario.Key{KeyAdminEmail},
			Produces:    []scenario.Key{KeyRoleName},
			Run:         roleCreate,
		},
		{
			Order:       13,
			Name:        "department-team-create",
			Description: "Create a department and a team in it",
			Requires:    []scenario.Key{KeyAdminEmail},
			Produces:    []scenario.Key{KeyDepartmentName, KeyTeamName},
			Run:         departmentTeamCreate,
		},
		{
			Order:       14,
			Name:        "user-create-assign-role",
			Description: "Create a user and assign the role",
			Requires:    []scenario.Key{KeyRoleName},
			Produces:    []scenario.Key{KeyUserName},
			Run:         userCreateAssignRole,
		},
		{
			Order:       15,
			Name:        "user-assign-department-team",
			Description: "Assign the user to the department and the team",
			Requires:    []scenario.Key{KeyUserName, KeyDepartmentName, KeyTeamName},
			Run:         userAssignDepartmentTeam,
		},
		{
			Order:       16,
			Name:        "survey-publish-assign",
			Description: "Publish both surveys and assign them to the department and the team",
			Requires:    []scenario.Key{KeySurveyAllInOne, KeySurveyOneByOne, KeyDepartmentName, KeyTeamName},
			Run:         surveyPublishAssign,
		},
	}
}

// Register adds the catalog to a registry.
func Register(registry *scenario.Registry) error {
	for _, s := range Scenarios() {
		if err := registry.Register(s); err != nil {
			return err
		}
	}
	return nil
}
