package survey

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/networkteam/surveyprobe/scenario"
)

// Fixture keys. A key is established once the entity it names exists in the application.
const (
	KeyOrgName       scenario.Key = "orgName"
	KeyAdminUsername scenario.Key = "adminUsername"
	KeyAdminEmail    scenario.Key = "adminEmail"
	KeyAdminPassword scenario.Key = "adminPassword"

	KeyMemberUsername scenario.Key = "memberUsername"
	KeyMemberEmail    scenario.Key = "memberEmail"
	KeyMemberPassword scenario.Key = "memberPassword"
	KeyInviteCode     scenario.Key = "inviteCode"

	KeyUnknownEmail  scenario.Key = "unknownEmail"
	KeyWrongPassword scenario.Key = "wrongPassword"

	KeySurveyAllInOne scenario.Key = "surveyAllInOne"
	KeySurveyOneByOne scenario.Key = "surveyOneByOne"
	KeySurveyFullFlow scenario.Key = "surveyFullFlow"
	KeySearchPrefix   scenario.Key = "searchPrefix"
	KeySearchTerm     scenario.Key = "searchTerm"
	KeyDeadline       scenario.Key = "deadline"

	// KeyQuestionBank is established when the question variants exist. It has no value.
	KeyQuestionBank scenario.Key = "questionBank"

	KeyRoleName        scenario.Key = "roleName"
	KeyRoleDescription scenario.Key = "roleDescription"
	KeyDepartmentName  scenario.Key = "departmentName"
	KeyTeamName        scenario.Key = "teamName"
	KeyUserName        scenario.Key = "userName"
	KeyUserEmail       scenario.Key = "userEmail"
	KeyUserPassword    scenario.Key = "userPassword"
)

// DeadlineLayout is the format of the deadline fixture, matching datetime-local input values.
const DeadlineLayout = "2006-01-02T15:04"

//go:embed fixtures.yaml
var defaultFixtures []byte

// DefaultFixtures returns the built-in fixture values.
func DefaultFixtures() scenario.Fixtures {
	f, err := scenario.LoadFixtures(bytes.NewReader(defaultFixtures))
	if err != nil {
		panic(fmt.Sprintf("embedded fixtures: %v", err))
	}
	return f
}

// values returns the fixture values for keys or an error naming the first missing one.
func values(env *scenario.Env, keys ...scenario.Key) ([]string, error) {
	result := make([]string, len(keys))
	for i, k := range keys {
		v, ok := env.State.Lookup(k)
		if !ok || v == "" {
			return nil, fmt.Errorf("fixture %s has no value", k)
		}
		result[i] = v
	}
	return result, nil
}

func deadline(env *scenario.Env) (time.Time, error) {
	v, err := values(env, KeyDeadline)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(DeadlineLayout, v[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing deadline fixture: %w", err)
	}
	return t, nil
}
