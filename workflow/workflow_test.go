package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepFailureModeDefaultsToTerminate(t *testing.T) {
	assert.Equal(t, FailureTerminate, Step{}.FailureMode())
	assert.Equal(t, FailureContinue, Step{OnFailure: FailureContinue}.FailureMode())
	assert.Equal(t, FailureTerminate, Step{OnFailure: FailureTerminate}.FailureMode())
}

func TestValidateSteps(t *testing.T) {
	known := func(name string) bool { return name == "jira" || name == "database" }

	err := ValidateSteps([]Step{
		{Agent: "jira", Action: "get_issue"},
		{Agent: "database", Action: "execute_query"},
	}, known)
	assert.NoError(t, err)
}

func TestValidateStepsMissingAgent(t *testing.T) {
	err := ValidateSteps([]Step{{Action: "get_issue"}}, func(string) bool { return true })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0")
	assert.Contains(t, err.Error(), "missing agent")
}

func TestValidateStepsMissingAction(t *testing.T) {
	err := ValidateSteps([]Step{{Agent: "jira"}}, func(string) bool { return true })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing action")
}

func TestValidateStepsUnknownAgent(t *testing.T) {
	err := ValidateSteps([]Step{
		{Agent: "jira", Action: "get_issue"},
		{Agent: "ghost", Action: "spook"},
	}, func(name string) bool { return name == "jira" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
	assert.Contains(t, err.Error(), "ghost")
}
