package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventVotingRequestApproved.Category())
	assert.Equal(t, CategoryCompliance, EventVoteCast.Category())
	assert.Equal(t, CategorySecurity, EventCommitEscalated.Category())
	assert.Equal(t, CategoryOperations, EventVotingRequestExpired.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_else").Category())
}
