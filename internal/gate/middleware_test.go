package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentroute/assessment-engine/internal/assess"
	auth "github.com/talentroute/assessment-engine/internal/auth/middleware"
)

type fakeChecker struct {
	done bool
	err  error
}

func (f fakeChecker) Completed(ctx context.Context, userID string) (bool, error) {
	return f.done, f.err
}

func callGate(t *testing.T, c Checker) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	passed := false
	h := RequireResume(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		passed = true
	}))
	req := httptest.NewRequest(http.MethodPost, "/belbin/answers", nil)
	req = req.WithContext(auth.WithSubject(req.Context(), "u1"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, passed
}

func TestRequireResume(t *testing.T) {
	rr, passed := callGate(t, fakeChecker{done: true})
	require.True(t, passed)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, passed = callGate(t, fakeChecker{done: false})
	require.False(t, passed)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "resume_incomplete")

	// Missing user row is still a policy denial.
	rr, passed = callGate(t, fakeChecker{err: assess.ErrPrerequisiteNotMet})
	require.False(t, passed)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

// A broken lookup must not read as an incomplete résumé.
func TestRequireResumeSurfacesLookupFailure(t *testing.T) {
	rr, passed := callGate(t, fakeChecker{err: errors.New("database is locked")})
	require.False(t, passed)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "resume_incomplete")
}
