package service

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

// maxParam returns the max= parameter of a field's validate tag.
func maxParam(t *testing.T, v any, field string) int {
	t.Helper()
	f, ok := reflect.TypeOf(v).FieldByName(field)
	require.True(t, ok, "%T has no field %s", v, field)
	for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
		if param, found := strings.CutPrefix(rule, "max="); found {
			n, err := strconv.Atoi(param)
			require.NoError(t, err)
			return n
		}
	}
	t.Fatalf("%T.%s has no max rule", v, field)
	return 0
}

func TestRequestLimitsMatchModelLimits(t *testing.T) {
	cases := []struct {
		req   any
		field string
		limit int
	}{
		{CreateUserRequest{}, "Name", models.MaxUserNameLen},
		{CreateUserRequest{}, "DisplayName", models.MaxUserDisplayNameLen},
		{CreateTeamRequest{}, "Name", models.MaxTeamNameLen},
		{CreateTeamRequest{}, "Description", models.MaxTeamDescriptionLen},
		{CreateBoardRequest{}, "Name", models.MaxBoardNameLen},
		{CreateBoardRequest{}, "Description", models.MaxBoardDescriptionLen},
		{CreateTaskRequest{}, "Title", models.MaxTaskTitleLen},
		{CreateTaskRequest{}, "Description", models.MaxTaskDescriptionLen},
		{UpdateTaskStatusRequest{}, "Status", models.MaxTaskStatusLen},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%T.%s", tc.req, tc.field), func(t *testing.T) {
			assert.Equal(t, tc.limit, maxParam(t, tc.req, tc.field))
		})
	}
}

func TestValidateRequestKinds(t *testing.T) {
	err := validateRequest(CreateUserRequest{Name: strings.Repeat("é", models.MaxUserNameLen)})
	assert.NoError(t, err, "limits count characters, not bytes")

	err = validateRequest(CreateUserRequest{Name: strings.Repeat("n", models.MaxUserNameLen+1)})
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Contains(t, err.Error(), "name must be at most 64 characters")

	err = validateRequest(CreateUserRequest{DisplayName: strings.Repeat("d", models.MaxUserDisplayNameLen+1)})
	assert.ErrorIs(t, err, ErrInvalid, "a missing field outranks a length violation")
}

func TestCheckLimit(t *testing.T) {
	assert.NoError(t, checkLimit("name", "abc", 3))
	assert.ErrorIs(t, checkLimit("name", "abcd", 3), ErrLimitExceeded)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "not_found", Kind(notFound("board", 3)))
	assert.Equal(t, "already_exists", Kind(fmt.Errorf("%w: team", ErrAlreadyExists)))
	assert.Equal(t, "limit_exceeded", Kind(ErrLimitExceeded))
	assert.Equal(t, "constraint_violation", Kind(ErrConstraintViolation))
	assert.Equal(t, "invalid", Kind(ErrInvalid))
	assert.Equal(t, "internal", Kind(errors.New("disk full")))
}
