package apperrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := NotFoundf("lot %s", "abc")
	wrapped := errors.Wrap(err, "loading pipeline")

	require.True(t, IsNotFound(wrapped))
	require.False(t, IsConflict(wrapped))
	require.Contains(t, wrapped.Error(), "lot abc")
}

func TestFromDB(t *testing.T) {
	require.NoError(t, FromDB(nil, "whatever"))

	err := FromDB(gorm.ErrRecordNotFound, "lot %d", 7)
	require.True(t, IsNotFound(err))
	require.Contains(t, err.Error(), "lot 7")

	err = FromDB(gorm.ErrDuplicatedKey, "approval for lot %d", 7)
	require.True(t, IsConflict(err))

	err = FromDB(errors.New("connection refused"), "lot %d", 7)
	require.False(t, IsNotFound(err))
	require.False(t, IsConflict(err))
	require.False(t, IsValidation(err))
}
