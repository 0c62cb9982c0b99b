package services

import (
	"context"
	"testing"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpsertRoleCreatesWhenMissing(t *testing.T) {
	roleStore := new(mockRoleStore)
	svc := NewCatalogService(roleStore, nil, nil)

	roleStore.On("GetByKey", mock.Anything, "MARKER_CUTTING").
		Return(nil, apperrors.NotFoundf("role MARKER_CUTTING"))
	roleStore.On("Create", mock.Anything, mock.MatchedBy(func(r *models.SupplyChainRole) bool {
		return r.Key == "MARKER_CUTTING" && r.Name == "Marker Making & Cutting" && r.DefaultSequence == 30
	})).Return(nil)

	role, err := svc.UpsertRole(context.Background(), RoleInput{
		Key:             "MARKER_CUTTING",
		Name:            "Marker Making & Cutting",
		DefaultSequence: 30,
		DefaultCo2Kg:    4.2,
	})

	require.NoError(t, err)
	require.Equal(t, "MARKER_CUTTING", role.Key)
	require.NotEqual(t, uuid.Nil, role.ID)
	roleStore.AssertExpectations(t)
}

func TestUpsertRoleUpdatesInPlace(t *testing.T) {
	roleStore := new(mockRoleStore)
	svc := NewCatalogService(roleStore, nil, nil)

	existing := &models.SupplyChainRole{
		ID:              uuid.New(),
		Key:             "FINAL_QC",
		Name:            "QC",
		DefaultSequence: 99,
		DefaultCo2Kg:    2.0,
	}
	roleStore.On("GetByKey", mock.Anything, "FINAL_QC").Return(existing, nil)
	roleStore.On("Save", mock.Anything, existing).Return(nil)

	role, err := svc.UpsertRole(context.Background(), RoleInput{
		Key:             "FINAL_QC",
		Name:            "Final Quality Control",
		DefaultSequence: 50,
		DefaultCo2Kg:    1.2,
	})

	require.NoError(t, err)
	require.Equal(t, existing.ID, role.ID)
	require.Equal(t, "Final Quality Control", role.Name)
	require.Equal(t, 50, role.DefaultSequence)
	roleStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpsertRoleValidation(t *testing.T) {
	svc := NewCatalogService(new(mockRoleStore), nil, nil)

	_, err := svc.UpsertRole(context.Background(), RoleInput{Key: "", Name: "x"})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.UpsertRole(context.Background(), RoleInput{Key: "X", Name: ""})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.UpsertRole(context.Background(), RoleInput{Key: "X", Name: "x", DefaultCo2Kg: -1})
	require.True(t, apperrors.IsValidation(err))
}

func TestRenameRoleKey(t *testing.T) {
	roleStore := new(mockRoleStore)
	svc := NewCatalogService(roleStore, nil, nil)

	existing := &models.SupplyChainRole{ID: uuid.New(), Key: "DYEING", Name: "Fabric Dyeing & Finishing"}
	roleStore.On("GetByKey", mock.Anything, "FABRIC_DYE_FINISH").
		Return(nil, apperrors.NotFoundf("role FABRIC_DYE_FINISH"))
	roleStore.On("GetByKey", mock.Anything, "DYEING").Return(existing, nil)
	roleStore.On("Save", mock.Anything, existing).Return(nil)

	role, err := svc.RenameRoleKey(context.Background(), "DYEING", "FABRIC_DYE_FINISH")

	require.NoError(t, err)
	require.Equal(t, "FABRIC_DYE_FINISH", role.Key)
	require.Equal(t, existing.ID, role.ID)
}

func TestRenameRoleKeyTargetTaken(t *testing.T) {
	roleStore := new(mockRoleStore)
	svc := NewCatalogService(roleStore, nil, nil)

	taken := &models.SupplyChainRole{ID: uuid.New(), Key: "PACKING"}
	roleStore.On("GetByKey", mock.Anything, "PACKING").Return(taken, nil)

	_, err := svc.RenameRoleKey(context.Background(), "CARTONING", "PACKING")
	require.True(t, apperrors.IsConflict(err))
	roleStore.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRenameRoleKeyValidation(t *testing.T) {
	svc := NewCatalogService(new(mockRoleStore), nil, nil)

	_, err := svc.RenameRoleKey(context.Background(), "A", "")
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.RenameRoleKey(context.Background(), "A", "A")
	require.True(t, apperrors.IsValidation(err))
}

func TestAlignCatalogUpsertsAllAndRealigns(t *testing.T) {
	roleStore := new(mockRoleStore)
	realigner := new(mockRealigner)
	svc := NewCatalogService(roleStore, realigner, nil)

	roleStore.On("GetByKey", mock.Anything, mock.Anything).
		Return(nil, apperrors.NotFoundf("missing"))
	roleStore.On("Create", mock.Anything, mock.Anything).Return(nil)
	realigner.On("RealignStageSequences", mock.Anything).Return(nil)

	require.NoError(t, svc.AlignCatalog(context.Background()))

	roleStore.AssertNumberOfCalls(t, "Create", len(models.CanonicalCatalog()))
	realigner.AssertNumberOfCalls(t, "RealignStageSequences", 1)
}
