package commit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubsumesOwnerCoversEverything(t *testing.T) {
	require.True(t, PermOwner.Subsumes(PermAdmin))
	require.True(t, PermOwner.Subsumes(PermSign))
	require.True(t, PermOwner.Subsumes(PermOwner))
}

func TestSubsumesAdminCoversDelegatedSetOnly(t *testing.T) {
	require.True(t, PermAdmin.Subsumes(PermWriteAsync))
	require.True(t, PermAdmin.Subsumes(PermCompact))
	require.False(t, PermAdmin.Subsumes(PermOwner))
	require.True(t, PermAdmin.Subsumes(PermAdmin))
}

func TestSubsumesPlainBitMatchesExactly(t *testing.T) {
	require.True(t, PermWriteSync.Subsumes(PermWriteSync))
	require.False(t, PermWriteSync.Subsumes(PermWriteAsync))
}

func TestSubsumesCombinedHeldSet(t *testing.T) {
	held := PermWriteAsync | PermCreate
	require.True(t, held.Subsumes(PermCreate))
	require.False(t, held.Subsumes(PermAddBranch))
}
