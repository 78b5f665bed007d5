package keyspace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPrefixesWithFamilyByte(t *testing.T) {
	id := []byte{0xAA, 0xBB, 0xCC}
	k := Key(FamilyBlock, id)
	require.Equal(t, byte(FamilyBlock), k[0])
	require.Equal(t, id, k[1:])
}

func TestKeyDistinguishesFamiliesForSameID(t *testing.T) {
	id := []byte{0x01, 0x02}
	require.NotEqual(t, Key(FamilyTopic, id), Key(FamilyCommit, id))
}

func TestKey2ScopesOuterThenInner(t *testing.T) {
	outer := []byte{0x01}
	inner := []byte{0x02, 0x03}
	k := Key2(FamilyOverlay, outer, inner)
	require.Equal(t, []byte{byte(FamilyOverlay), 0x01, 0x02, 0x03}, k)
}

func TestUint32KeyAppendsBigEndianSuffix(t *testing.T) {
	id := []byte{0xFF}
	k := Uint32Key(FamilyAccount, id, 1)
	require.Equal(t, []byte{byte(FamilyAccount), 0xFF, 0x00, 0x00, 0x00, 0x01}, k)
}

func TestUint32KeyOrdersLexicographicallyWithSeq(t *testing.T) {
	id := []byte{0x01}
	lower := Uint32Key(FamilyCommit, id, 1)
	higher := Uint32Key(FamilyCommit, id, 2)
	require.True(t, string(lower) < string(higher))
}
