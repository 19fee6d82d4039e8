package image_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fatimg/errors"
	"github.com/dargueta/fatimg/image"
)

func TestEncodeDecodeSuperblock_RoundTrip(t *testing.T) {
	sb := image.DefaultSuperblock()

	data, err := image.EncodeSuperblock(sb)
	require.NoError(t, err)
	require.Len(t, data, image.SuperblockSize)

	got, err := image.DecodeSuperblock(data)
	require.NoError(t, err)
	require.Equal(t, sb, got)
}

func TestDecodeSuperblock_Damaged(t *testing.T) {
	data := make([]byte, image.SuperblockSize)

	_, err := image.DecodeSuperblock(data)
	require.ErrorIs(t, err, errors.ErrDamaged)
}

func TestDecodeSuperblock_ShortRead(t *testing.T) {
	_, err := image.DecodeSuperblock(make([]byte, 4))
	require.Error(t, err)
}

func TestDefaultSuperblock_MatchesFixedDefaults(t *testing.T) {
	sb := image.DefaultSuperblock()

	require.EqualValues(t, 12, sb.FATType)
	require.EqualValues(t, 2, sb.FATCopies)
	require.EqualValues(t, 150, sb.ClusterSize)
	require.EqualValues(t, 3, sb.RootDirectoryMaxEntriesCount)
	require.EqualValues(t, 4096, sb.ClusterCount)
	require.EqualValues(t, 0, sb.ReservedClusterCount)
	require.Equal(t, image.SignatureOK, sb.Signature)
}
