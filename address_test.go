package stakeboard_test

import (
	. "github.com/cordialsys/stakeboard"
)

func (s *StakeboardTestSuite) TestNormalizeAddress() {
	require := s.Require()
	addr := NormalizeAddress(" 0xAbCdEF0123456789abcdef0123456789ABCDEF01 ")
	require.EqualValues("0xabcdef0123456789abcdef0123456789abcdef01", addr)
	require.True(addr.Valid())
	require.True(addr.Equal("0xABCDEF0123456789ABCDEF0123456789ABCDEF01"))

	require.EqualValues("0xabcdef0123456789abcdef0123456789abcdef01", NormalizeAddress("ABCDEF0123456789ABCDEF0123456789ABCDEF01"))
	require.False(Address("0x1234").Valid())
	require.False(Address("").Valid())
	require.Equal("0xabcd…ef01", addr.Short())

	require.EqualValues("0xdeadbeef", NormalizeTxHash("0xDEADBEEF"))
}
