package endpoint_test

import (
	"net"
	"strconv"
	"testing"

	"github.com/jroosing/pbench/internal/endpoint"
	"github.com/stretchr/testify/require"
)

func TestCreate_PassiveBindsEphemeralPort(t *testing.T) {
	conn, err := endpoint.Create(endpoint.V4, "", "0", true)
	require.NoError(t, err)
	defer conn.Close()

	require.NotNil(t, conn.LocalAddr())
}

func TestCreate_ConnectedRoundTrip(t *testing.T) {
	server, err := endpoint.Create(endpoint.V4, "", "0", true)
	require.NoError(t, err)
	defer server.Close()

	port := server.LocalAddr().(*net.UDPAddr).Port
	require.NotZero(t, port)

	client, err := endpoint.Create(endpoint.V4, "127.0.0.1", strconv.Itoa(port), false)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)
}

func TestCreate_InvalidHostFails(t *testing.T) {
	_, err := endpoint.Create(endpoint.V4, "not-a-real-host.invalid", "7124", false)
	require.Error(t, err)
}
