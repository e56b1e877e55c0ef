/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package protocol_test

import (
	"testing"
	"time"

	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionEncodesAsString(t *testing.T) {
	b, err := protocol.Encode(&protocol.ConfigPayload{
		Version: 3,
		Config:  map[string]string{"TitleA": "4K"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"3","config":{"TitleA":"4K"}}`, string(b))

	var v protocol.Version
	require.NoError(t, v.UnmarshalJSON([]byte(`"42"`)))
	assert.Equal(t, protocol.Version(42), v)
	require.NoError(t, v.UnmarshalJSON([]byte(`5`)))
	assert.Equal(t, protocol.Version(5), v)
	assert.Error(t, v.UnmarshalJSON([]byte(`"x"`)))
}

func TestDecodeVersionResponse(t *testing.T) {
	cp, nack, err := protocol.DecodeVersionResponse([]byte(`{"version":"2","config":{"TitleA":"2K"}}`))
	require.NoError(t, err)
	assert.Nil(t, nack)
	assert.Equal(t, protocol.Version(2), cp.Version)
	assert.Equal(t, "2K", cp.Config["TitleA"])

	now := time.Now()
	b, err := protocol.Encode(protocol.NewVersionNack(protocol.ReasonVersionOutdated, 4, now))
	require.NoError(t, err)
	cp, nack, err = protocol.DecodeVersionResponse(b)
	require.NoError(t, err)
	assert.Nil(t, cp)
	assert.Equal(t, protocol.ReasonVersionOutdated, nack.Reason)
	assert.Equal(t, protocol.Version(4), *nack.LatestVersion)
	assert.InDelta(t, protocol.Timestamp(now), nack.Timestamp, 1e-3)

	_, _, err = protocol.DecodeVersionResponse([]byte(`{"hello":1}`))
	assert.ErrorIs(t, err, protocol.ErrMalformedPayload)
	_, _, err = protocol.DecodeVersionResponse([]byte(`not json`))
	assert.ErrorIs(t, err, protocol.ErrMalformedPayload)
}

func TestRedirectRoundTrip(t *testing.T) {
	b, err := protocol.Encode(protocol.NewRedirect("/ndn/video/content/TitleA/4K/chunk/1", time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Recommended Name"`)
	assert.NotContains(t, string(b), `"Latest Version"`)

	nack, err := protocol.DecodeRedirect(b)
	require.NoError(t, err)
	assert.Equal(t, protocol.ReasonResolutionSelection, nack.Reason)

	_, err = protocol.DecodeRedirect([]byte(`{"Reason":"Resolution Selection"}`))
	assert.ErrorIs(t, err, protocol.ErrMalformedPayload)
}

func TestDecodeRangeParams(t *testing.T) {
	p, err := protocol.DecodeRangeParams([]byte(`{"client_id":"c1","acceptable_resolutions":["2K","4K"],"priority":1,"timestamp":1.5}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", p.ClientID)
	assert.Equal(t, []string{"2K", "4K"}, p.AcceptableResolutions)

	for _, bad := range []string{
		`{"acceptable_resolutions":["2K"]}`,
		`{"client_id":"c1","acceptable_resolutions":[]}`,
		`{"client_id":"c1","acceptable_resolutions":"2K"}`,
		`[1,2`,
	} {
		_, err := protocol.DecodeRangeParams([]byte(bad))
		assert.ErrorIs(t, err, protocol.ErrMalformedPayload, bad)
	}
}

func TestDecodeReport(t *testing.T) {
	r, err := protocol.DecodeReport([]byte(`{
		"forwarder_id": "edge-a",
		"client_requests": [
			{"client_id":"c1","acceptable_resolutions":["2K","4K"],"TitleID":"TitleA","chunk":1,"timestamp":2.0}
		],
		"local_network_state": {"upstream_link": {"link_name":"up","remaining_capacity":10}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "edge-a", r.ForwarderID)
	require.Len(t, r.ClientRequests, 1)
	assert.Equal(t, "TitleA", r.ClientRequests[0].TitleID)
	assert.Equal(t, 10.0, r.LocalNetworkState.UpstreamLink.RemainingCapacity)

	_, err = protocol.DecodeReport([]byte(`{"client_requests":[]}`))
	assert.ErrorIs(t, err, protocol.ErrMalformedPayload)
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 250_000_000)
	assert.Equal(t, 1700000000.25, protocol.Timestamp(now))
	assert.WithinDuration(t, now, protocol.TimeFromTimestamp(1700000000.25), time.Microsecond)
	assert.True(t, protocol.IsNotFound([]byte("Content not found")))
}
