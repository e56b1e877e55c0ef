/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrMalformedPayload is returned when a payload cannot be decoded or lacks required fields.
var ErrMalformedPayload = errors.New("malformed payload")

// NackReason is the reason carried by a negative response.
type NackReason string

const (
	ReasonVersionOutdated     NackReason = "Version Outdated"
	ReasonConfigNotReady      NackReason = "Config Not Ready"
	ReasonVersionTooHigh      NackReason = "Version Too High"
	ReasonResolutionSelection NackReason = "Resolution Selection"
)

var (
	// NotFoundMarker is the content a producer answers with when it has no such chunk.
	NotFoundMarker = []byte("Content not found")
	// ReportAck is the content the optimizer acknowledges a report with.
	ReportAck = []byte("Report received")
)

// IsNotFound reports whether content is the producer's not-found marker.
func IsNotFound(content []byte) bool {
	return string(content) == string(NotFoundMarker)
}

// Timestamp converts t to fractional seconds since the Unix epoch.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// TimeFromTimestamp is the inverse of Timestamp.
func TimeFromTimestamp(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// Version is a configuration version. It is encoded as a decimal string.
type Version uint64

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(v), 10))
}

func (v *Version) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// tolerate a bare number
		var n uint64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("version: %w", err)
		}
		*v = Version(n)
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("version %q: %w", s, err)
	}
	*v = Version(n)
	return nil
}

// RangeParams are the parameters of a range request.
type RangeParams struct {
	ClientID              string   `json:"client_id"`
	AcceptableResolutions []string `json:"acceptable_resolutions"`
	Priority              int      `json:"priority"`
	Timestamp             float64  `json:"timestamp"`
}

// ClientRequest is one client's demand inside a report.
type ClientRequest struct {
	ClientID              string   `json:"client_id"`
	AcceptableResolutions []string `json:"acceptable_resolutions"`
	TitleID               string   `json:"TitleID"`
	Chunk                 uint64   `json:"chunk"`
	Timestamp             float64  `json:"timestamp"`
}

// UpstreamLink is the link-capacity hint attached to a report.
type UpstreamLink struct {
	LinkName          string  `json:"link_name"`
	RemainingCapacity float64 `json:"remaining_capacity"`
}

// NetworkState is the forwarder's local view of the network.
type NetworkState struct {
	UpstreamLink UpstreamLink `json:"upstream_link"`
}

// Report is a snapshot of a forwarder's unresolved demand.
type Report struct {
	ForwarderID       string          `json:"forwarder_id"`
	ClientRequests    []ClientRequest `json:"client_requests"`
	LocalNetworkState NetworkState    `json:"local_network_state"`
}

// ConfigPayload carries one configuration version.
type ConfigPayload struct {
	Version Version           `json:"version"`
	Config  map[string]string `json:"config"`
}

// Nack is a negative response. Version Nacks carry LatestVersion,
// redirects carry RecommendedName.
type Nack struct {
	Reason          NackReason `json:"Reason"`
	LatestVersion   *Version   `json:"Latest Version,omitempty"`
	RecommendedName string     `json:"Recommended Name,omitempty"`
	Timestamp       float64    `json:"Timestamp"`
}

// NewVersionNack builds a version-scoped Nack.
func NewVersionNack(reason NackReason, latest uint64, now time.Time) *Nack {
	v := Version(latest)
	return &Nack{
		Reason:        reason,
		LatestVersion: &v,
		Timestamp:     Timestamp(now),
	}
}

// NewRedirect builds the redirect a forwarder sends in place of content.
func NewRedirect(recommendedName string, now time.Time) *Nack {
	return &Nack{
		Reason:          ReasonResolutionSelection,
		RecommendedName: recommendedName,
		Timestamp:       Timestamp(now),
	}
}

// Encode marshals any payload of this package.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeRangeParams validates and decodes range request parameters.
func DecodeRangeParams(b []byte) (*RangeParams, error) {
	if err := rangeParamsSchema.check(b); err != nil {
		return nil, err
	}
	p := &RangeParams{}
	if err := json.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}

// DecodeReport validates and decodes a forwarder report.
func DecodeReport(b []byte) (*Report, error) {
	if err := reportSchema.check(b); err != nil {
		return nil, err
	}
	r := &Report{}
	if err := json.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return r, nil
}

// DecodeVersionResponse decodes the optimizer's answer to a version query.
// Exactly one of the returned payloads is non-nil on success.
func DecodeVersionResponse(b []byte) (*ConfigPayload, *Nack, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	_, hasVersion := raw["version"]
	_, hasConfig := raw["config"]
	if hasVersion && hasConfig {
		cp := &ConfigPayload{}
		if err := json.Unmarshal(b, cp); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return cp, nil, nil
	}

	_, hasLatest := raw["Latest Version"]
	if _, ok := raw["Reason"]; ok && hasLatest {
		nack := &Nack{}
		if err := json.Unmarshal(b, nack); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if nack.LatestVersion == nil {
			return nil, nil, fmt.Errorf("%w: null Latest Version", ErrMalformedPayload)
		}
		return nil, nack, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown version response", ErrMalformedPayload)
}

// DecodeRedirect decodes the Nack a forwarder answers a range request with.
func DecodeRedirect(b []byte) (*Nack, error) {
	nack := &Nack{}
	if err := json.Unmarshal(b, nack); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if nack.RecommendedName == "" {
		return nil, fmt.Errorf("%w: redirect lacks Recommended Name", ErrMalformedPayload)
	}
	return nack, nil
}
