/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedName is returned when a name does not match the expected pattern.
var ErrMalformedName = errors.New("malformed name")

const (
	// RangeMarker is the name component that marks a range request.
	RangeMarker = "RangeInterest"
	// ChunkMarker precedes the chunk index in range and standard names.
	ChunkMarker = "chunk"
	// ParamsDigestPrefix is the URI form of the parameters digest component
	// appended by the transport to requests carrying parameters.
	ParamsDigestPrefix = "params-sha256="
)

// Namespace holds the name prefixes used by the four roles.
type Namespace struct {
	// Video is the prefix served by edge forwarders (range requests).
	Video string
	// Content is the prefix served by producers (standard requests).
	Content string
	// Optimizer is the prefix served by the optimizer (reports and version queries).
	Optimizer string
}

// DefaultNamespace returns the prefixes used by the testbed deployment.
func DefaultNamespace() Namespace {
	return Namespace{
		Video:     "/ndn/video",
		Content:   "/ndn/video/content",
		Optimizer: "/ndn/opt",
	}
}

// Parse validates and normalizes the prefixes.
func (ns *Namespace) Parse() error {
	for _, p := range []*string{&ns.Video, &ns.Content, &ns.Optimizer} {
		comps := Components(*p)
		if len(comps) == 0 {
			return fmt.Errorf("%w: empty prefix %q", ErrMalformedName, *p)
		}
		*p = "/" + strings.Join(comps, "/")
	}
	return nil
}

// RangeName is the name of a range request for one chunk of a title.
func (ns Namespace) RangeName(title string, chunk uint64) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d", ns.Video, title, RangeMarker, ChunkMarker, chunk)
}

// StandardName is the name of one chunk of a title at a concrete resolution.
func (ns Namespace) StandardName(title string, resolution string, chunk uint64) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d", ns.Content, title, resolution, ChunkMarker, chunk)
}

// ReportName is the name forwarders send their demand reports to.
func (ns Namespace) ReportName() string {
	return ns.Optimizer + "/report"
}

// VersionPrefix is the prefix of all configuration version queries.
func (ns Namespace) VersionPrefix() string {
	return ns.Optimizer + "/config/version"
}

// VersionName is the name of a query for a configuration version.
func (ns Namespace) VersionName(version uint64) string {
	return ns.VersionPrefix() + "/" + strconv.FormatUint(version, 10)
}

// ParseRangeName extracts the title and chunk index from a range request name.
func (ns Namespace) ParseRangeName(name string) (title string, chunk uint64, err error) {
	rest, ok := trimPrefix(Components(name), Components(ns.Video))
	if !ok || len(rest) != 4 || rest[1] != RangeMarker || rest[2] != ChunkMarker {
		return "", 0, fmt.Errorf("%w: not a range request: %s", ErrMalformedName, name)
	}
	chunk, err = strconv.ParseUint(rest[3], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad chunk index in %s", ErrMalformedName, name)
	}
	return rest[0], chunk, nil
}

// ParseStandardName extracts title, resolution and chunk index from a standard request name.
func (ns Namespace) ParseStandardName(name string) (title string, resolution string, chunk uint64, err error) {
	rest, ok := trimPrefix(Components(name), Components(ns.Content))
	if !ok {
		return "", "", 0, fmt.Errorf("%w: not a standard request: %s", ErrMalformedName, name)
	}
	return parseTitleResolutionChunk(name, rest)
}

// ParseRecommendedName extracts the fields of the name carried by a redirect.
// Besides the standard request form, the shorter form without the content
// marker (<video>/<title>/<resolution>/chunk/<n>) is accepted.
func (ns Namespace) ParseRecommendedName(name string) (title string, resolution string, chunk uint64, err error) {
	comps := Components(name)
	if rest, ok := trimPrefix(comps, Components(ns.Content)); ok {
		if title, resolution, chunk, err = parseTitleResolutionChunk(name, rest); err == nil {
			return
		}
	}
	if rest, ok := trimPrefix(comps, Components(ns.Video)); ok {
		return parseTitleResolutionChunk(name, rest)
	}
	return "", "", 0, fmt.Errorf("%w: unexpected recommended name %s", ErrMalformedName, name)
}

// ParseVersionName extracts the requested version from a version query name.
func (ns Namespace) ParseVersionName(name string) (uint64, error) {
	rest, ok := trimPrefix(Components(name), Components(ns.VersionPrefix()))
	if !ok || len(rest) != 1 {
		return 0, fmt.Errorf("%w: expected %s/<version>, got %s", ErrMalformedName, ns.VersionPrefix(), name)
	}
	v, err := strconv.ParseUint(rest[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad version in %s", ErrMalformedName, name)
	}
	return v, nil
}

func parseTitleResolutionChunk(name string, rest []string) (string, string, uint64, error) {
	if len(rest) != 4 || rest[2] != ChunkMarker {
		return "", "", 0, fmt.Errorf("%w: expected <title>/<resolution>/chunk/<n>: %s", ErrMalformedName, name)
	}
	chunk, err := strconv.ParseUint(rest[3], 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: bad chunk index in %s", ErrMalformedName, name)
	}
	return rest[0], rest[1], chunk, nil
}

// Components splits a name into its components, dropping empty components
// and a trailing parameters digest.
func Components(name string) []string {
	parts := strings.Split(name, "/")
	comps := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			comps = append(comps, p)
		}
	}
	if n := len(comps); n > 0 && strings.HasPrefix(comps[n-1], ParamsDigestPrefix) {
		comps = comps[:n-1]
	}
	return comps
}

// StripDigest returns the name without a trailing parameters digest component.
func StripDigest(name string) string {
	return "/" + strings.Join(Components(name), "/")
}

func trimPrefix(comps []string, prefix []string) ([]string, bool) {
	if len(comps) < len(prefix) {
		return nil, false
	}
	for i, c := range prefix {
		if comps[i] != c {
			return nil, false
		}
	}
	return comps[len(prefix):], true
}
