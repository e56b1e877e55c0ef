/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package optimizer

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPolicy is returned for a policy name with no implementation.
var ErrUnknownPolicy = errors.New("unknown resolution policy")

// Policy picks one resolution from a client's acceptable list.
type Policy interface {
	// Name returns the policy identifier used in configuration and logs.
	Name() string
	// Select returns the recommended resolution. ok is false for an empty list.
	Select(acceptable []string) (resolution string, ok bool)
}

// MedianPolicy picks the element at index len/2 of the list as declared.
type MedianPolicy struct{}

func (MedianPolicy) Name() string { return "median" }

func (MedianPolicy) Select(acceptable []string) (string, bool) {
	if len(acceptable) == 0 {
		return "", false
	}
	return acceptable[len(acceptable)/2], true
}

// LowestPolicy picks the first declared resolution.
type LowestPolicy struct{}

func (LowestPolicy) Name() string { return "lowest" }

func (LowestPolicy) Select(acceptable []string) (string, bool) {
	if len(acceptable) == 0 {
		return "", false
	}
	return acceptable[0], true
}

// HighestPolicy picks the last declared resolution.
type HighestPolicy struct{}

func (HighestPolicy) Name() string { return "highest" }

func (HighestPolicy) Select(acceptable []string) (string, bool) {
	if len(acceptable) == 0 {
		return "", false
	}
	return acceptable[len(acceptable)-1], true
}

var policies = map[string]Policy{
	"median":  MedianPolicy{},
	"lowest":  LowestPolicy{},
	"highest": HighestPolicy{},
}

// PolicyByName looks up a built-in policy.
func PolicyByName(name string) (Policy, error) {
	if p, ok := policies[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownPolicy, name, PolicyNames())
}

// PolicyNames lists the built-in policies.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for n := range policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
