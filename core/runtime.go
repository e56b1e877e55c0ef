/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "time"

// Version of the avs binary, set with -ldflags at build time.
var Version string

// BuildTime contains the timestamp of when the binary was built.
var BuildTime string

// StartTimestamp is the time the running daemon was started.
var StartTimestamp time.Time
