// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package xipc

// RaceEnabled is true when the race detector is active.
// Used by tests to skip torn-read stress paths, which the detector
// reports as races because it cannot track synchronization carried by
// the framing counters.
const RaceEnabled = true
