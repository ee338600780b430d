// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package lockfree

// setAffinity is a no-op on platforms without sched_setaffinity.
func setAffinity(int) {}
