// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package lockfree

import "golang.org/x/sys/unix"

// setAffinity pins the calling OS thread to a single logical CPU.
// Errors are ignored: under cgroup or container restriction the call
// can fail with EPERM or EINVAL, and the fallback is simply no pin.
func setAffinity(cpu int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
