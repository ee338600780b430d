// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import "code.hybscloud.com/iox"

// ErrWouldBlock is the only error this package produces. Enqueue and
// Push return it when a bounded structure has no room; Dequeue, Pop and
// Peek return it when there is nothing to take. The unbounded Stack and
// Queue report it on the empty side only.
//
// It signals an expected state of a non-blocking structure, not a
// failure: the caller retries, yields, or moves on. Aliasing
// [iox.ErrWouldBlock] keeps errors.Is checks compatible with the rest of
// the hybscloud I/O stack.
//
//	backoff := iox.Backoff{}
//	for lockfree.IsWouldBlock(q.Enqueue(&item)) {
//	    backoff.Wait()
//	}
//	backoff.Reset()
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err is ErrWouldBlock, unwrapping wrapped
// errors as errors.Is would.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
