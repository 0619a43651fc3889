// Package zikuli is a visual GUI automation library: it locates a
// visual pattern on a running desktop by image-matching against a live
// screen capture, then drives the mouse and keyboard to act at the
// match's location.
//
// # Basic Usage
//
//	region, err := zikuli.NewScreenRegion()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer region.Close()
//
//	pattern := zikuli.NewPattern(submitButtonImage).WithSimilarity(0.8)
//	if err := region.Click(pattern); err != nil {
//	    log.Fatal(err)
//	}
//	region.Type("hello world", nil)
//
// # Architecture
//
// A Region composes a display connection (pkg/display), the
// coarse-to-fine template matcher (pkg/match), and synthetic input
// into find/wait/exists/click/type operations with retry and timeout
// semantics. See the pkg/display, pkg/match, and pkg/ocr package docs
// for the individual component contracts.
package zikuli
