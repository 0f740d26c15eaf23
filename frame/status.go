// Package frame drives the per-frame loop: a bounded number of frames in
// flight, each using its own slot of synchronization objects, command buffer
// and uniform buffer, and swapchain recreation when presentation reports the
// surface as out of date.
package frame

import "fmt"

// AcquireStatus is the outcome of acquiring a swapchain image.
type AcquireStatus int

const (
	AcquireSuccess AcquireStatus = iota

	// AcquireSuboptimal means the image can still be presented but the
	// swapchain no longer matches the surface exactly.
	AcquireSuboptimal

	// AcquireOutOfDate means the swapchain can not be used anymore.
	AcquireOutOfDate
)

func (s AcquireStatus) String() string {
	switch s {
	case AcquireSuccess:
		return "Success"
	case AcquireSuboptimal:
		return "Suboptimal"
	case AcquireOutOfDate:
		return "OutOfDate"
	}
	return fmt.Sprintf("AcquireStatus(%d)", int(s))
}

// PresentStatus is the outcome of presenting a swapchain image.
type PresentStatus int

const (
	PresentSuccess PresentStatus = iota
	PresentSuboptimal
	PresentOutOfDate
)

func (s PresentStatus) String() string {
	switch s {
	case PresentSuccess:
		return "Success"
	case PresentSuboptimal:
		return "Suboptimal"
	case PresentOutOfDate:
		return "OutOfDate"
	}
	return fmt.Sprintf("PresentStatus(%d)", int(s))
}

// SlotState tracks where a frame slot is in its cycle.
type SlotState int

const (
	// Idle slots have a signaled fence: the GPU is done with them.
	Idle SlotState = iota

	// Recording slots have their command buffer being filled.
	Recording

	// Submitted slots have work queued which signals their fence when done.
	Submitted
)

func (s SlotState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Recording:
		return "Recording"
	case Submitted:
		return "Submitted"
	}
	return fmt.Sprintf("SlotState(%d)", int(s))
}

// Result tells what DrawFrame did.
type Result int

const (
	// Presented means a frame was submitted and presented.
	Presented Result = iota

	// Skipped means the swapchain was out of date when acquiring. It was
	// recreated and nothing was submitted.
	Skipped
)

func (r Result) String() string {
	switch r {
	case Presented:
		return "Presented"
	case Skipped:
		return "Skipped"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}
