package domain

import "fmt"

// ServiceUnavailableError signals transient unreachability of a
// downloader backend. The orchestrator records it as a non-fatal error
// and falls through to the next backend.
type ServiceUnavailableError struct {
	Service string
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("downloader service %q was unavailable", e.Service)
}

// DownloaderError is an anticipated downloader failure: a non-zero
// subprocess exit code, an API-reported error, a response the client
// cannot interpret. Details carries captured diagnostic text.
type DownloaderError struct {
	Message string
	Details string
}

func (e *DownloaderError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// SizeExceededError signals that an acquired file surpassed the byte
// budget despite format selection.
type SizeExceededError struct {
	Size  int64
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("media size %d exceeded the %d byte limit", e.Size, e.Limit)
}
