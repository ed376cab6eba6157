// Package pipeline turns an uploaded prescription image into structured
// medications, Urdu instructions and Urdu audio.
//
// Work runs as a fixed sequence of stages:
//
//	uploaded -> ocr -> correction -> translation -> synthesis -> done
//
// Each stage hands its output to a Recorder before the next stage starts, so
// an interrupted run leaves the record at a well-defined (status, stage)
// pair. The first failing stage is recorded with status=failed and stops the
// run; nothing is retried.
package pipeline
