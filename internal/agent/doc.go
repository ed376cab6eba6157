// Package agent adapts the Gemini and ElevenLabs clients to the pipeline
// stage interfaces: Vision reads the prescription image, Linguist writes
// Urdu instructions and Speaker voices them.
package agent
