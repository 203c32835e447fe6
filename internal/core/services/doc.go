// Package services implements the driving port interfaces.
// Services contain the ingestion and question answering logic and
// orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Apart from uuid for entry identifiers
// and x/time/rate for batch pacing they depend only on the ports.
package services
