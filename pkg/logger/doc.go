// Package logger provides a structured logging interface for mangasaver.
//
// It wraps zerolog behind a small Logger interface so packages can log with
// fields without importing zerolog directly:
//
//	log := logger.GetLogger().WithField("component", "saver")
//	log.InfoWithFields("Image saved", map[string]interface{}{
//	    "filename": "cover.jpg",
//	    "uri":      "file:///home/me/Pictures/Mangasaver/cover.jpg",
//	})
//
// Tests use NewNopLogger to silence output or NewTestLogger to capture and
// assert on messages.
package logger
