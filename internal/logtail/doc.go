// Package logtail reads the last lines of piju's log file for the in-app
// log pane. Only the tail of the file is read, so a long-running kiosk with a
// large log stays cheap to inspect.
package logtail
