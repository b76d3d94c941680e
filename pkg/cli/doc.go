// Package cli defines the navshell command line: the serve and version
// commands, their flags with environment fallbacks, and process logger setup.
package cli
