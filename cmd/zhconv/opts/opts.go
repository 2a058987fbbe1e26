package opts

import (
	"io"
)

// RootOpts contains shared dependencies used by all commands
type RootOpts struct {
	Console io.Writer
}
