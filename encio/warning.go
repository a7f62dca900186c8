package encio

import (
	"fmt"
	"io"
	"os"
)

// Warnings is where warnings are sent to.
// Some integrity checks run while another error may already be on its way up to the caller,
// so they cannot fail the operation. They are written here instead of being silently dropped.
var Warnings io.Writer = os.Stderr

// Warnf writes a formatted warning line to Warnings.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(Warnings, "siren: "+format+"\n", args...)
}
