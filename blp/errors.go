package blp

import "fmt"

func errShortMip(what string, want, got int) error {
	return fmt.Errorf("blp: %s: need %d bytes, have %d", what, want, got)
}
