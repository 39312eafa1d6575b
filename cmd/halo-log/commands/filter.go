package commands

import (
	"fmt"

	"github.com/halo-device/halo-go/pkg/log"
)

// RunFilter copies the events of path matching filter into a new capture
// at output and returns how many were copied.
func RunFilter(path, output string, filter log.Filter) (int, error) {
	r, err := open(path, filter)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	out, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", output, err)
	}
	defer out.Close()

	err = each(r, func(e log.Event) error {
		out.Log(e)
		return nil
	})
	return out.Count(), err
}
