package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/halo-device/halo-go/pkg/log"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

var csvHeader = []string{"timestamp", "connection_id", "direction", "layer", "category", "device_id", "type", "kind", "detail"}

// RunExport writes every event of path as JSON lines ("jsonl") or CSV
// ("csv") to output, or to stdout when output is empty.
func RunExport(path, format, output string) error {
	var write func(io.Writer, *log.Reader) error
	switch format {
	case "jsonl":
		write = writeJSONL
	case "csv":
		write = writeCSV
	default:
		return fmt.Errorf("unknown format %q (supported: jsonl, csv)", format)
	}

	r, err := open(path, log.Filter{})
	if err != nil {
		return err
	}
	defer r.Close()

	if output == "" {
		return write(os.Stdout, r)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSONL(w io.Writer, r *log.Reader) error {
	enc := json.NewEncoder(w)
	return each(r, func(e log.Event) error {
		return enc.Encode(e)
	})
}

func writeCSV(w io.Writer, r *log.Reader) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	err := each(r, func(e log.Event) error {
		typ, kind, detail := summarize(e)
		return cw.Write([]string{
			e.Timestamp.UTC().Format(timeLayout),
			e.ConnectionID,
			e.Direction.String(),
			e.Layer.String(),
			e.Category.String(),
			e.DeviceID,
			typ,
			kind,
			detail,
		})
	})
	cw.Flush()
	if err != nil {
		return err
	}
	return cw.Error()
}
