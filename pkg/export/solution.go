// Package export writes run artifacts: solutions as JSON and CSV, the
// insights summary as YAML, and the instance files consumed by external
// validation, all gathered in one experiment directory per run.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/stagger/core/model"
)

// WriteJSON writes the solution to w in JSON format.
func WriteJSON(w io.Writer, sol model.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}

// WriteCSV writes one row per vehicle and path node, vehicles in identifier
// order.
func WriteCSV(w io.Writer, sol model.Solution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"vehicle_id", "node_index", "node", "time", "delay"}); err != nil {
		return err
	}
	for _, id := range sol.Vehicles() {
		sch := sol.Schedules[id]
		delay := strconv.FormatFloat(sol.Delays[id], 'f', -1, 64)
		for i, n := range sch.Path {
			rec := []string{
				string(id),
				strconv.Itoa(sch.Offset + i),
				string(n),
				strconv.FormatFloat(sch.Times[i], 'f', -1, 64),
				delay,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
