package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/stagger/core/engine"
	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/infra/graphio"
)

// Artifact names inside an experiment directory.
const (
	InstanceFile = "instance.json"
	RoutesFile   = "routes.json"
	NetworkFile  = "network.json"
	InsightsFile = "insights.yaml"
	RollingName  = "rolling_horizon"
	OfflineName  = "offline"
)

// Experiment is the output directory of one run.
type Experiment struct {
	ID  string
	Dir string
}

// NewExperiment creates root/<date>_<id>. An empty id is replaced by a
// random UUID.
func NewExperiment(root, id string, now time.Time) (*Experiment, error) {
	if id == "" {
		id = uuid.NewString()
	}
	dir := filepath.Join(root, fmt.Sprintf("%s_%s", now.UTC().Format("20060102T150405"), id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Experiment{ID: id, Dir: dir}, nil
}

// Path returns the location of an artifact.
func (e *Experiment) Path(name string) string { return filepath.Join(e.Dir, name) }

func (e *Experiment) write(name string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(e.Path(name))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteSolution writes name.json and name.csv.
func (e *Experiment) WriteSolution(name string, sol model.Solution) error {
	if err := e.write(name+".json", func(w io.Writer) error { return WriteJSON(w, sol) }); err != nil {
		return err
	}
	return e.write(name+".csv", func(w io.Writer) error { return WriteCSV(w, sol) })
}

// WriteInstance writes the instance.json and routes.json artifacts.
func (e *Experiment) WriteInstance(inst *model.Instance, networkRef string) error {
	if err := e.write(InstanceFile, func(w io.Writer) error { return graphio.WriteInstance(w, inst, networkRef) }); err != nil {
		return err
	}
	return e.write(RoutesFile, func(w io.Writer) error { return graphio.WriteRoutes(w, inst) })
}

// WriteNetwork writes the annotated network.
func (e *Experiment) WriteNetwork(net *model.Network) error {
	return e.write(NetworkFile, func(w io.Writer) error { return graphio.EncodeNetwork(w, net) })
}

// WriteInsights writes insights.yaml.
func (e *Experiment) WriteInsights(ins Insights) error {
	return e.write(InsightsFile, func(w io.Writer) error { return WriteInsights(w, ins) })
}

// WriteResult writes every artifact of a finished run.
func (e *Experiment) WriteResult(res *engine.Result, inst *model.Instance, networkRef string) error {
	if err := e.WriteSolution(RollingName, res.Solution); err != nil {
		return err
	}
	if err := e.WriteSolution(OfflineName, res.Offline); err != nil {
		return err
	}
	if err := e.WriteInstance(inst, networkRef); err != nil {
		return err
	}
	if err := e.WriteNetwork(inst.Network); err != nil {
		return err
	}
	return e.WriteInsights(NewInsights(res, inst.Network))
}
