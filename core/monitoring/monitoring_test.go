package monitoring

import (
	"errors"
	"testing"
	"time"
)

type captureMonitor struct {
	errs    []error
	tags    []map[string]string
	flushed bool
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}
func (c *captureMonitor) Recover()            {}
func (c *captureMonitor) Flush(time.Duration) { c.flushed = true }

func TestGlobalMonitor(t *testing.T) {
	prev := current
	t.Cleanup(func() { current = prev })

	m := &captureMonitor{}
	Init(m)
	Init(nil)
	if Current() != m {
		t.Fatal("nil must not replace the monitor")
	}
	CaptureException(errors.New("boom"), EpochTags("run", 3, "optimize"))
	Flush(time.Second)
	if len(m.errs) != 1 || !m.flushed {
		t.Fatalf("unexpected capture state %+v", m)
	}
	if m.tags[0]["epoch"] != "3" || m.tags[0]["stage"] != "optimize" || m.tags[0]["run_id"] != "run" {
		t.Fatalf("unexpected tags %v", m.tags[0])
	}
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	prev := current
	t.Cleanup(func() { current = prev })
	m := &captureMonitor{}
	Init(m)

	defer func() {
		if r := recover(); r != "bad epoch" {
			t.Fatalf("expected re-panic, got %v", r)
		}
		if len(m.errs) != 1 || m.errs[0].Error() != "panic: bad epoch" {
			t.Fatalf("panic not captured: %v", m.errs)
		}
	}()
	func() {
		defer Recover()
		panic("bad epoch")
	}()
}
