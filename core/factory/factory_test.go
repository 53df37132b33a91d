package factory

import "testing"

type solver struct{ Tolerance float64 }

type solverConf struct {
	Tolerance float64 `json:"tolerance"`
}

func TestRegistryCreateDecodes(t *testing.T) {
	reg := NewRegistry[*solver]()
	if err := reg.Register("lp", func(conf map[string]any) (*solver, error) {
		var c solverConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &solver{Tolerance: c.Tolerance}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, err := reg.Create(ModuleConfig{Type: "lp", Conf: map[string]any{"tolerance": "0.5"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Tolerance != 0.5 {
		t.Fatalf("expected 0.5 got %v", s.Tolerance)
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "z"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "x" {
		t.Fatalf("unexpected names %v", names)
	}
}
