package assistant

import "testing"

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	a := &fakeTool{name: "a"}
	b := &fakeTool{name: "b"}
	reg.Register(a)
	reg.Register(b)

	got, ok := reg.Lookup("a")
	if !ok || got != a {
		t.Errorf("Lookup(a) = (%v, %v)", got, ok)
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestRegistry_OverwriteKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{name: "a"})
	reg.Register(&fakeTool{name: "b"})

	replacement := &fakeTool{name: "a"}
	reg.Register(replacement)

	schemas := reg.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("schemas = %d entries, want 2", len(schemas))
	}
	if schemas[0].Name != "a" || schemas[1].Name != "b" {
		t.Errorf("menu order = [%s, %s], want [a, b]", schemas[0].Name, schemas[1].Name)
	}
	got, _ := reg.Lookup("a")
	if got != replacement {
		t.Error("re-registration should replace the implementation")
	}
}

func TestRegistry_TerminalByIdentity(t *testing.T) {
	reg := NewRegistry()
	terminal := &fakeTool{name: "respond_to_user"}
	impostor := &fakeTool{name: "respond_to_user"}
	reg.RegisterTerminal(terminal)

	if reg.Terminal() != terminal {
		t.Fatal("Terminal() should return the registered tool")
	}
	// Same name, different instance: not the terminal tool.
	if reg.Terminal() == impostor {
		t.Error("terminal must be matched by identity, not name")
	}

	// Overwriting the name demotes the terminal lookup but keeps identity
	// semantics: the old instance is still the terminal marker.
	reg.Register(impostor)
	got, _ := reg.Lookup("respond_to_user")
	if got != impostor {
		t.Error("Lookup should return the latest registration")
	}
	if got == reg.Terminal() {
		t.Error("replaced tool should no longer be terminal")
	}
}
