package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chayuto/panic-on-rails/config"
	"github.com/chayuto/panic-on-rails/geo"
	"github.com/chayuto/panic-on-rails/layout"
)

func sampleDoc(t *testing.T) layout.Document {
	t.Helper()
	net := layout.New(config.Default())
	if _, err := net.Place("S124", geo.Vec{X: 10, Y: 20}, 0); err != nil {
		t.Fatalf("place: %s", err)
	}
	if _, err := net.PlaceConnected("R481-15", geo.Vec{X: 134, Y: 20}, 0); err != nil {
		t.Fatalf("place: %s", err)
	}
	return net.Document()
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	doc := sampleDoc(t)
	if err := s.Save("yard", doc); err != nil {
		t.Fatalf("save: %s", err)
	}
	got, err := s.Load("yard")
	if err != nil {
		t.Fatalf("load: %s", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("round trip mismatch:\n%s", diff)
	}
}

func TestSaveRejectsBadInput(t *testing.T) {
	s := openStore(t)
	doc := sampleDoc(t)
	if err := s.Save("", doc); err == nil {
		t.Fatal("empty name accepted")
	}
	if err := s.Save("a:b", doc); err == nil {
		t.Fatal("name with separator accepted")
	}
	doc.Version = 99
	if err := s.Save("yard", doc); err == nil {
		t.Fatal("invalid document accepted")
	}
}

func TestLoadMissing(t *testing.T) {
	s := openStore(t)
	if _, err := s.Load("nope"); err == nil {
		t.Fatal("missing layout loaded")
	}
}

func TestListAndDelete(t *testing.T) {
	s := openStore(t)
	doc := sampleDoc(t)
	for _, name := range []string{"b", "a"} {
		if err := s.Save(name, doc); err != nil {
			t.Fatalf("save %s: %s", name, err)
		}
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Fatalf("list mismatch:\n%s", diff)
	}

	existed, err := s.Delete("a")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%t err=%v", existed, err)
	}
	existed, err = s.Delete("a")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%t err=%v", existed, err)
	}
	names, _ = s.List()
	if diff := cmp.Diff([]string{"b"}, names); diff != "" {
		t.Fatalf("list after delete:\n%s", diff)
	}
}
