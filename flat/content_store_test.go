package flat

import (
	"testing"

	"github.com/ngernest/flat-bril/bril"
)

func TestDigestStableAcrossReloads(t *testing.T) {
	s, err := Flatten(branchy())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	data, err := EncodeImage([]*Store{s})
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	first, err := OpenImage(data)
	if err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}
	second, err := OpenImage(append([]byte(nil), data...))
	if err != nil {
		t.Fatalf("OpenImage of the copy failed: %v", err)
	}

	a := DigestView(first.View(0))
	b := DigestView(second.View(0))
	if a != b {
		t.Errorf("digests diverge across reloads: %s vs %s", a.Hash, b.Hash)
	}
	if a.Name != "branchy" || a.Size == 0 {
		t.Errorf("digest metadata = %+v", a)
	}
}

func TestDigestDistinguishesFunctions(t *testing.T) {
	prog := &bril.Program{Functions: []bril.Function{
		{Name: "one", Instrs: []bril.Instruction{{Op: "nop"}}},
		{Name: "two", Instrs: []bril.Instruction{{Op: "nop"}}},
	}}
	img := buildImage(t, prog)

	a := DigestView(img.View(0))
	b := DigestView(img.View(1))
	if a.Hash == b.Hash {
		t.Error("blocks differing only in name share a digest")
	}
}

func TestContentStoreIndexAndLookup(t *testing.T) {
	prog := &bril.Program{Functions: []bril.Function{
		{Name: "zeta", Instrs: []bril.Instruction{{Op: "nop"}}},
		{Name: "alpha", Instrs: []bril.Instruction{{Op: "nop"}}},
	}}
	img := buildImage(t, prog)

	cs := NewContentStore()
	cs.IndexImage(img)
	if cs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cs.Len())
	}

	fd := DigestView(img.View(0))
	got, ok := cs.Lookup(fd.Hash)
	if !ok || got.Name != "zeta" {
		t.Errorf("Lookup = %+v, %v", got, ok)
	}
	if !cs.Has(fd.Hash) {
		t.Error("Has missed an indexed digest")
	}
	if cs.Has(Digest{}) {
		t.Error("Has hit on the zero digest")
	}

	all := cs.All()
	if len(all) != 2 || all[0].Name != "alpha" || all[1].Name != "zeta" {
		t.Errorf("All = %+v, want alpha before zeta", all)
	}
}

func TestContentStoreDeduplicatesIdenticalBlocks(t *testing.T) {
	s, err := Flatten(branchy())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	v, err := s.Freeze()
	if err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	cs := NewContentStore()
	cs.Index(v)
	cs.Index(v)
	if cs.Len() != 1 {
		t.Errorf("Len = %d after indexing one block twice, want 1", cs.Len())
	}
}
