package embedding

import (
	"testing"
)

func TestCache_GetSet(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCache_returnsCopies(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatal(err)
	}
	src := []float32{1, 2}
	c.Set("k", src)
	src[0] = 9
	got, _ := c.Get("k")
	if got[0] != 1 {
		t.Errorf("cache aliased caller slice: %v", got)
	}
	got[1] = 7
	again, _ := c.Get("k")
	if again[1] != 2 {
		t.Errorf("cache aliased returned slice: %v", again)
	}
}

func TestCache_disabled(t *testing.T) {
	c, err := NewCache(0)
	if err != nil {
		t.Fatal(err)
	}
	c.Set("a", []float32{1})
	if _, ok := c.Get("a"); ok {
		t.Error("disabled cache should always miss")
	}
	if c.Len() != 0 {
		t.Error("disabled cache should be empty")
	}
}
