package tinykernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AllocateTIDIsMonotonic(t *testing.T) {
	var r registry
	a := r.allocateTID()
	b := r.allocateTID()
	assert.Equal(t, a+1, b)
}

func TestRegistry_AddRemoveForeach(t *testing.T) {
	var r registry
	r.all.Init()

	t1 := &Thread{name: "one"}
	t1.allElem.Owner = t1
	t2 := &Thread{name: "two"}
	t2.allElem.Owner = t2

	r.add(t1)
	r.add(t2)

	var seen []string
	r.foreach(func(t *Thread) { seen = append(seen, t.name) })
	assert.Equal(t, []string{"one", "two"}, seen)

	r.remove(t1)
	seen = nil
	r.foreach(func(t *Thread) { seen = append(seen, t.name) })
	assert.Equal(t, []string{"two"}, seen)
}

func TestDefaultPageAllocator_AllocAndFree(t *testing.T) {
	var a defaultPageAllocator
	th := a.AllocThread()
	assert.NotNil(t, th)
	a.FreeThread(th) // no-op, must not panic
}
