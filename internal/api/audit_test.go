package api

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func paths(entries []AuditEntry) []string {
	out := []string{}
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestAuditLog_Ring(t *testing.T) {
	a := NewAuditLog(3)
	assert.Empty(t, a.Entries())

	a.Record(AuditEntry{Path: "/1"})
	a.Record(AuditEntry{Path: "/2"})
	assert.Equal(t, []string{"/2", "/1"}, paths(a.Entries()))

	a.Record(AuditEntry{Path: "/3"})
	assert.Equal(t, []string{"/3", "/2", "/1"}, paths(a.Entries()))

	a.Record(AuditEntry{Path: "/4"})
	a.Record(AuditEntry{Path: "/5"})
	assert.Equal(t, []string{"/5", "/4", "/3"}, paths(a.Entries()))
}

func TestAuditLog_DefaultCapacity(t *testing.T) {
	a := NewAuditLog(0)
	for i := range DefaultAuditCapacity + 10 {
		a.Record(AuditEntry{Path: fmt.Sprintf("/%d", i)})
	}
	entries := a.Entries()
	assert.Len(t, entries, DefaultAuditCapacity)
	assert.Equal(t, fmt.Sprintf("/%d", DefaultAuditCapacity+9), entries[0].Path)
}

func TestAuditLog_Concurrent(t *testing.T) {
	a := NewAuditLog(50)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 10 {
				a.Record(AuditEntry{Path: fmt.Sprintf("/%d/%d", i, j)})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, a.Entries(), 50)
}
