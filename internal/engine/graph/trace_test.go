package graph

import (
	"testing"

	"archcheck/internal/engine/classfile"

	"github.com/stretchr/testify/assert"
)

func TestShortestPath(t *testing.T) {
	g := New([]classfile.UnitInfo{
		classfile.NewUnitInfo("a.A", "b.B", "c.C"),
		classfile.NewUnitInfo("b.B", "d.D"),
		classfile.NewUnitInfo("c.C", "d.D", "x.External"),
		classfile.NewUnitInfo("d.D", "a.A"),
	})

	tests := []struct {
		name     string
		from, to string
		want     []string
		ok       bool
	}{
		{name: "self", from: "a.A", to: "a.A", want: []string{"a.A"}, ok: true},
		{name: "direct", from: "a.A", to: "b.B", want: []string{"a.A", "b.B"}, ok: true},
		{name: "sorted tie break", from: "a.A", to: "d.D", want: []string{"a.A", "b.B", "d.D"}, ok: true},
		{name: "external target", from: "a.A", to: "x.External", want: []string{"a.A", "c.C", "x.External"}, ok: true},
		{name: "around the cycle", from: "d.D", to: "c.C", want: []string{"d.D", "a.A", "c.C"}, ok: true},
		{name: "unknown source", from: "x.External", to: "a.A", ok: false},
		{name: "unreachable", from: "b.B", to: "y.Y", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.ShortestPath(tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
