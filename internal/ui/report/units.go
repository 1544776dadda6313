package report

import (
	"bufio"
	"io"

	"archcheck/internal/engine/classfile"
)

// DumpUnits writes each unit as its name followed by its sorted
// dependencies, one per line, indented by four spaces:
//
//	com.acme.A [
//	    com.acme.B
//	]
func DumpUnits(w io.Writer, units []classfile.UnitInfo) error {
	bw := bufio.NewWriter(w)
	for _, u := range units {
		bw.WriteString(u.Name())
		bw.WriteString(" [\n")
		for _, dep := range u.Dependencies() {
			bw.WriteString("    ")
			bw.WriteString(dep)
			bw.WriteByte('\n')
		}
		bw.WriteString("]\n")
	}
	return bw.Flush()
}
